package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Dictionary.Path != "" && cfg.Dictionary.PostgresDSN != "" {
		errs = append(errs, errors.New("dictionary.path and dictionary.postgres_dsn are mutually exclusive"))
	}
	if cfg.Dictionary.Path == "" && cfg.Dictionary.PostgresDSN == "" {
		slog.Warn("no dictionary source configured; only filter and offline commands will work")
	}
	if cfg.Dictionary.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("dictionary.poll_interval %s is negative", cfg.Dictionary.PollInterval))
	}
	if cfg.Dictionary.PollInterval != 0 && cfg.Dictionary.PostgresDSN != "" {
		slog.Warn("dictionary.poll_interval is ignored for PostgreSQL sources; use POST /v1/reload instead")
	}

	for _, s := range []struct {
		name  string
		value float64
	}{
		{"matcher.acceptance_floor", cfg.Matcher.AcceptanceFloor},
		{"matcher.significant_threshold", cfg.Matcher.SignificantThreshold},
		{"matcher.significant_shortcut", cfg.Matcher.SignificantShortcut},
		{"matcher.shared_token_penalty", cfg.Matcher.SharedTokenPenalty},
		{"matcher.length_penalty_step", cfg.Matcher.LengthPenaltyStep},
		{"matcher.subset_boost", cfg.Matcher.SubsetBoost},
		{"filter.partial_threshold", cfg.Filter.PartialThreshold},
		{"filter.phonetic_threshold", cfg.Filter.PhoneticThreshold},
	} {
		if s.value < 0 || s.value > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range [0, 1]", s.name, s.value))
		}
	}

	if cfg.Matcher.SignificantShortcut != 0 && cfg.Matcher.SignificantThreshold != 0 &&
		cfg.Matcher.SignificantShortcut < cfg.Matcher.SignificantThreshold {
		errs = append(errs, fmt.Errorf("matcher.significant_shortcut %.2f is below matcher.significant_threshold %.2f",
			cfg.Matcher.SignificantShortcut, cfg.Matcher.SignificantThreshold))
	}

	if cfg.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers %d is negative", cfg.Batch.Workers))
	}

	return errors.Join(errs...)
}
