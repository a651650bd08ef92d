package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voxlex/voxlex/internal/config"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: debug
dictionary:
  path: dictionary.json
  poll_interval: 10s
matcher:
  acceptance_floor: 0.5
  generic_terms: [store, shop]
filter:
  partial_threshold: 0.65
  phonetic_threshold: 0.6
batch:
  workers: 4
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader() unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Dictionary.Path != "dictionary.json" {
		t.Errorf("Dictionary.Path = %q", cfg.Dictionary.Path)
	}
	if cfg.Dictionary.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %s, want 10s", cfg.Dictionary.PollInterval)
	}
	if cfg.Matcher.AcceptanceFloor != 0.5 {
		t.Errorf("AcceptanceFloor = %v, want 0.5", cfg.Matcher.AcceptanceFloor)
	}
	if len(cfg.Matcher.GenericTerms) != 2 {
		t.Errorf("GenericTerms = %v, want [store shop]", cfg.Matcher.GenericTerms)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("Batch.Workers = %d, want 4", cfg.Batch.Workers)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("server:\n  listen_adr: \":8080\"\n"))
	if err == nil {
		t.Fatal("LoadFromReader() expected error for unknown field, got nil")
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Dictionary.Path != "dictionary.json" {
		t.Errorf("Dictionary.Path = %q", cfg.Dictionary.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := config.Load("does-not-exist.yaml"); err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "empty config is valid",
			mutate: func(c *config.Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Server.LogLevel = "verbose" },
			wantErr: "server.log_level",
		},
		{
			name: "both dictionary sources",
			mutate: func(c *config.Config) {
				c.Dictionary.Path = "dictionary.json"
				c.Dictionary.PostgresDSN = "postgres://localhost/voxlex"
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *config.Config) { c.Dictionary.PollInterval = -time.Second },
			wantErr: "dictionary.poll_interval",
		},
		{
			name:    "floor out of range",
			mutate:  func(c *config.Config) { c.Matcher.AcceptanceFloor = 1.5 },
			wantErr: "matcher.acceptance_floor",
		},
		{
			name:    "negative filter threshold",
			mutate:  func(c *config.Config) { c.Filter.PartialThreshold = -0.1 },
			wantErr: "filter.partial_threshold",
		},
		{
			name: "shortcut below significant threshold",
			mutate: func(c *config.Config) {
				c.Matcher.SignificantThreshold = 0.8
				c.Matcher.SignificantShortcut = 0.7
			},
			wantErr: "matcher.significant_shortcut",
		},
		{
			name:    "negative workers",
			mutate:  func(c *config.Config) { c.Batch.Workers = -1 },
			wantErr: "batch.workers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &config.Config{}
			tt.mutate(cfg)

			err := config.Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Server.LogLevel = "loud"
	cfg.Matcher.SubsetBoost = 2
	cfg.Batch.Workers = -3

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	for _, want := range []string{"server.log_level", "matcher.subset_boost", "batch.workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q: %v", want, err)
		}
	}
}
