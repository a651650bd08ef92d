// Command voxlex matches noisy speech-to-text output against a curated
// dictionary. It runs one-shot queries, concurrent batches, offline
// dictionary exports and transcription filtering, or a long-running HTTP
// service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxlex/voxlex/internal/batch"
	"github.com/voxlex/voxlex/internal/config"
	"github.com/voxlex/voxlex/internal/engine"
	"github.com/voxlex/voxlex/internal/filter"
	"github.com/voxlex/voxlex/internal/health"
	"github.com/voxlex/voxlex/internal/lexicon"
	"github.com/voxlex/voxlex/internal/match"
	"github.com/voxlex/voxlex/internal/observe"
	"github.com/voxlex/voxlex/internal/resilience"
	"github.com/voxlex/voxlex/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	dictPath := flag.String("dict", "", "dictionary JSON file (overrides the configured source)")
	query := flag.String("query", "", "match a single query and print the result as JSON")
	batchPath := flag.String("batch", "", "match a JSON array of queries concurrently")
	exportPath := flag.String("export", "", "write the compact variation dictionary to this file")
	filterPath := flag.String("filter", "", "filter a JSON map of observed transcriptions")
	observedPath := flag.String("observed", "", "observed transcriptions JSON map, folded into -export")
	outPath := flag.String("out", "", "output file for -filter (default: stdout)")
	serve := flag.Bool("serve", false, "run the HTTP matching service")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := &config.Config{}
	if loaded, err := config.Load(*configPath); err == nil {
		cfg = loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "voxlex: %v\n", err)
		return 1
	}
	if *dictPath != "" {
		cfg.Dictionary.Path = *dictPath
		cfg.Dictionary.PostgresDSN = ""
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	modes := 0
	for _, active := range []bool{*query != "", *batchPath != "", *exportPath != "", *filterPath != "", *serve} {
		if active {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, "voxlex: exactly one of -query, -batch, -export, -filter, -serve is required")
		flag.Usage()
		return 2
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Filtering is pure offline work and needs no dictionary source.
	if *filterPath != "" {
		return runFilter(ctx, cfg, *filterPath, *outPath)
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	source, sourceCheck, cleanup, err := buildSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to open dictionary source", "err", err)
		return 1
	}
	defer cleanup()

	eng := engine.New(source, engine.WithMatcher(match.New(matcherOptions(cfg.Matcher)...)))
	if err := eng.Rebuild(ctx); err != nil {
		slog.Error("failed to build index", "err", err)
		return 1
	}

	var batchOpts []batch.Option
	if cfg.Batch.Workers > 0 {
		batchOpts = append(batchOpts, batch.WithWorkers(cfg.Batch.Workers))
	}
	runner := batch.New(eng, batchOpts...)

	switch {
	case *query != "":
		return runQuery(ctx, eng, *query)
	case *batchPath != "":
		return runBatch(ctx, runner, *batchPath)
	case *exportPath != "":
		return runExport(eng, *exportPath, *observedPath)
	default:
		return runServe(ctx, cfg, eng, runner, sourceCheck)
	}
}

// buildSource opens the configured dictionary source. It also returns the
// readiness checker for that source and a cleanup that closes any underlying
// connection pool.
func buildSource(ctx context.Context, cfg *config.Config) (lexicon.Source, health.Checker, func(), error) {
	if cfg.Dictionary.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Dictionary.PostgresDSN)
		if err != nil {
			return nil, health.Checker{}, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := lexicon.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, health.Checker{}, nil, err
		}
		checker := health.Checker{
			Name: "dictionary",
			Check: func(ctx context.Context) error {
				_, err := store.Count(ctx)
				return err
			},
		}
		guarded := resilience.GuardSource(store, resilience.CircuitBreakerConfig{Name: "dictionary"})
		return guarded, checker, pool.Close, nil
	}
	if cfg.Dictionary.Path == "" {
		return nil, health.Checker{}, nil, errors.New("no dictionary source configured; set dictionary.path or pass -dict")
	}
	path := cfg.Dictionary.Path
	checker := health.Checker{
		Name: "dictionary",
		Check: func(_ context.Context) error {
			_, err := os.Stat(path)
			return err
		},
	}
	return lexicon.NewFileSource(path), checker, func() {}, nil
}

func runQuery(ctx context.Context, eng *engine.Engine, query string) int {
	res, err := eng.Match(ctx, query)
	if err != nil {
		slog.Error("match failed", "err", err)
		return 1
	}
	return printJSON(os.Stdout, res)
}

func runBatch(ctx context.Context, runner *batch.Runner, path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read batch file", "path", path, "err", err)
		return 1
	}
	var queries []string
	if err := json.Unmarshal(data, &queries); err != nil {
		slog.Error("batch file is not a JSON array of strings", "path", path, "err", err)
		return 1
	}

	results, err := runner.MatchAll(ctx, queries)
	if err != nil {
		slog.Error("batch failed", "err", err)
		return 1
	}
	return printJSON(os.Stdout, results)
}

func runExport(eng *engine.Engine, path, observedPath string) int {
	var observed map[string][]string
	if observedPath != "" {
		data, err := os.ReadFile(observedPath)
		if err != nil {
			slog.Error("failed to read observed transcriptions", "path", observedPath, "err", err)
			return 1
		}
		if err := json.Unmarshal(data, &observed); err != nil {
			slog.Error("observed transcriptions file is not a JSON map", "path", observedPath, "err", err)
			return 1
		}
	}

	dict := lexicon.ExportCompact(eng.Index(), observed)
	if err := lexicon.WriteCompact(path, dict); err != nil {
		slog.Error("failed to write compact dictionary", "err", err)
		return 1
	}
	slog.Info("compact dictionary written", "path", path, "entries", len(dict))
	return 0
}

func runFilter(ctx context.Context, cfg *config.Config, path, outPath string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read transcriptions file", "path", path, "err", err)
		return 1
	}
	var observed map[string][]string
	if err := json.Unmarshal(data, &observed); err != nil {
		slog.Error("transcriptions file is not a JSON map", "path", path, "err", err)
		return 1
	}

	filtered := filter.New(filterOptions(cfg.Filter)...).Apply(ctx, observed)

	if outPath == "" {
		return printJSON(os.Stdout, filtered)
	}
	out, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		slog.Error("failed to encode filtered transcriptions", "err", err)
		return 1
	}
	if err := os.WriteFile(outPath, append(out, '\n'), 0o644); err != nil {
		slog.Error("failed to write filtered transcriptions", "path", outPath, "err", err)
		return 1
	}
	slog.Info("filtered transcriptions written", "path", outPath, "words", len(filtered))
	return 0
}

func runServe(ctx context.Context, cfg *config.Config, eng *engine.Engine, runner *batch.Runner, sourceCheck health.Checker) int {
	shutdown, err := observe.InitProvider(ctx)
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	opts := []server.Option{
		server.WithMetrics(observe.DefaultMetrics()),
		server.WithReadinessCheck(sourceCheck),
	}

	// File sources are watched for edits; PostgreSQL sources reload via the
	// /v1/reload endpoint.
	if cfg.Dictionary.Path != "" {
		var watcherOpts []engine.WatcherOption
		if cfg.Dictionary.PollInterval > 0 {
			watcherOpts = append(watcherOpts, engine.WithInterval(cfg.Dictionary.PollInterval))
		}
		w, err := engine.WatchFile(eng, cfg.Dictionary.Path, watcherOpts...)
		if err != nil {
			slog.Error("failed to watch dictionary file", "err", err)
			return 1
		}
		defer w.Stop()
	}

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	slog.Info("voxlex serving", "addr", addr, "entries", eng.Index().Len())
	if err := server.New(eng, runner, opts...).Run(ctx, addr); err != nil {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// matcherOptions translates the config block into matcher options. Zero
// values keep the matcher defaults.
func matcherOptions(mc config.MatcherConfig) []match.Option {
	var opts []match.Option
	if mc.AcceptanceFloor > 0 {
		opts = append(opts, match.WithAcceptanceFloor(mc.AcceptanceFloor))
	}
	if mc.SignificantThreshold > 0 {
		opts = append(opts, match.WithSignificantThreshold(mc.SignificantThreshold))
	}
	if mc.SignificantShortcut > 0 {
		opts = append(opts, match.WithSignificantShortcut(mc.SignificantShortcut))
	}
	if mc.SharedTokenPenalty > 0 {
		opts = append(opts, match.WithSharedTokenPenalty(mc.SharedTokenPenalty))
	}
	if mc.LengthPenaltyStep > 0 {
		opts = append(opts, match.WithLengthPenaltyStep(mc.LengthPenaltyStep))
	}
	if mc.SubsetBoost > 0 {
		opts = append(opts, match.WithSubsetBoost(mc.SubsetBoost))
	}
	if mc.GenericTerms != nil {
		opts = append(opts, match.WithGenericTerms(mc.GenericTerms))
	}
	return opts
}

// filterOptions translates the config block into filter options.
func filterOptions(fc config.FilterConfig) []filter.Option {
	var opts []filter.Option
	if fc.PartialThreshold > 0 {
		opts = append(opts, filter.WithPartialThreshold(fc.PartialThreshold))
	}
	if fc.PhoneticThreshold > 0 {
		opts = append(opts, filter.WithPhoneticThreshold(fc.PhoneticThreshold))
	}
	return opts
}

func printJSON(w *os.File, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to encode output", "err", err)
		return 1
	}
	return 0
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
