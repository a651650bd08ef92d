// Package engine owns the live match index: it builds the index from a
// dictionary source, swaps it atomically on rebuild, and serves queries
// against whichever snapshot is current.
//
// Queries never block on rebuilds. A rebuild constructs the complete new
// index aside and publishes it with a single atomic pointer swap; in-flight
// matches keep using the snapshot they started with. A failed rebuild leaves
// the previous index untouched.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/voxlex/voxlex/internal/lexicon"
	"github.com/voxlex/voxlex/internal/match"
	"github.com/voxlex/voxlex/internal/observe"
)

// ErrNoIndex is returned by [Engine.Match] before the first successful
// rebuild.
var ErrNoIndex = errors.New("engine: no index built yet")

// Option configures an [Engine].
type Option func(*Engine)

// WithMatcher sets the matcher used for queries. Default: match.New().
func WithMatcher(m *match.Matcher) Option {
	return func(e *Engine) { e.matcher = m }
}

// WithMetrics sets the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine resolves queries against an atomically swappable index built from a
// dictionary source. All methods are safe for concurrent use.
type Engine struct {
	source  lexicon.Source
	matcher *match.Matcher
	metrics *observe.Metrics

	index atomic.Pointer[match.Index]
}

// New creates an [Engine] reading from source. Call [Engine.Rebuild] before
// the first Match.
func New(source lexicon.Source, opts ...Option) *Engine {
	e := &Engine{
		source:  source,
		matcher: match.New(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Rebuild loads the dictionary from the source and swaps in a freshly built
// index. On source failure the previous index stays live and the error is
// returned; queries continue against the old snapshot.
func (e *Engine) Rebuild(ctx context.Context) error {
	ctx, span := observe.StartRebuildSpan(ctx)
	defer span.End()
	start := time.Now()

	records, err := e.source.Load(ctx)
	if err != nil {
		e.metrics.RecordRebuild(ctx, "error", 0, time.Since(start).Seconds())
		return fmt.Errorf("engine: rebuild: %w", err)
	}

	ix := match.BuildIndex(lexicon.Words(records))
	e.index.Store(ix)
	e.metrics.RecordRebuild(ctx, "ok", ix.Len(), time.Since(start).Seconds())

	observe.Logger(ctx).Info("index rebuilt",
		"entries", ix.Len(),
		"duration", time.Since(start))
	return nil
}

// Match resolves query against the current index snapshot. Returns
// [ErrNoIndex] when no rebuild has succeeded yet.
func (e *Engine) Match(ctx context.Context, query string) (match.Result, error) {
	ix := e.index.Load()
	if ix == nil {
		return match.NoMatch(), ErrNoIndex
	}

	ctx, span := observe.StartMatchSpan(ctx, ix.Len())
	defer span.End()

	start := time.Now()
	result := e.matcher.Match(query, ix)
	e.metrics.RecordMatch(ctx, string(result.Type), string(result.Confidence), time.Since(start).Seconds())

	observe.AnnotateMatch(span, string(result.Type), string(result.Confidence))
	return result, nil
}

// Index returns the current index snapshot, or nil before the first
// successful rebuild. The returned index is immutable.
func (e *Engine) Index() *match.Index {
	return e.index.Load()
}

// Ready reports whether an index is available. Used by readiness probes.
func (e *Engine) Ready() bool {
	return e.index.Load() != nil
}
