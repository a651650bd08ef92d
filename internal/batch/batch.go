// Package batch runs many match queries concurrently against an engine,
// optionally transcribing audio references first through a pluggable
// [Transcriber].
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/voxlex/voxlex/internal/engine"
	"github.com/voxlex/voxlex/internal/match"
	"github.com/voxlex/voxlex/internal/observe"
)

// ErrNoTranscriber is returned by [Runner.TranscribeAndMatch] when no
// transcriber was configured.
var ErrNoTranscriber = errors.New("batch: no transcriber configured")

// Transcriber converts an audio reference (file path, URL, object key) into
// its transcript text. Implementations are expected to be safe for
// concurrent use.
type Transcriber interface {
	Transcribe(ctx context.Context, ref string) (string, error)
}

// Outcome is the result of transcribing and matching one audio reference.
type Outcome struct {
	// Ref is the audio reference this outcome belongs to.
	Ref string `json:"ref"`

	// Transcript is the transcribed text. Empty when transcription failed.
	Transcript string `json:"transcript,omitempty"`

	// Result is the match result for the transcript.
	Result match.Result `json:"result"`

	// Err holds the per-item failure, if any. One bad item does not abort
	// the batch.
	Err error `json:"-"`
}

// DefaultWorkers returns the default concurrency: twice the CPU count,
// clamped to [2, 10]. Transcription backends rarely benefit from more.
func DefaultWorkers() int {
	return max(2, min(2*runtime.NumCPU(), 10))
}

// Option configures a [Runner].
type Option func(*Runner)

// WithWorkers sets the maximum number of concurrent items. Values below 1
// are ignored.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.workers = n
		}
	}
}

// WithTranscriber sets the transcriber used by [Runner.TranscribeAndMatch].
func WithTranscriber(t Transcriber) Option {
	return func(r *Runner) { r.transcriber = t }
}

// WithMetrics sets the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// Runner fans batch work out over a bounded worker pool. Results always come
// back in input order.
type Runner struct {
	engine      *engine.Engine
	workers     int
	transcriber Transcriber
	metrics     *observe.Metrics
}

// New creates a [Runner] matching against e.
func New(e *engine.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:  e,
		workers: DefaultWorkers(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// MatchAll matches every query concurrently and returns the results in input
// order. The whole batch fails if the engine has no index or the context is
// cancelled.
func (r *Runner) MatchAll(ctx context.Context, queries []string) ([]match.Result, error) {
	results := make([]match.Result, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, q := range queries {
		g.Go(func() error {
			res, err := r.engine.Match(ctx, q)
			if err != nil {
				return fmt.Errorf("batch: match %q: %w", q, err)
			}
			results[i] = res
			r.metrics.RecordBatchItem(ctx, itemStatus(res))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TranscribeAndMatch transcribes every reference and matches the transcript,
// in input order. Per-item failures land in [Outcome.Err] and do not abort
// the batch; the returned error is reserved for setup problems and context
// cancellation.
func (r *Runner) TranscribeAndMatch(ctx context.Context, refs []string) ([]Outcome, error) {
	if r.transcriber == nil {
		return nil, ErrNoTranscriber
	}
	outcomes := make([]Outcome, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, ref := range refs {
		g.Go(func() error {
			out := Outcome{Ref: ref}
			defer func() { outcomes[i] = out }()

			transcript, err := r.transcriber.Transcribe(ctx, ref)
			if err != nil {
				out.Err = fmt.Errorf("batch: transcribe %q: %w", ref, err)
				out.Result = match.NoMatch()
				r.metrics.RecordBatchItem(ctx, "error")
				return nil
			}
			out.Transcript = transcript

			res, err := r.engine.Match(ctx, transcript)
			if err != nil {
				return fmt.Errorf("batch: match %q: %w", transcript, err)
			}
			out.Result = res
			r.metrics.RecordBatchItem(ctx, itemStatus(res))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// itemStatus maps a match result onto the batch metrics status attribute.
func itemStatus(res match.Result) string {
	if res.Matched() {
		return "matched"
	}
	return "no_match"
}
