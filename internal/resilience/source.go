package resilience

import (
	"context"

	"github.com/voxlex/voxlex/internal/lexicon"
)

// GuardedSource wraps a [lexicon.Source] with a [CircuitBreaker]. While the
// breaker is open, Load fails fast with [ErrCircuitOpen] instead of hitting
// the backing store; the engine then keeps its previous index.
type GuardedSource struct {
	source  lexicon.Source
	breaker *CircuitBreaker
}

var _ lexicon.Source = (*GuardedSource)(nil)

// GuardSource wraps source with a breaker built from cfg.
func GuardSource(source lexicon.Source, cfg CircuitBreakerConfig) *GuardedSource {
	return &GuardedSource{
		source:  source,
		breaker: NewCircuitBreaker(cfg),
	}
}

// Load delegates to the wrapped source through the breaker.
func (g *GuardedSource) Load(ctx context.Context) ([]lexicon.Record, error) {
	var records []lexicon.Record
	err := g.breaker.Execute(func() error {
		var err error
		records, err = g.source.Load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// State exposes the breaker state for readiness checks.
func (g *GuardedSource) State() State {
	return g.breaker.State()
}
