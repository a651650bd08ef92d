package match

import "slices"

// Default threshold values. These mirror the empirically-tuned constants of
// the original matching heuristics; there is no derivation behind them, which
// is why every one is overridable through an [Option].
const (
	defaultAcceptanceFloor      = 0.5
	defaultSignificantThreshold = 0.7
	defaultSignificantShortcut  = 0.8
	defaultSharedTokenPenalty   = 0.05
	defaultLengthPenaltyStep    = 0.1
	defaultSubsetBoost          = 0.1
	defaultPhraseBoost          = 0.1
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithAcceptanceFloor sets the minimum best-candidate similarity required to
// return a match at all. Default: 0.5.
func WithAcceptanceFloor(v float64) Option {
	return func(m *Matcher) { m.acceptanceFloor = v }
}

// WithSignificantThreshold sets the similarity a significant-token comparison
// must exceed to supersede the general token-level score. Default: 0.7.
func WithSignificantThreshold(v float64) Option {
	return func(m *Matcher) { m.significantThreshold = v }
}

// WithSignificantShortcut sets the significant-path similarity at which the
// per-variation scan is skipped for an entry. Default: 0.8.
func WithSignificantShortcut(v float64) Option {
	return func(m *Matcher) { m.significantShortcut = v }
}

// WithSharedTokenPenalty sets the flat compound-entry penalty applied when
// the query shares the entry's first token or any significant token.
// Default: 0.05.
func WithSharedTokenPenalty(v float64) Option {
	return func(m *Matcher) { m.sharedTokenPenalty = v }
}

// WithLengthPenaltyStep sets the per-token penalty applied to compound
// entries whose token count differs from the query's when no token is
// shared. Default: 0.1.
func WithLengthPenaltyStep(v float64) Option {
	return func(m *Matcher) { m.lengthPenaltyStep = v }
}

// WithSubsetBoost sets the boost added when the query's token set is a
// subset of the entry's token set. Default: 0.1.
func WithSubsetBoost(v float64) Option {
	return func(m *Matcher) { m.subsetBoost = v }
}

// WithGenericTerms replaces the generic-term set used for down-weighting
// low-discriminative tokens.
func WithGenericTerms(terms []string) Option {
	return func(m *Matcher) {
		set := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			set[Normalize(t)] = struct{}{}
		}
		m.genericTerms = set
	}
}

// Matcher selects the best dictionary candidate for a query. It holds only
// scoring parameters — all methods are safe for concurrent use, as the
// Matcher is read-only after construction.
type Matcher struct {
	acceptanceFloor      float64
	significantThreshold float64
	significantShortcut  float64
	sharedTokenPenalty   float64
	lengthPenaltyStep    float64
	subsetBoost          float64
	phraseBoost          float64
	genericTerms         map[string]struct{}
}

// New returns a [Matcher] configured with the supplied options. Defaults
// reproduce the original heuristics exactly.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		acceptanceFloor:      defaultAcceptanceFloor,
		significantThreshold: defaultSignificantThreshold,
		significantShortcut:  defaultSignificantShortcut,
		sharedTokenPenalty:   defaultSharedTokenPenalty,
		lengthPenaltyStep:    defaultLengthPenaltyStep,
		subsetBoost:          defaultSubsetBoost,
		phraseBoost:          defaultPhraseBoost,
		genericTerms:         defaultGenericTerms,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match resolves query against the index and returns the single best
// candidate, or a NoMatch result when no candidate reaches the acceptance
// floor.
//
// Pass 1 scans for the normalized query literally present in an entry's
// variation set. One disambiguation rule applies: a single-token query
// matching a multi-token entry is only accepted when it equals the entry's
// first token, so a generic lead token cannot claim an unrelated compound
// entry.
//
// Pass 2 scores every entry: the significant-token path is tried first and,
// when it does not reach the shortcut threshold, every registered variation
// goes through the full scorer. A length penalty is subtracted for compound
// entries, a subset boost added when all query tokens appear in the entry,
// and the running best is kept under strict greater-than (the first entry in
// dictionary order wins ties).
//
// Empty or whitespace-only queries normalize to the empty string and always
// yield NoMatch.
func (m *Matcher) Match(query string, ix *Index) Result {
	queryNorm := Normalize(query)
	if queryNorm == "" {
		return NoMatch()
	}
	queryTokens := Tokens(queryNorm)

	// Pass 1 — exact-variation scan.
	for _, e := range ix.Entries() {
		if !e.HasVariation(queryNorm) {
			continue
		}
		if len(queryTokens) == 1 && e.Compound && e.Tokens[0] != queryNorm {
			// A lone token buried inside a compound entry is not an exact hit.
			continue
		}
		return Result{Word: e.Word, Type: MatchExact, Confidence: ConfidenceHigh, Score: 1}
	}

	// Pass 2 — best-candidate scan.
	sigQuery := m.significantTokens(queryTokens)

	var best Result
	for _, e := range ix.Entries() {
		sim := 0.0
		var matchType MatchType

		sigEntry := m.significantTokens(e.Tokens)
		if sigSim := significantSimilarity(sigQuery, sigEntry); sigSim > m.significantThreshold {
			sim = sigSim
			matchType = MatchPartial
			if len(sigQuery) > 1 && len(sigEntry) > 1 && orderedPhraseContained(sigQuery, sigEntry) {
				sim = min(1, sim+m.phraseBoost)
			}
		}

		if sim < m.significantShortcut {
			for _, v := range e.Variations() {
				if s, t := m.scoreVariation(queryNorm, queryTokens, e, v); s > sim {
					sim, matchType = s, t
				}
			}
		}

		if e.Compound {
			sim = max(0, sim-m.lengthPenalty(queryTokens, e, sigEntry))
		}
		if tokenSubset(queryTokens, e.Tokens) {
			sim = min(1, sim+m.subsetBoost)
		}

		if sim > best.Score {
			best = Result{Word: e.Word, Type: matchType, Score: sim}
		}
	}

	if best.Word == "" || best.Score < m.acceptanceFloor {
		return NoMatch()
	}
	best.Confidence = Classify(best.Type, best.Score)
	return best
}

// lengthPenalty computes the compound-entry penalty: a small flat penalty
// when the query shares the entry's first token or any significant token,
// otherwise a penalty proportional to the token-count difference.
func (m *Matcher) lengthPenalty(queryTokens []string, e *Entry, sigEntry []string) float64 {
	if slices.Contains(queryTokens, e.Tokens[0]) || sharesAny(queryTokens, sigEntry) {
		return m.sharedTokenPenalty
	}
	diff := len(e.Tokens) - len(queryTokens)
	if diff < 0 {
		diff = -diff
	}
	return m.lengthPenaltyStep * float64(diff)
}

// sharesAny reports whether any element of a appears in b.
func sharesAny(a, b []string) bool {
	for _, t := range a {
		if slices.Contains(b, t) {
			return true
		}
	}
	return false
}

// tokenSubset reports whether every token of a appears among b's tokens,
// order-irrelevant.
func tokenSubset(a, b []string) bool {
	for _, t := range a {
		if !slices.Contains(b, t) {
			return false
		}
	}
	return true
}
