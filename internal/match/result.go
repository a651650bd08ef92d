// Package match implements the fuzzy lexical matching engine that resolves
// noisy speech-to-text output against a curated dictionary of canonical
// entries.
//
// Speech transcription introduces phonetic misspellings ("barns and noble"),
// compound-word fragmentation ("lulu lemon") and filler or generic words
// ("juice bar") that break naive string equality. The engine compensates with
// a layered strategy:
//
//  1. [BuildIndex] expands every dictionary entry into an over-generated set
//     of plausible surface variations (separator variants, sub-phrases,
//     single significant tokens, phonetic-confusion substitutions).
//  2. [Matcher.Match] scans the index in two passes: an exact-variation scan
//     first, then a best-candidate scan that combines string similarity,
//     phonetic-key similarity and token-level similarity, with penalties for
//     mismatched compound lengths and boosts for token-subset queries.
//  3. The winning score and match type map onto a discrete confidence level
//     through a fixed classification table ([Classify]).
//
// An [Index] is immutable after construction and safe to share across
// concurrently executing Match calls. Rebuilding a dictionary means building
// a new Index and swapping the reference; see the engine package.
package match

// MatchType classifies how a query was matched against a dictionary entry.
type MatchType string

const (
	// MatchExact means the normalized query was literally present in the
	// entry's variation set.
	MatchExact MatchType = "Exact"

	// MatchPartial means the winning signal was plain string similarity.
	MatchPartial MatchType = "Partial"

	// MatchPhonetic means the winning signal was phonetic-key or token-level
	// similarity rather than raw string similarity.
	MatchPhonetic MatchType = "Phonetic"

	// MatchNone means no candidate reached the acceptance floor.
	MatchNone MatchType = "NoMatch"
)

// Confidence is the discrete confidence level of a match, derived purely from
// (score, match type) via the [Classify] table.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Result is the outcome of a single [Matcher.Match] call. A fresh Result is
// produced per query and never mutated afterwards.
//
// Invariant: Type == MatchNone if and only if Word is empty. NoMatch results
// carry no confidence and a zero score.
type Result struct {
	// Word is the canonical dictionary entry that matched. Empty when no
	// candidate reached the acceptance floor.
	Word string `json:"matched_word,omitempty"`

	// Type classifies the match.
	Type MatchType `json:"match_type"`

	// Confidence is the discrete confidence level. Empty for NoMatch.
	Confidence Confidence `json:"confidence,omitempty"`

	// Score is the raw similarity score in [0, 1] that produced this result.
	// Zero for NoMatch.
	Score float64 `json:"score,omitempty"`
}

// NoMatch returns the canonical no-match result.
func NoMatch() Result {
	return Result{Type: MatchNone}
}

// Matched reports whether r represents a successful match.
func (r Result) Matched() bool {
	return r.Type != MatchNone && r.Word != ""
}
