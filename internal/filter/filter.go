// Package filter decides which observed transcriptions of a dictionary word
// are plausible enough to keep as training variations.
//
// A transcription is kept when any of these signals fires:
//
//  1. Exact match after normalization.
//  2. Partial match: the best Ratcliff-Obershelp ratio between any word
//     token and any transcription token, or between the full strings,
//     reaches the partial threshold (default 0.65).
//  3. Phonetic-key match: the ratio between the phonetic keys of both
//     strings reaches the phonetic threshold (default 0.6).
//  4. Double Metaphone overlap: any token of the word shares a metaphone
//     code with any token of the transcription.
package filter

import (
	"context"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/voxlex/voxlex/internal/match"
	"github.com/voxlex/voxlex/internal/match/phonetic"
	"github.com/voxlex/voxlex/internal/observe"
)

const (
	defaultPartialThreshold  = 0.65
	defaultPhoneticThreshold = 0.6
)

// Option configures a [Filter].
type Option func(*Filter)

// WithPartialThreshold sets the minimum similarity ratio for the partial
// match signal. Default: 0.65.
func WithPartialThreshold(threshold float64) Option {
	return func(f *Filter) { f.partialThreshold = threshold }
}

// WithPhoneticThreshold sets the minimum similarity ratio between phonetic
// keys. Default: 0.6.
func WithPhoneticThreshold(threshold float64) Option {
	return func(f *Filter) { f.phoneticThreshold = threshold }
}

// WithMetrics sets the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(f *Filter) { f.metrics = m }
}

// Filter screens observed transcriptions against their dictionary word. It
// is read-only after construction and safe for concurrent use.
type Filter struct {
	partialThreshold  float64
	phoneticThreshold float64
	metrics           *observe.Metrics
}

// New returns a [Filter] configured with the supplied options.
func New(opts ...Option) *Filter {
	f := &Filter{
		partialThreshold:  defaultPartialThreshold,
		phoneticThreshold: defaultPhoneticThreshold,
	}
	for _, o := range opts {
		o(f)
	}
	if f.metrics == nil {
		f.metrics = observe.DefaultMetrics()
	}
	return f
}

// Keep reports whether transcription is a plausible rendering of word.
// Underscores in word are treated as spaces; a single trailing sentence
// punctuation mark on the transcription is ignored.
func (f *Filter) Keep(word, transcription string) bool {
	w := strings.ReplaceAll(word, "_", " ")
	t := strings.TrimSpace(strings.TrimRight(transcription, ".?!"))
	if t == "" {
		return false
	}

	wNorm := match.Normalize(w)
	tNorm := match.Normalize(t)
	if wNorm == "" {
		return false
	}
	if wNorm == tNorm {
		return true
	}

	if f.partialSimilar(wNorm, tNorm) {
		return true
	}
	if match.Ratio(phonetic.Key(wNorm), phonetic.Key(tNorm)) >= f.phoneticThreshold {
		return true
	}
	return codesOverlap(codesForTokens(match.Tokens(wNorm)), codesForTokens(match.Tokens(tNorm)))
}

// Apply filters every transcription list in observed against its word.
// Keys are preserved even when every transcription was rejected, so the
// caller can tell "nothing observed" apart from "nothing kept".
func (f *Filter) Apply(ctx context.Context, observed map[string][]string) map[string][]string {
	filtered := make(map[string][]string, len(observed))
	for word, transcriptions := range observed {
		kept := make([]string, 0, len(transcriptions))
		for _, t := range transcriptions {
			ok := f.Keep(word, t)
			f.metrics.RecordFilterDecision(ctx, ok)
			if ok {
				kept = append(kept, t)
			}
		}
		filtered[word] = kept
	}
	return filtered
}

// partialSimilar checks the token-pair and full-string similarity signals.
func (f *Filter) partialSimilar(wNorm, tNorm string) bool {
	if match.Ratio(wNorm, tNorm) >= f.partialThreshold {
		return true
	}
	for _, wt := range match.Tokens(wNorm) {
		for _, tt := range match.Tokens(tNorm) {
			if match.Ratio(wt, tt) >= f.partialThreshold {
				return true
			}
		}
	}
	return false
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
