package match_test

import (
	"testing"

	"github.com/voxlex/voxlex/internal/match"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		typ   match.MatchType
		score float64
		want  match.Confidence
	}{
		{"exact is always high", match.MatchExact, 1, match.ConfidenceHigh},
		{"exact ignores score", match.MatchExact, 0.1, match.ConfidenceHigh},
		{"partial high boundary", match.MatchPartial, 0.8, match.ConfidenceHigh},
		{"partial above high", match.MatchPartial, 0.95, match.ConfidenceHigh},
		{"partial medium boundary", match.MatchPartial, 0.6, match.ConfidenceMedium},
		{"partial just below high", match.MatchPartial, 0.79, match.ConfidenceMedium},
		{"partial low", match.MatchPartial, 0.59, match.ConfidenceLow},
		{"phonetic high boundary", match.MatchPhonetic, 0.7, match.ConfidenceHigh},
		{"phonetic medium boundary", match.MatchPhonetic, 0.5, match.ConfidenceMedium},
		{"phonetic just below high", match.MatchPhonetic, 0.69, match.ConfidenceMedium},
		{"phonetic low", match.MatchPhonetic, 0.49, match.ConfidenceLow},
		{"no match has no confidence", match.MatchNone, 0.9, match.Confidence("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := match.Classify(tt.typ, tt.score); got != tt.want {
				t.Errorf("Classify(%q, %v) = %q, want %q", tt.typ, tt.score, got, tt.want)
			}
		})
	}
}

// Within a match type, a higher score must never yield a lower confidence.
func TestClassify_Monotonic(t *testing.T) {
	t.Parallel()

	rank := map[match.Confidence]int{
		match.ConfidenceLow:    1,
		match.ConfidenceMedium: 2,
		match.ConfidenceHigh:   3,
	}
	for _, typ := range []match.MatchType{match.MatchPartial, match.MatchPhonetic} {
		prev := 0
		for score := 0.0; score <= 1.0; score += 0.01 {
			got := rank[match.Classify(typ, score)]
			if got < prev {
				t.Fatalf("Classify(%q, %v) ranks below a lower score", typ, score)
			}
			prev = got
		}
	}
}
