package match

// Confidence classification thresholds. Partial (string) matches need a
// higher score than phonetic matches for the same level because raw string
// similarity is the stricter signal.
const (
	partialHighFloor    = 0.8
	partialMediumFloor  = 0.6
	phoneticHighFloor   = 0.7
	phoneticMediumFloor = 0.5
)

// Classify maps a (match type, score) pair onto a discrete confidence level.
// The table is the only path that sets confidence anywhere in the engine:
//
//	Exact    → High (any score)
//	Partial  → High ≥0.8, Medium ≥0.6, Low otherwise
//	Phonetic → High ≥0.7, Medium ≥0.5, Low otherwise
//
// MatchNone yields the zero Confidence — no-match results carry none.
func Classify(t MatchType, score float64) Confidence {
	switch t {
	case MatchExact:
		return ConfidenceHigh
	case MatchPartial:
		switch {
		case score >= partialHighFloor:
			return ConfidenceHigh
		case score >= partialMediumFloor:
			return ConfidenceMedium
		default:
			return ConfidenceLow
		}
	case MatchPhonetic:
		switch {
		case score >= phoneticHighFloor:
			return ConfidenceHigh
		case score >= phoneticMediumFloor:
			return ConfidenceMedium
		default:
			return ConfidenceLow
		}
	}
	return ""
}
