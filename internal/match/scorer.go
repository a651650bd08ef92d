package match

import (
	"strings"
	"unicode/utf8"

	"github.com/voxlex/voxlex/internal/match/phonetic"
)

// substringBonus is the score awarded when one token contains the other and
// both are long enough for containment to be meaningful.
const substringBonus = 0.9

// substringMinLen is the minimum token length in runes (exclusive) for the
// containment bonus to apply.
const substringMinLen = 3

// genericWeight down-weights generic terms in token-level scoring, and is
// also the penalty factor applied to all signals of an all-generic query.
const genericWeight = 0.5

// defaultGenericTerms are common low-discriminative retail words that carry
// little identity on their own ("juice bar" could be almost anything).
var defaultGenericTerms = map[string]struct{}{
	"bar": {}, "store": {}, "shop": {}, "coffee": {},
	"juice": {}, "restaurant": {}, "cafe": {}, "market": {},
}

// wordSimilarity scores a single query token against a single dictionary
// token: the maximum of the string ratio, the phonetic-key ratio, and the
// containment bonus.
func wordSimilarity(a, b string) float64 {
	s := Ratio(a, b)
	if p := Ratio(phonetic.Key(a), phonetic.Key(b)); p > s {
		s = p
	}
	if utf8.RuneCountInString(a) > substringMinLen && utf8.RuneCountInString(b) > substringMinLen &&
		(strings.Contains(a, b) || strings.Contains(b, a)) {
		s = max(s, substringBonus)
	}
	return s
}

// significantSimilarity averages, over the significant query tokens, the best
// wordSimilarity against any significant entry token. Returns 0 when either
// side is empty.
func significantSimilarity(sigQuery, sigEntry []string) float64 {
	if len(sigQuery) == 0 || len(sigEntry) == 0 {
		return 0
	}
	total := 0.0
	for _, q := range sigQuery {
		best := 0.0
		for _, d := range sigEntry {
			if s := wordSimilarity(q, d); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(sigQuery))
}

// orderedPhraseContained reports whether one side's significant tokens,
// joined in order, are a substring of the other side's.
func orderedPhraseContained(a, b []string) bool {
	pa := strings.Join(a, " ")
	pb := strings.Join(b, " ")
	return strings.Contains(pa, pb) || strings.Contains(pb, pa)
}

// scoreVariation computes the composite similarity between the normalized
// query and one registered variation of an entry, along with the match-type
// hypothesis. Evaluation order:
//
//  1. Exact normalized equality short-circuits to (1, Exact).
//  2. String similarity: Ratio of the normalized strings.
//  3. Phonetic similarity: Ratio of the phonetic keys.
//  4. Token-level similarity: per query token, the best wordSimilarity
//     against the entry's tokens, down-weighted for generic terms, averaged.
//  5. A significant-token similarity above the threshold supersedes the
//     token-level score, with an extra boost when both sides have two or
//     more significant tokens matching in order.
//  6. All-generic queries have every signal halved.
//  7. The maximum signal wins; the type is Partial when the string signal is
//     the maximum (ties favor Partial), Phonetic otherwise.
func (m *Matcher) scoreVariation(queryNorm string, queryTokens []string, e *Entry, variation string) (float64, MatchType) {
	normVar := Normalize(variation)
	if queryNorm == normVar {
		return 1, MatchExact
	}

	stringSim := Ratio(queryNorm, normVar)
	phonSim := Ratio(phonetic.Key(queryNorm), phonetic.Key(variation))

	wordSim := 0.0
	if len(queryTokens) > 0 {
		total := 0.0
		for _, qt := range queryTokens {
			best := 0.0
			for _, dt := range e.Tokens {
				if s := wordSimilarity(qt, dt); s > best {
					best = s
				}
			}
			weight := 1.0
			if m.isGeneric(qt) {
				weight = genericWeight
			}
			total += best * weight
		}
		wordSim = total / float64(len(queryTokens))

		sigQ := m.significantTokens(queryTokens)
		sigD := m.significantTokens(e.Tokens)
		if sigSim := significantSimilarity(sigQ, sigD); sigSim > m.significantThreshold {
			wordSim = max(wordSim, sigSim)
			if len(sigQ) > 1 && len(sigD) > 1 && orderedPhraseContained(sigQ, sigD) {
				wordSim = min(1, wordSim+m.phraseBoost)
			}
		}
	}

	if m.allGeneric(queryTokens) {
		stringSim *= genericWeight
		phonSim *= genericWeight
		wordSim *= genericWeight
	}

	score, matchType := stringSim, MatchPartial
	if phonSim > score {
		score, matchType = phonSim, MatchPhonetic
	}
	if wordSim > score {
		score, matchType = wordSim, MatchPhonetic
	}
	return score, matchType
}

// isGeneric reports whether tok is a member of the generic-term set.
func (m *Matcher) isGeneric(tok string) bool {
	_, ok := m.genericTerms[tok]
	return ok
}

// allGeneric reports whether every token is a generic term. Vacuously true
// for an empty token list (which never reaches scoring — empty queries are
// rejected before pass 1).
func (m *Matcher) allGeneric(tokens []string) bool {
	for _, t := range tokens {
		if !m.isGeneric(t) {
			return false
		}
	}
	return true
}

// significantTokens filters out generic terms.
func (m *Matcher) significantTokens(tokens []string) []string {
	var sig []string
	for _, t := range tokens {
		if !m.isGeneric(t) {
			sig = append(sig, t)
		}
	}
	return sig
}
