// Package phonetic derives simplified phonetic keys from English text.
//
// The key is produced by an ordered table of spelling-to-sound substitutions
// followed by duplicate-letter collapsing and vowel stripping. It is an
// approximation, not a real phonetic algorithm (not Soundex or Metaphone):
// its only contract is that identical input always yields an identical key,
// so similarly-sounding spellings collapse onto the same consonant skeleton
// ("barns" and "barnes" both become "brns").
//
// The package also exposes the single-character confusion table used to
// pre-generate common speech-to-text substitution errors when a dictionary
// index is built.
package phonetic

import "strings"

// Substitution is a single ordered (pattern, replacement) rule.
type Substitution struct {
	Pattern     string
	Replacement string
}

// soundPatterns is the ordered spelling-to-sound substitution table. Each
// pattern is replaced globally before the next one is applied, so earlier
// replacements can expose or consume opportunities for later ones. The order
// is part of the key's stability contract and must not be changed.
var soundPatterns = []Substitution{
	{"ph", "f"},
	{"ough", "o"},
	{"gh", ""},
	{"kn", "n"},
	{"wr", "r"},
	{"mb", "m"},
	{"ce", "s"},
	{"ci", "s"},
	{"cy", "s"},
	{"ge", "j"},
	{"gi", "j"},
	{"gy", "j"},
	{"chr", "kr"},
	{"ck", "k"},
	{"cc", "k"},
	{"que", "k"},
	{"x", "ks"},
	{"wh", "w"},
	{"rh", "r"},
	{"ae", "e"},
	{"oe", "e"},
	{"eau", "o"},
	{"au", "o"},
	{"ou", "u"},
	{"oo", "u"},
	{"ee", "i"},
	{"ea", "i"},
	{"ai", "ay"},
	{"ay", "ay"},
	{"ey", "ay"},
	{"ch", "k"},
	{"tch", "ch"},
	{"th", "t"},
	{"sh", "s"},
	{"zh", "j"},
	{"dg", "j"},
}

// Confusions is the ordered single-character (and digraph) confusion table of
// sounds that speech-to-text engines commonly swap. The variation generator
// applies each rule to every dictionary token to pre-register plausible
// mistranscriptions.
var Confusions = []Substitution{
	{"v", "b"},
	{"m", "n"},
	{"p", "b"},
	{"t", "d"},
	{"g", "k"},
	{"ch", "j"},
	{"sh", "s"},
	{"z", "s"},
	{"f", "v"},
	{"b", "v"},
	{"d", "t"},
	{"j", "g"},
}

// Key derives the phonetic key for text. The derivation is deterministic:
//
//  1. Lowercase the input.
//  2. Apply every rule of the ordered substitution table, each globally.
//  3. Collapse any run of the same character to a single occurrence.
//  4. Per whitespace-delimited word, keep the first character unconditionally
//     and strip the vowels a, e, i, o, u from the remainder.
//
// Processed words are joined with single spaces. Empty input yields an empty
// key.
func Key(text string) string {
	s := strings.ToLower(text)
	for _, sub := range soundPatterns {
		s = strings.ReplaceAll(s, sub.Pattern, sub.Replacement)
	}
	s = collapseRuns(s)

	words := strings.Fields(s)
	for i, w := range words {
		words[i] = stripVowels(w)
	}
	return strings.Join(words, " ")
}

// collapseRuns reduces every run of the same rune to a single occurrence.
func collapseRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r != prev {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

// stripVowels removes a/e/i/o/u from word, keeping the first character even
// when it is a vowel.
func stripVowels(word string) string {
	runes := []rune(word)
	var b strings.Builder
	b.Grow(len(word))
	b.WriteRune(runes[0])
	for _, r := range runes[1:] {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
