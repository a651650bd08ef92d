package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/voxlex/voxlex/internal/match/phonetic"
)

// stopwords are never registered as standalone sub-phrase variations.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "in": {}, "at": {}, "of": {},
}

// Entry is a single canonical dictionary word together with its expanded
// variation set. Entries are immutable once built.
type Entry struct {
	// Word is the canonical dictionary string as loaded.
	Word string

	// Normalized is Normalize(Word).
	Normalized string

	// Tokens are the whitespace tokens of Normalized.
	Tokens []string

	// Compound reports whether the normalized form has two or more tokens.
	Compound bool

	// Phonetic is the phonetic key of the normalized form.
	Phonetic string

	variations map[string]struct{}
	sorted     []string
}

// HasVariation reports whether v is registered in the entry's variation set.
func (e *Entry) HasVariation(v string) bool {
	_, ok := e.variations[v]
	return ok
}

// Variations returns the registered surface variations in sorted order.
// The returned slice must not be modified.
func (e *Entry) Variations() []string {
	return e.sorted
}

// freeze caches the sorted variation list once construction is complete.
func (e *Entry) freeze() *Entry {
	e.sorted = make([]string, 0, len(e.variations))
	for v := range e.variations {
		e.sorted = append(e.sorted, v)
	}
	sort.Strings(e.sorted)
	return e
}

// Index maps canonical dictionary words to their variation sets. It is built
// once from a dictionary snapshot, is read-only thereafter, and is safe to
// share across concurrent Match calls. Entry order follows dictionary order,
// which decides ties between equally-scored candidates (first entry wins).
type Index struct {
	entries []*Entry
}

// Entries returns the index entries in dictionary order. The returned slice
// must not be modified.
func (ix *Index) Entries() []*Entry {
	return ix.entries
}

// Len returns the number of dictionary entries in the index.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// BuildIndex expands each dictionary word into its variation set and returns
// the resulting read-only [Index]. Empty words are skipped. The generator
// intentionally over-produces — recall is favored over storage economy:
//
//   - Every entry is seeded with its lowercased original, its normalized form
//     and the phonetic key of the normalized form.
//   - Compound entries additionally register concatenated, hyphen-joined and
//     underscore-joined forms, every contiguous token sub-phrase longer than
//     two characters that is not a stopword, and each individual significant
//     token under the same filter.
//   - The phonetic confusion table is applied to every token: each applicable
//     rule registers the substituted token, and for compounds also the whole
//     phrase with that token (at its first position) replaced.
//
// An empty dictionary yields a valid empty index.
func BuildIndex(words []string) *Index {
	ix := &Index{entries: make([]*Entry, 0, len(words))}
	for _, w := range words {
		if strings.TrimSpace(w) == "" {
			continue
		}
		ix.entries = append(ix.entries, buildEntry(w))
	}
	return ix
}

// NewEntry reconstructs an [Entry] from externally persisted state (the
// compact variation dictionary interchange format). The variation set is
// seeded with the given variations plus the normalized form and phonetic key
// so the entry invariant holds even for lossy input. A compound flag on a
// word that normalizes to zero tokens is dropped: the matcher relies on
// compound entries having a first token.
func NewEntry(word string, variations []string, compound bool, phoneticKey string) *Entry {
	normalized := Normalize(word)
	tokens := Tokens(normalized)
	if phoneticKey == "" {
		phoneticKey = phonetic.Key(normalized)
	}
	e := &Entry{
		Word:       word,
		Normalized: normalized,
		Tokens:     tokens,
		Compound:   compound && len(tokens) > 0,
		Phonetic:   phoneticKey,
		variations: make(map[string]struct{}, len(variations)+2),
	}
	e.add(normalized)
	e.add(phoneticKey)
	for _, v := range variations {
		e.add(strings.ToLower(v))
	}
	return e.freeze()
}

// NewIndex assembles an [Index] from pre-built entries, preserving order.
func NewIndex(entries []*Entry) *Index {
	return &Index{entries: entries}
}

func (e *Entry) add(v string) {
	if v != "" {
		e.variations[v] = struct{}{}
	}
}

func buildEntry(word string) *Entry {
	normalized := Normalize(word)
	tokens := Tokens(normalized)

	e := &Entry{
		Word:       word,
		Normalized: normalized,
		Tokens:     tokens,
		Compound:   len(tokens) > 1,
		Phonetic:   phonetic.Key(normalized),
		variations: make(map[string]struct{}),
	}

	e.add(strings.ToLower(word))
	e.add(normalized)
	e.add(e.Phonetic)

	if e.Compound {
		e.add(strings.Join(tokens, ""))
		e.add(strings.Join(tokens, "-"))
		e.add(strings.Join(tokens, "_"))

		// Contiguous sub-phrases, including single tokens.
		for i := range tokens {
			for j := i + 1; j <= len(tokens); j++ {
				sub := strings.Join(tokens[i:j], " ")
				if significantPhrase(sub) {
					e.add(sub)
				}
			}
		}
		for _, t := range tokens {
			if significantPhrase(t) {
				e.add(t)
			}
		}
	}

	// Confusion substitutions per token; compounds also register the whole
	// phrase with the first occurrence of the token replaced.
	for _, t := range tokens {
		for _, sub := range phonetic.Confusions {
			if !strings.Contains(t, sub.Pattern) {
				continue
			}
			replaced := strings.ReplaceAll(t, sub.Pattern, sub.Replacement)
			e.add(replaced)
			if e.Compound {
				phrase := make([]string, len(tokens))
				copy(phrase, tokens)
				for i, p := range phrase {
					if p == t {
						phrase[i] = replaced
						break
					}
				}
				e.add(strings.Join(phrase, " "))
			}
		}
	}

	return e.freeze()
}

// significantPhrase reports whether a sub-phrase is worth registering as a
// variation: longer than two characters and not a stopword.
func significantPhrase(s string) bool {
	if utf8.RuneCountInString(s) <= 2 {
		return false
	}
	_, stop := stopwords[s]
	return !stop
}
