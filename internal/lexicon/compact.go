package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/voxlex/voxlex/internal/match"
)

// Variation-score weighting for the compact export. A variation's likelihood
// of showing up in real transcriptions is estimated from string similarity,
// relative length and whether it preserves the word boundaries of the
// original.
const (
	similarityWeight = 0.6
	lengthWeight     = 0.3
	boundaryKept     = 0.2
	boundaryLost     = 0.1

	// maxCompactVariations caps how many variations an exported entry keeps.
	maxCompactVariations = 3
)

// CompactMeta is the per-word metadata of the compact dictionary format.
type CompactMeta struct {
	Compound bool   `json:"c"`
	Phonetic string `json:"p"`
}

// CompactEntry is one value of the compact dictionary format: the top-scored
// variations plus minimal metadata needed to rebuild a usable index entry.
type CompactEntry struct {
	Variations []string    `json:"v"`
	Meta       CompactMeta `json:"m"`
}

// CompactDict maps a canonical word to its compact entry. JSON marshalling
// orders keys alphabetically, so serialised dictionaries are deterministic.
type CompactDict map[string]CompactEntry

// variationScore estimates how likely a variation is to appear for word.
// An exact (case-insensitive) match always scores 1.
func variationScore(word, variation string) float64 {
	lower := strings.ToLower(word)
	if lower == strings.ToLower(variation) {
		return 1
	}

	stringSim := match.Ratio(lower, strings.ToLower(variation))

	lv, lw := utf8.RuneCountInString(variation), utf8.RuneCountInString(word)
	lengthRatio := float64(min(lv, lw)) / float64(max(lv, lw))

	boundary := boundaryLost
	if strings.Contains(word, " ") && strings.Contains(variation, " ") &&
		len(strings.Fields(word)) == len(strings.Fields(variation)) {
		boundary = boundaryKept
	}

	return stringSim*similarityWeight + lengthRatio*lengthWeight + boundary
}

// ExportCompact reduces an index to the compact dictionary format. Per entry
// the candidate set is the normalized form, the phonetic key and any observed
// transcription variations for the word; the top three by [variationScore]
// survive, ties broken alphabetically so the export is deterministic.
func ExportCompact(ix *match.Index, observed map[string][]string) CompactDict {
	dict := make(CompactDict, ix.Len())
	for _, e := range ix.Entries() {
		seen := map[string]struct{}{}
		var candidates []string
		add := func(v string) {
			if v == "" {
				return
			}
			if _, ok := seen[v]; ok {
				return
			}
			seen[v] = struct{}{}
			candidates = append(candidates, v)
		}

		add(e.Normalized)
		add(e.Phonetic)
		for _, obs := range observed[e.Word] {
			add(match.Normalize(obs))
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			si, sj := variationScore(e.Word, candidates[i]), variationScore(e.Word, candidates[j])
			if si != sj {
				return si > sj
			}
			return candidates[i] < candidates[j]
		})
		if len(candidates) > maxCompactVariations {
			candidates = candidates[:maxCompactVariations]
		}

		dict[e.Word] = CompactEntry{
			Variations: candidates,
			Meta:       CompactMeta{Compound: e.Compound, Phonetic: e.Phonetic},
		}
	}
	return dict
}

// IndexFromCompact rebuilds a matchable index from a compact dictionary. The
// result is lossy compared to a full [match.BuildIndex] — only the exported
// variations are present — but the seed invariant (normalized form and
// phonetic key always matchable) is restored by the match package. Entries
// are ordered alphabetically by word.
func IndexFromCompact(dict CompactDict) *match.Index {
	words := make([]string, 0, len(dict))
	for w := range dict {
		words = append(words, w)
	}
	sort.Strings(words)

	entries := make([]*match.Entry, 0, len(words))
	for _, w := range words {
		ce := dict[w]
		entries = append(entries, match.NewEntry(w, ce.Variations, ce.Meta.Compound, ce.Meta.Phonetic))
	}
	return match.NewIndex(entries)
}

// Merge overlays observed transcription variations onto a compact dictionary:
// for every word with observations the variation list is replaced wholesale,
// since real transcriptions outrank generated candidates. Words without
// observations keep their entry. The input dictionary is not modified.
func Merge(dict CompactDict, observed map[string][]string) CompactDict {
	merged := make(CompactDict, len(dict))
	for word, entry := range dict {
		if obs, ok := observed[word]; ok {
			entry.Variations = cleanVariations(obs)
		}
		merged[word] = entry
	}
	return merged
}

// cleanVariations normalizes observations, dropping empties and duplicates
// while preserving order.
func cleanVariations(obs []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, o := range obs {
		v := match.Normalize(o)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// WriteCompact serialises a compact dictionary to path with stable formatting.
func WriteCompact(path string, dict CompactDict) error {
	data, err := json.MarshalIndent(dict, "", "  ")
	if err != nil {
		return fmt.Errorf("lexicon: marshal compact dictionary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("lexicon: write %s: %w", path, err)
	}
	return nil
}

// ReadCompact parses a compact dictionary file.
func ReadCompact(path string) (CompactDict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read %s: %w", path, err)
	}
	var dict CompactDict
	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("lexicon: parse %s: %w", path, err)
	}
	return dict, nil
}
