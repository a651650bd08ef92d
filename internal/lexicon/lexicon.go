// Package lexicon loads and persists the canonical word dictionary that the
// matching engine resolves queries against.
//
// Two source backends exist: a JSON file on disk ([FileSource]) and a
// PostgreSQL table ([PostgresStore]). Both yield the same flat record list;
// the engine does not care where words come from. The package also implements
// the compact variation-dictionary interchange format used to ship a
// pre-scored subset of variations between tools ([ExportCompact],
// [ReadCompact], [Merge]).
package lexicon

import (
	"context"
	"strings"
)

// Record is a single dictionary entry as stored by a [Source]. Additional
// fields in the source document are ignored.
type Record struct {
	Word string `json:"word"`
}

// Source yields the dictionary records the engine builds its index from.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
}

// Words extracts the non-blank words from records, preserving order. Records
// with a missing or whitespace-only word are dropped; callers that care about
// the drop count can compare lengths.
func Words(records []Record) []string {
	words := make([]string, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Word) == "" {
			continue
		}
		words = append(words, r.Word)
	}
	return words
}
