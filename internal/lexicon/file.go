package lexicon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// FileSource reads dictionary records from a JSON file containing an array of
// objects with a "word" field.
type FileSource struct {
	path string
}

// Compile-time interface check.
var _ Source = (*FileSource)(nil)

// NewFileSource creates a [FileSource] for the given path. The file is read
// on every Load call, so a rebuild picks up edits without restarting.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file path this source reads from.
func (s *FileSource) Path() string { return s.path }

// Load reads and parses the dictionary file. Records with a missing word are
// kept in the returned slice; use [Words] to filter them out.
func (s *FileSource) Load(_ context.Context) ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read %s: %w", s.path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("lexicon: parse %s: %w", s.path, err)
	}

	if dropped := len(records) - len(Words(records)); dropped > 0 {
		slog.Warn("dictionary contains records without a word, skipping them",
			"path", s.path, "skipped", dropped)
	}
	return records, nil
}
