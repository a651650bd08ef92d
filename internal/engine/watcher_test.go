package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxlex/voxlex/internal/engine"
	"github.com/voxlex/voxlex/internal/lexicon"
	"github.com/voxlex/voxlex/internal/match"
)

// touch writes content and bumps the mtime past the previous one, so the
// watcher's cheap mtime pre-check fires even on coarse-grained filesystems.
func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWatchFile_RebuildsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dictionary.json")
	touch(t, path, `[{"word": "apple store"}]`)

	e := engine.New(lexicon.NewFileSource(path))
	if err := e.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() unexpected error: %v", err)
	}

	w, err := engine.WatchFile(e, path, engine.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("WatchFile() unexpected error: %v", err)
	}
	defer w.Stop()

	touch(t, path, `[{"word": "apple store"}, {"word": "lululemon"}]`)

	ok := waitFor(t, 3*time.Second, func() bool {
		return e.Index().Len() == 2
	})
	if !ok {
		t.Fatalf("index not rebuilt after file change, entries = %d", e.Index().Len())
	}
	if got, _ := e.Match(context.Background(), "lululemon"); got.Type != match.MatchExact {
		t.Errorf("new entry not matchable after reload: %+v", got)
	}
}

func TestWatchFile_InvalidFileKeepsIndex(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dictionary.json")
	touch(t, path, `[{"word": "apple store"}]`)

	e := engine.New(lexicon.NewFileSource(path))
	if err := e.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() unexpected error: %v", err)
	}
	before := e.Index()

	w, err := engine.WatchFile(e, path, engine.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("WatchFile() unexpected error: %v", err)
	}
	defer w.Stop()

	touch(t, path, `{not json`)

	// Give the watcher several polling cycles to (wrongly) swap the index.
	time.Sleep(100 * time.Millisecond)
	if e.Index() != before {
		t.Fatal("invalid dictionary file replaced the index")
	}
	if got, _ := e.Match(context.Background(), "apple store"); got.Type != match.MatchExact {
		t.Errorf("previous index unusable after invalid file: %+v", got)
	}

	// Fixing the file recovers on a later tick.
	touch(t, path, `[{"word": "barnes and noble"}]`)
	ok := waitFor(t, 3*time.Second, func() bool {
		got, _ := e.Match(context.Background(), "barnes and noble")
		return got.Type == match.MatchExact
	})
	if !ok {
		t.Fatal("watcher did not recover after the file was fixed")
	}
}

func TestWatchFile_MissingFile(t *testing.T) {
	t.Parallel()

	e := engine.New(lexicon.NewFileSource("does-not-exist.json"))
	if _, err := engine.WatchFile(e, "does-not-exist.json"); err == nil {
		t.Fatal("WatchFile() expected error for missing file, got nil")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dictionary.json")
	touch(t, path, `[]`)

	e := engine.New(lexicon.NewFileSource(path))
	w, err := engine.WatchFile(e, path)
	if err != nil {
		t.Fatalf("WatchFile() unexpected error: %v", err)
	}
	w.Stop()
	w.Stop()
}
