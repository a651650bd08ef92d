package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher monitors the dictionary file for changes and triggers an engine
// rebuild when the content differs. It uses polling (not fsnotify) to keep
// dependencies minimal.
type Watcher struct {
	path     string
	interval time.Duration
	engine   *Engine

	mu       sync.Mutex
	done     chan struct{}
	stopOnce sync.Once

	// last known file state for change detection
	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WatchFile creates a dictionary file watcher for the given engine. The
// caller is expected to have done the initial [Engine.Rebuild]; the watcher
// records the file's current state and rebuilds only on subsequent changes.
// Polling starts in a background goroutine immediately.
func WatchFile(e *Engine, path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		engine:   e,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	hash, mtime, err := w.readState()
	if err != nil {
		return nil, fmt.Errorf("engine: watch %s: %w", path, err)
	}
	w.lastHash = hash
	w.lastMtime = mtime

	go w.poll()
	return w, nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// poll runs in a background goroutine, checking the dictionary file
// periodically.
func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check compares the dictionary file against the last known state and, when
// the content changed, rebuilds the index. A failed rebuild leaves the state
// unrecorded so the next tick retries.
func (w *Watcher) check() {
	// Quick mtime check first to avoid hashing unchanged files.
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("dictionary watcher: cannot stat file", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	mtime := w.lastMtime
	w.mu.Unlock()

	if info.ModTime().Equal(mtime) {
		return
	}

	// Mtime changed — read and hash.
	hash, newMtime, err := w.readState()
	if err != nil {
		slog.Warn("dictionary watcher: cannot read file", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if hash == w.lastHash {
		// File was touched but content is identical.
		w.lastMtime = newMtime
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	if err := w.engine.Rebuild(context.Background()); err != nil {
		// Previous index stays live; state stays stale so the next tick
		// retries once the file is fixed.
		slog.Warn("dictionary watcher: rebuild failed, keeping previous index",
			"path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	w.lastHash = hash
	w.lastMtime = newMtime
	w.mu.Unlock()

	slog.Info("dictionary watcher: dictionary reloaded", "path", w.path)
}

// readState hashes the dictionary file and returns its SHA-256 alongside the
// modification time.
func (w *Watcher) readState() ([sha256.Size]byte, time.Time, error) {
	var zeroHash [sha256.Size]byte

	data, err := os.ReadFile(w.path)
	if err != nil {
		return zeroHash, time.Time{}, err
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return zeroHash, time.Time{}, err
	}
	return sha256.Sum256(data), info.ModTime(), nil
}
