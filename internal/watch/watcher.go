// Package watch re-runs checks on assets as they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fulmenhq/autocheck/pkg/ignore"
	"github.com/fulmenhq/autocheck/pkg/logger"
)

// DefaultDebounce batches rapid saves from editors.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives each debounced batch of changed paths, sorted and
// de-duplicated. A returned error is logged and watching continues.
type Handler func(ctx context.Context, paths []string) error

// Config controls a Watcher.
type Config struct {
	Root       string
	Extensions []string
	Debounce   time.Duration
	Ignore     *ignore.Matcher
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Batches       int
	HandlerErrors int
	WatchErrors   int
	LastEventPath string
	LastEventTime time.Time
}

// Watcher watches every directory under a root.
type Watcher struct {
	cfg     Config
	handler Handler
	watcher *fsnotify.Watcher
	ready   chan struct{}

	mu      sync.Mutex
	pending map[string]struct{}
	stats   Stats
}

// New creates a watcher. Nothing is watched until Run.
func New(cfg Config, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch root %s: %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s: not a directory", cfg.Root)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		cfg:     cfg,
		handler: handler,
		watcher: fw,
		ready:   make(chan struct{}),
		pending: make(map[string]struct{}),
	}, nil
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Ready is closed once the initial directory tree is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run blocks until ctx is done. The fsnotify watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			logger.Warn("Error closing watcher", logger.Err(err))
		}
	}()

	if _, err := w.addTree(w.cfg.Root); err != nil {
		return err
	}
	close(w.ready)
	logger.Info("Watching for changes",
		logger.String("root", w.cfg.Root),
		logger.Duration("debounce", w.cfg.Debounce))

	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error", logger.Err(err))
			w.mu.Lock()
			w.stats.WatchErrors++
			w.mu.Unlock()

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handleEvent records a relevant event and reports whether the debounce
// timer should restart.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	path := event.Name

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// files may land before the directory watch is in place
			found, err := w.addTree(path)
			if err != nil {
				logger.Warn("Failed to watch new directory", logger.String("path", path), logger.Err(err))
			}
			for _, f := range found {
				w.enqueue(f)
			}
			return len(found) > 0
		}
	}
	if !w.relevant(path) {
		return false
	}

	logger.Debug("Asset changed", logger.String("path", path), logger.String("op", event.Op.String()))
	w.enqueue(path)
	return true
}

func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	w.stats.Events++
	w.stats.LastEventPath = path
	w.stats.LastEventTime = time.Now()
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		// a rename away leaves nothing to check
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	logger.Info("Re-checking changed assets", logger.Int("count", len(paths)))
	err := w.handler(ctx, paths)

	w.mu.Lock()
	w.stats.Batches++
	if err != nil {
		w.stats.HandlerErrors++
	}
	w.mu.Unlock()
	if err != nil {
		logger.Error("Re-check failed", logger.Err(err))
	}
}

func (w *Watcher) relevant(path string) bool {
	if len(w.cfg.Extensions) > 0 {
		ext := filepath.Ext(path)
		match := false
		for _, e := range w.cfg.Extensions {
			if ext == e {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return !w.ignored(path, false)
}

func (w *Watcher) ignored(path string, dir bool) bool {
	if w.cfg.Ignore == nil {
		return false
	}
	// the matcher resolves paths against its own root
	abs := absPath(path)
	if dir {
		return w.cfg.Ignore.IsIgnoredDir(abs)
	}
	return w.cfg.Ignore.IsIgnored(abs)
}

// addTree watches dir and every directory below it, returning the relevant
// files already present.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			if w.relevant(path) {
				found = append(found, path)
			}
			return nil
		}
		if path != dir && w.ignored(path, true) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
	return found, err
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
