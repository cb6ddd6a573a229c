// Package watch re-runs a callback when watched annotation files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/fsnotify.v1"
)

// DefaultDebounce coalesces the burst of events an editor or copy produces.
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc is called with the path of a changed file.
type ChangeFunc func(ctx context.Context, path string)

// Watcher observes a set of files. Directories are watched rather than the
// files themselves so that replace-by-rename saves are still seen.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	onChange ChangeFunc
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher for the given files.
func New(paths []string, onChange ChangeFunc, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	files := make(map[string]bool, len(paths))
	for _, path := range paths {
		absolute, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		files[absolute] = true
	}
	return &Watcher{
		files:    files,
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// SetDebounce overrides the debounce interval.
func (w *Watcher) SetDebounce(interval time.Duration) {
	w.debounce = interval
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	directories := make(map[string]bool)
	for file := range w.files {
		directories[filepath.Dir(file)] = true
	}
	for directory := range directories {
		if err := watcher.Add(directory); err != nil {
			return fmt.Errorf("watching directory %s: %w", directory, err)
		}
	}

	w.watchLoop(ctx, watcher)
	w.stopTimers()
	return nil
}

// watchLoop handles file system events.
func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.files[path] {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				w.schedule(ctx, path)
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				w.logger.Info("watched file removed", "path", path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// schedule runs the callback once the file has been quiet for the debounce interval.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(ctx, path)
}

// scheduleLocked requires w.mu. A timer that fired while being reset finds
// its map entry gone or replaced on the second run and does nothing.
func (w *Watcher) scheduleLocked(ctx context.Context, path string) {
	if timer, exists := w.timers[path]; exists {
		timer.Reset(w.debounce)
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.timers[path] != timer {
			w.mu.Unlock()
			return
		}
		delete(w.timers, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.logger.Debug("watched file changed", "path", path)
		w.onChange(ctx, path)
	})
	w.timers[path] = timer
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}
