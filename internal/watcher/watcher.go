// Package watcher re-indexes exported archives when they change on disk, using fsnotify with
// per-file debouncing.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/chatsearch/pkg/utils"
	"go.uber.org/zap"
)

const defaultDebounce = 2 * time.Second

// Watcher watches archive files and invokes onChange once a file has stopped changing for the
// debounce interval. Parent directories are watched rather than the files themselves, so files that
// are replaced by rename (as most exporters and editors do) keep being tracked.
type Watcher struct {
	files       map[string]bool
	onChange    func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	dirs        map[string]int // watched directory -> number of files in it
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must be quiet before onChange runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for the given archive files.
func NewWatcher(files []string, onChange func(path string), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		files:       make(map[string]bool),
		onChange:    onChange,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		dirs:        make(map[string]int),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = utils.OrNop(w.logger)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("invalid watch path %s: %w", f, err)
		}
		w.files[filepath.Clean(abs)] = true
	}
	return w, nil
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for path := range w.files {
		dir := filepath.Dir(path)
		if w.dirs[dir] == 0 {
			if _, err := os.Stat(dir); err != nil {
				_ = watcher.Close()
				return fmt.Errorf("cannot watch %s: %w", path, err)
			}
			if err := watcher.Add(dir); err != nil {
				_ = watcher.Close()
				return fmt.Errorf("cannot watch %s: %w", dir, err)
			}
		}
		w.dirs[dir]++
	}
	w.watcher = watcher
	w.started = true
	w.logger.Debug("watcher started", zap.Strings("files", w.fileListLocked()), zap.Duration("debounce", w.debounce))
	go w.run(ctx)
	return nil
}

func (w *Watcher) fileListLocked() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

func (w *Watcher) run(ctx context.Context) {
	w.mu.Lock()
	fsw := w.watcher
	w.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	w.mu.Lock()
	watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.debounceChange(path)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// Replaced-by-rename shows up as Rename/Remove followed by Create for the same name.
		w.cancelDebounce(path)
	}
}

func (w *Watcher) debounceChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		select {
		case <-w.done:
			return
		default:
		}
		if _, err := os.Stat(path); err != nil {
			w.logger.Debug("watched file vanished before debounce fired", zap.String("path", path))
			return
		}
		w.logger.Debug("archive changed (debounced)", zap.String("path", path))
		if w.onChange != nil {
			w.onChange(path)
		}
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// Stop stops the watcher and pending debounced callbacks.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		for path, t := range w.debounceMap {
			t.Stop()
			delete(w.debounceMap, path)
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}
