// Package watcher reloads saved models when their artifacts change on disk, using fsnotify
// with per-model debouncing.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/storage"
	"github.com/hyperjump/bunrui/pkg/utils"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches the directories of model prefixes and invokes a callback once the files
// of a prefix stop changing.
type Watcher struct {
	prefixes    []string
	onChange    func(prefix string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	dirRefs     map[string]int // watched dir -> number of prefixes in it
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

// WithDebounce sets how long the files of a prefix must stay quiet before onChange runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for the given model prefixes. onChange is called with the
// prefix whose artifacts were written, renamed or removed.
func NewWatcher(prefixes []string, onChange func(prefix string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		onChange:    onChange,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		dirRefs:     make(map[string]int),
		done:        make(chan struct{}),
	}
	for _, p := range prefixes {
		w.prefixes = append(w.prefixes, filepath.Clean(p))
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = utils.OrNop(w.logger)
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.logger.Debug("watcher starting", zap.Strings("prefixes", w.prefixes), zap.Duration("debounce", w.debounce))
	for _, p := range w.prefixes {
		if err := w.watchDirLocked(filepath.Dir(p)); err != nil {
			_ = w.watcher.Close()
			w.watcher = nil
			w.started = false
			w.dirRefs = make(map[string]int)
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()
	go w.run(ctx, watcher)
	return nil
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	prefix, ok := w.owner(ev.Name)
	if !ok {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	w.debounceChange(prefix)
}

// owner returns the watched prefix that path is an artifact of.
func (w *Watcher) owner(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	clean := filepath.Clean(path)
	for _, p := range w.prefixes {
		if storage.IsArtifact(p, clean) {
			return p, true
		}
	}
	return "", false
}

func (w *Watcher) debounceChange(prefix string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[prefix]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, prefix)
		onChange := w.onChange
		w.mu.Unlock()
		w.logger.Debug("watcher reloading model (debounced)", zap.String("prefix", prefix))
		if onChange != nil {
			onChange(prefix)
		}
	})
	w.debounceMap[prefix] = t
}

// AddPrefix starts watching another model prefix.
func (w *Watcher) AddPrefix(prefix string) error {
	abs, err := filepath.Abs(prefix)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.prefixes {
		if p == abs {
			return nil
		}
	}
	if w.watcher != nil {
		if err := w.watchDirLocked(filepath.Dir(abs)); err != nil {
			return err
		}
	}
	w.prefixes = append(w.prefixes, abs)
	w.logger.Debug("watcher prefix added", zap.String("prefix", abs))
	return nil
}

func (w *Watcher) watchDirLocked(dir string) error {
	if w.dirRefs[dir] == 0 {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirRefs[dir]++
	return nil
}

// RemovePrefix stops watching prefix. Pending reloads for it are cancelled.
func (w *Watcher) RemovePrefix(prefix string) error {
	abs, err := filepath.Abs(prefix)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := -1
	for i, p := range w.prefixes {
		if p == abs {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	w.prefixes = append(w.prefixes[:idx], w.prefixes[idx+1:]...)
	if t, ok := w.debounceMap[abs]; ok {
		t.Stop()
		delete(w.debounceMap, abs)
	}
	dir := filepath.Dir(abs)
	if w.watcher != nil && w.dirRefs[dir] > 0 {
		w.dirRefs[dir]--
		if w.dirRefs[dir] == 0 {
			delete(w.dirRefs, dir)
			_ = w.watcher.Remove(dir)
		}
	}
	w.logger.Debug("watcher prefix removed", zap.String("prefix", abs))
	return nil
}

// Prefixes returns a copy of the watched prefixes.
func (w *Watcher) Prefixes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.prefixes...)
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for prefix, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, prefix)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.dirRefs = make(map[string]int)
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
