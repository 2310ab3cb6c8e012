package config

import (
	"bytes"
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 1500 * time.Millisecond

// Watcher watches one file and hands a freshly loaded T to every handler
// when the file changes. The parent directory is watched so files replaced
// by rename are still observed. Saves that leave the content unchanged are
// ignored.
type Watcher[T any] struct {
	path     string
	debounce time.Duration
	loader   func(path string) (T, error)
	onError  func(error)
	logger   *slog.Logger

	mu       sync.Mutex
	handlers []handlerEntry[T]
	nextID   uint64
	lastSum  []byte

	fsw      *fsnotify.Watcher
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type handlerEntry[T any] struct {
	id uint64
	fn func(T)
}

// WatcherOption configures a Watcher.
type WatcherOption[T any] func(*Watcher[T])

// WithDebounce sets how long the file must stay quiet before it is loaded.
func WithDebounce[T any](d time.Duration) WatcherOption[T] {
	return func(w *Watcher[T]) {
		w.debounce = d
	}
}

// WithErrorHandler sets a callback for load errors. Handlers registered
// with OnReload are not called for a file that fails to load.
func WithErrorHandler[T any](handler func(error)) WatcherOption[T] {
	return func(w *Watcher[T]) {
		w.onError = handler
	}
}

// NewConfigWatcher creates a watcher for path. loader runs on every change.
func NewConfigWatcher[T any](
	path string,
	loader func(path string) (T, error),
	logger *slog.Logger,
	opts ...WatcherOption[T],
) *Watcher[T] {
	w := &Watcher[T]{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		loader:   loader,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnReload registers a handler and returns a func that removes it.
// Handlers run in registration order.
func (w *Watcher[T]) OnReload(handler func(T)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers = append(w.handlers, handlerEntry[T]{id: id, fn: handler})
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		w.handlers = slices.DeleteFunc(w.handlers, func(e handlerEntry[T]) bool { return e.id == id })
		w.mu.Unlock()
	}
}

// Start begins watching the file.
func (w *Watcher[T]) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw

	w.logger.Info("Watching file", "path", w.path, "debounce", w.debounce)
	go w.watch()
	return nil
}

// Stop ends watching and waits for the watch loop to exit. It is safe to
// call more than once and on a watcher that never started.
func (w *Watcher[T]) Stop() (err error) {
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.fsw != nil {
			err = w.fsw.Close()
			<-w.done
		}
	})
	return err
}

func (w *Watcher[T]) watch() {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.matches(event) {
				continue
			}
			w.logger.Debug("File change detected", "path", w.path, "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			w.load(false)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", "path", w.path, "error", err)
		}
	}
}

// matches reports whether event touches the watched file with an op that
// can change its contents.
func (w *Watcher[T]) matches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Reload loads the file now and notifies handlers even if the content has
// not changed since the last load.
func (w *Watcher[T]) Reload() {
	w.load(true)
}

func (w *Watcher[T]) load(force bool) {
	sum := w.checksum()
	w.mu.Lock()
	unchanged := sum != nil && bytes.Equal(sum, w.lastSum)
	w.mu.Unlock()
	if unchanged && !force {
		w.logger.Debug("File content unchanged, skipping reload", "path", w.path)
		return
	}

	value, err := w.loader(w.path)
	if err != nil {
		w.logger.Warn("Failed to load file", "path", w.path, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	w.lastSum = sum
	handlers := make([]func(T), 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h.fn)
	}
	w.mu.Unlock()

	w.logger.Info("File reloaded", "path", w.path, "handlers", len(handlers))
	for _, h := range handlers {
		h(value)
	}
}

// checksum hashes the file content, or returns nil if it cannot be read.
func (w *Watcher[T]) checksum() []byte {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil
	}
	sum := sha256.Sum256(data)
	return sum[:]
}
