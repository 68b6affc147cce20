package tokenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event signals that the token database changed on disk outside this
// process, e.g. another tab or window completed a handshake for the same
// workspace. Consumers re-read the store and pick up the fresh token instead
// of forcing a second login.
type Event struct {
	Path string
}

const (
	defaultDebounceDelay = 250 * time.Millisecond
	defaultEventsBuffer  = 16
	defaultErrorsBuffer  = 4
)

// Watcher monitors the token database file for external writes and emits
// debounced change events.
type Watcher struct {
	storePath string
	base      string

	fsWatcher *fsnotify.Watcher
	events    chan Event
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once

	debounce time.Duration
	mu       sync.Mutex
	lastEmit time.Time

	wg sync.WaitGroup
}

// Watch starts watching the token database at storePath using the default
// debounce delay.
func Watch(storePath string) (*Watcher, error) {
	return WatchWithDebounce(storePath, defaultDebounceDelay)
}

// WatchWithDebounce starts watching with a configurable debounce delay.
func WatchWithDebounce(storePath string, debounce time.Duration) (*Watcher, error) {
	if storePath == "" {
		return nil, fmt.Errorf("storePath is required")
	}

	abs, err := filepath.Abs(storePath)
	if err != nil {
		return nil, fmt.Errorf("abs storePath: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("ensure store dir exists: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// Watch the directory, not the file: SQLite swaps WAL sidecars in and
	// out and the file itself may not exist yet.
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		storePath: abs,
		base:      filepath.Base(abs),
		fsWatcher: fsw,
		events:    make(chan Event, defaultEventsBuffer),
		errors:    make(chan error, defaultErrorsBuffer),
		done:      make(chan struct{}),
		debounce:  debounce,
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run()
	}()

	return w, nil
}

// Events returns the channel of debounced change events.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops the watcher and releases OS resources.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}

	w.closeOnce.Do(func() {
		close(w.done)
	})

	// Closing the underlying watcher unblocks the run loop.
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer close(w.events)
	defer close(w.errors)

	for {
		select {
		case <-w.done:
			return
		case evt, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isStoreFile(evt.Name) {
				continue
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.shouldEmit() {
				continue
			}
			w.emitEvent(Event{Path: w.storePath})
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.emitError(err)
		}
	}
}

// isStoreFile matches the database file and its SQLite sidecars.
func (w *Watcher) isStoreFile(name string) bool {
	base := filepath.Base(filepath.Clean(name))
	switch base {
	case w.base, w.base + "-wal", w.base + "-shm":
		return true
	}
	return false
}

func (w *Watcher) shouldEmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.Sub(w.lastEmit) < w.debounce {
		return false
	}
	w.lastEmit = now
	return true
}

func (w *Watcher) emitEvent(e Event) {
	select {
	case w.events <- e:
	default:
		// Best-effort: drop if consumer is stalled.
	}
}

func (w *Watcher) emitError(err error) {
	select {
	case w.errors <- err:
	default:
		// Best-effort: drop if consumer is stalled.
	}
}
