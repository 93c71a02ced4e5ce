package devserver

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watcher wraps fsnotify, grounded on tain335-esbuild's notifyWatcher: one
// underlying *fsnotify.Watcher rebuilt from scratch every time the set of
// watched paths changes (simpler than diffing Add/Remove calls, and cheap
// since a build's module count is always small relative to rebuild cost),
// plus a debounce so a single save that touches a file twice (some editors
// write-then-rename) only triggers one rebuild.
type watcher struct {
	mu       sync.Mutex
	inner    *fsnotify.Watcher
	paths    map[string]bool
	debounce time.Duration
	onChange func(path string)

	timer   *time.Timer
	pending string
}

func newWatcher(debounce time.Duration, onChange func(path string)) *watcher {
	return &watcher{paths: map[string]bool{}, debounce: debounce, onChange: onChange}
}

// SetPaths replaces the watched set with paths, tearing down and
// recreating the fsnotify watcher. Called after every successful build so
// a newly-added import starts being watched and a removed one stops.
func (w *watcher) SetPaths(paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inner != nil {
		w.inner.Close()
	}
	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.inner = inner

	next := make(map[string]bool, len(paths))
	for _, p := range paths {
		next[p] = true
		if err := inner.Add(p); err != nil {
			continue // a file that disappeared between build and watch setup; skip it
		}
	}
	w.paths = next

	go w.loop(inner)
	return nil
}

func (w *watcher) loop(inner *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-inner.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule(event.Name)
			}
		case _, ok := <-inner.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = path
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		p := w.pending
		w.mu.Unlock()
		w.onChange(p)
	})
}

func (w *watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.inner != nil {
		w.inner.Close()
	}
}
