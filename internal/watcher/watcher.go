package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"quill/internal/logging"
)

// ChangeHandler receives a batch of changed paths after debouncing.
type ChangeHandler func(paths []string)

// Watcher monitors a fixed set of context files and reports changes,
// debounced so an editor's save dance (write temp, rename) fires once.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	files     map[string]bool
	debounce  time.Duration
	onChange  ChangeHandler

	mu       sync.Mutex
	pending  map[string]time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher over the given files. Directories containing the
// files are watched (fsnotify loses file watches across renames) and
// events are filtered back down to the file set.
func New(files []string, debounceMs int, onChange ChangeHandler) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounceMs <= 0 {
		debounceMs = 500
	}

	fileSet := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		fileSet[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			logging.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		files:     fileSet,
		debounce:  time.Duration(debounceMs) * time.Millisecond,
		onChange:  onChange,
		pending:   make(map[string]time.Time),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. Stop to release the underlying watcher.
func (w *Watcher) Start() {
	go w.processEvents()
	go w.processDebounce()
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	return w.fsWatcher.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil || !w.files[abs] {
		return
	}
	w.mu.Lock()
	w.pending[abs] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounce() {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.flushPending()
		}
	}
}

// flushPending reports paths that have been quiet for a full debounce
// window.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	now := time.Now()
	var changed []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			changed = append(changed, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(changed) > 0 && w.onChange != nil {
		w.onChange(changed)
	}
}
