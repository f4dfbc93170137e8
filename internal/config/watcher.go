package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration when the file it was loaded from
// changes on disk. Reloads are debounced because editors often fire
// several write events per save.
type Watcher struct {
	loader   *Loader
	path     string
	onChange func(*Config)

	mu       sync.Mutex
	fs       *fsnotify.Watcher
	debounce *time.Timer
	stop     chan struct{}
}

// NewWatcher watches the config file the loader resolved. onChange is
// called with the freshly loaded config; it is never called with a
// config that fails validation.
func NewWatcher(loader *Loader, onChange func(*Config)) (*Watcher, error) {
	path := loader.ConfigFile()
	if path == "" {
		// No file was used; nothing to watch.
		return &Watcher{loader: loader, onChange: onChange, stop: make(chan struct{})}, nil
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory rather than the file: atomic saves replace
	// the inode and a file watch would go stale after the first write.
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, err
	}

	w := &Watcher{
		loader:   loader,
		path:     path,
		onChange: onChange,
		fs:       fs,
		stop:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(250*time.Millisecond, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := w.loader.Load()
	if err != nil {
		// Keep running with the previous config; the next save may fix it.
		return
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()

	close(w.stop)
	if w.fs != nil {
		return w.fs.Close()
	}
	return nil
}
