// Package watcher hot-reloads on-disk configuration such as the skills
// directory and the classifier prompt file.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"jarvis/internal/logging"
)

// DefaultDebounce collapses bursts of events from editors and copy tools
const DefaultDebounce = 500 * time.Millisecond

type target struct {
	name   string
	path   string // cleaned absolute path
	isDir  bool
	reload func()

	timer *time.Timer
}

// Watcher calls a reload callback when a watched file or directory changes
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	logger    *logging.Logger

	mu      sync.Mutex
	targets []*target
	closed  bool
}

// NewWatcher creates a watcher. A zero debounce uses DefaultDebounce.
func NewWatcher(debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.WithContext("error", err.Error()).Error("failed to create fsnotify watcher")
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{fsWatcher: fsw, debounce: debounce, logger: logger}, nil
}

// WatchDir calls reload when anything under dir (one level of
// subdirectories deep) is created, written, renamed or removed.
func (w *Watcher) WatchDir(name, dir string, reload func()) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", abs)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", abs)
	}

	if err := w.fsWatcher.Add(abs); err != nil {
		return fmt.Errorf("failed to watch %s: %w", abs, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", abs, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addQuiet(filepath.Join(abs, e.Name()))
		}
	}

	w.register(&target{name: name, path: abs, isDir: true, reload: reload})
	return nil
}

// WatchFile calls reload when path changes. The parent directory is watched
// so that editors which replace the file by rename are still seen.
func (w *Watcher) WatchFile(name, path string, reload func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := w.fsWatcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	w.register(&target{name: name, path: abs, reload: reload})
	return nil
}

func (w *Watcher) register(t *target) {
	w.mu.Lock()
	w.targets = append(w.targets, t)
	w.mu.Unlock()
	w.logger.WithFields(map[string]interface{}{"target": t.name, "path": t.path}).Debug("watching")
}

func (w *Watcher) addQuiet(dir string) {
	if err := w.fsWatcher.Add(dir); err != nil {
		w.logger.WithFields(map[string]interface{}{"path": dir, "error": err.Error()}).Warn("failed to watch subdirectory")
	}
}

// Start runs the event loop until ctx is done
func (w *Watcher) Start(ctx context.Context) {
	go w.eventLoop(ctx)
}

// Close stops the watcher and pending reloads
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.targets {
		if t.timer != nil {
			t.timer.Stop()
		}
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Close()
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
			w.logger.WithContext("error", err.Error()).Error("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	for _, t := range w.targets {
		if !t.matches(path) {
			continue
		}
		// New skill directories need their own watch to see skill.json edits.
		if t.isDir && event.Op&fsnotify.Create != 0 && filepath.Dir(path) == t.path {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.addQuiet(path)
			}
		}
		w.logger.WithFields(map[string]interface{}{
			"target":     t.name,
			"file_path":  path,
			"event_type": event.Op.String(),
		}).Debug("change detected")
		w.schedule(t)
	}
}

func (t *target) matches(path string) bool {
	if !t.isDir {
		return path == t.path
	}
	return path == t.path || strings.HasPrefix(path, t.path+string(filepath.Separator))
}

// schedule must be called with w.mu held
func (w *Watcher) schedule(t *target) {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		w.logger.WithContext("target", t.name).Info("reloading after change")
		t.reload()
	})
}
