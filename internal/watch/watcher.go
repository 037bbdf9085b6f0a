// Package watch rebuilds a site when its inputs change or on a schedule.
//
// A Watcher turns fsnotify events under the theme, public and storage paths
// into debounced triggers; a Scheduler adds periodic triggers. Both feed a
// Runner, which serialises builds through a single goroutine.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultDebounce is the quiet window after the last change before a rebuild fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors files and directory trees and reports debounced changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	trigger  func(reason string)

	roots  []string            // directory trees watched recursively
	files  map[string][]string // parent dir -> watched file base names
	ignore []string

	readyOnce sync.Once
	ready     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet window. Non-positive values keep the default.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore skips events at or below the given paths (the staging directory, typically).
func WithIgnore(paths ...string) WatcherOption {
	return func(w *Watcher) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.ignore = append(w.ignore, abs)
			}
		}
	}
}

// NewWatcher creates a watcher over paths. Directories are watched
// recursively; a file is watched through its parent directory and also
// matches siblings sharing its name as prefix (SQLite -wal and -journal files).
// Paths that do not exist are skipped.
func NewWatcher(paths []string, trigger func(reason string), opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		debounce: DefaultDebounce,
		trigger:  trigger,
		files:    make(map[string][]string),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to resolve watch path %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			slog.Warn("Skipping missing watch path", logfields.Path(abs))
			continue
		}
		if info.IsDir() {
			w.roots = append(w.roots, abs)
			continue
		}
		dir := filepath.Dir(abs)
		w.files[dir] = append(w.files[dir], filepath.Base(abs))
	}
	return w, nil
}

// Ready is closed once Run has registered every watch.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run registers the watches and delivers debounced triggers until ctx is
// done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	for dir := range w.files {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.readyOnce.Do(func() { close(w.ready) })
	slog.Info("Watching for changes", slog.Int("trees", len(w.roots)), slog.Int("files", len(w.files)))

	var (
		timer  *time.Timer
		fire   <-chan time.Time
		reason string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			reason = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.trigger(reason)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod || w.ignored(event.Name) {
		return false
	}
	for _, root := range w.roots {
		if within(root, event.Name) {
			return true
		}
	}
	base := filepath.Base(event.Name)
	for _, name := range w.files[filepath.Dir(event.Name)] {
		if strings.HasPrefix(base, name) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	for _, p := range w.ignore {
		if within(p, path) {
			return true
		}
	}
	return false
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
