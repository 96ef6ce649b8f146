// Package watch regenerates the index when source headers change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc handles one settled batch of changed paths.
type ChangeFunc func(ctx context.Context, changed []string) error

// Filter decides which files and directories a Watcher reacts to.
type Filter interface {
	Relevant(root, path string) bool
	Excluded(root, dir string) bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a batch is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter restricts the watcher to paths accepted by f.
func WithFilter(f Filter) Option {
	return func(w *Watcher) { w.filter = f }
}

// Watcher watches source roots recursively and calls onChange with every
// debounced batch of changes. A batch always triggers a full regeneration
// downstream; the paths are informational.
type Watcher struct {
	roots    []string
	onChange ChangeFunc
	debounce time.Duration
	filter   Filter
	ready    chan struct{}
}

// New returns a Watcher over roots.
func New(roots []string, onChange ChangeFunc, opts ...Option) *Watcher {
	w := &Watcher{
		roots:    roots,
		onChange: onChange,
		debounce: DefaultDebounce,
		ready:    make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Ready is closed once every root is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run blocks until ctx is cancelled. Errors returned by onChange are logged
// and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer fw.Close()

	for _, root := range w.roots {
		if err := w.addRecursive(fw, root, root); err != nil {
			return err
		}
	}
	close(w.ready)

	pending := map[string]bool{}
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.handle(fw, ev) {
				continue
			}
			pending[ev.Name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.Any("error", err))

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			slog.Info("sources changed", slog.Int("paths", len(changed)))
			if err := w.onChange(ctx, changed); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				slog.Error("regeneration failed", slog.Any("error", err))
			}
		}
	}
}

// handle reports whether ev should schedule a regeneration, adding newly
// created directories to the watch list.
func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	root := w.rootOf(ev.Name)
	if root == "" {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.filter != nil && w.filter.Excluded(root, ev.Name) {
				return false
			}
			if err := w.addRecursive(fw, root, ev.Name); err != nil {
				slog.Warn("cannot watch new directory", slog.String("dir", ev.Name), slog.Any("error", err))
			}
			// headers may have landed before the directory was watched
			return true
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if w.filter == nil {
		return true
	}
	return w.filter.Relevant(root, ev.Name)
}

func (w *Watcher) rootOf(path string) string {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !filepath.IsAbs(rel) && (len(rel) < 3 || rel[:3] != ".."+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		// single-file source: watch its directory, rootOf filters siblings
		return fw.Add(filepath.Dir(dir))
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("cannot watch %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if w.filter != nil && w.filter.Excluded(root, path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("cannot watch %s: %w", path, err)
		}
		slog.Debug("watching", slog.String("dir", path))
		return nil
	})
}
