// Package watch reports Swift files that change under a directory tree.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/sourceisview/siv/internal/exclude"
	"github.com/sourceisview/siv/internal/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before reporting.
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc receives the changed files of one settled burst, sorted.
type ChangeFunc func(paths []string)

// Watcher watches a directory tree. fsnotify is not recursive, so every
// directory is added on its own, including ones created later.
type Watcher struct {
	root       string
	extensions map[string]bool
	matcher    *exclude.Matcher
	watcher    *fsnotify.Watcher
	onChange   ChangeFunc
	debounce   time.Duration
	log        *zap.Logger

	// pending is only touched by the Run goroutine
	pending map[string]bool
}

// New creates a watcher for root. Files are reported when their extension
// is in extensions and matcher does not exclude them.
func New(root string, extensions []string, matcher *exclude.Matcher, onChange ChangeFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	w := &Watcher{
		root:       root,
		extensions: exts,
		matcher:    matcher,
		watcher:    fsw,
		onChange:   onChange,
		debounce:   DefaultDebounce,
		log:        logger.Named("watch"),
		pending:    make(map[string]bool),
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// SetDebounce changes the settle period. Call it before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// addTree watches dir and every directory below it that is not excluded.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			rel, _ := filepath.Rel(w.root, path)
			if exclude.SkipDir(d.Name()) || w.matcher.ExcludedDir(rel) || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

// Run processes events until ctx is done, then closes the watcher.
// onChange runs on the calling goroutine, so batches never overlap and none
// is delivered after Run returns. Events that arrive during a slow callback
// are collected into the next batch.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	// settle is nil while nothing is pending
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				settle = time.After(w.debounce)
			}

		case <-settle:
			settle = nil
			w.flush()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// handle records a relevant event and reports whether one was recorded.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("failed to watch new directory", zap.String(logger.FieldFile, event.Name), zap.Error(err))
			}
			return false
		}
	}

	if !w.extensions[strings.ToLower(filepath.Ext(event.Name))] {
		return false
	}
	if rel, err := filepath.Rel(w.root, event.Name); err == nil && w.matcher.Excluded(rel) {
		return false
	}

	w.log.Debug("change detected", zap.String(logger.FieldFile, event.Name), zap.String("op", event.Op.String()))
	w.pending[event.Name] = true
	return true
}

// flush hands the pending set to onChange and starts a new one.
func (w *Watcher) flush() {
	if len(w.pending) == 0 {
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)

	sort.Strings(paths)
	w.onChange(paths)
}
