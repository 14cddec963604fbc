package workspace

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Change is a filesystem change to a source file.
type Change struct {
	Path    string
	Removed bool
}

// Watcher watches a project tree and emits debounced batches of source changes.
type Watcher struct {
	root     string
	debounce time.Duration
	accept   func(path string) bool
	log      zerolog.Logger
	fsw      *fsnotify.Watcher
}

// NewWatcher watches every directory under root except hidden ones.
// accept filters the files that are reported; nil accepts every file.
func NewWatcher(root string, debounce time.Duration, accept func(string) bool, logger *zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if accept == nil {
		accept = func(string) bool { return true }
	}
	w := &Watcher{
		root:     root,
		debounce: debounce,
		accept:   accept,
		log:      zerolog.Nop(),
		fsw:      fsw,
	}
	if logger != nil {
		w.log = logger.With().Str("component", "watch").Logger()
	}
	if err := w.addDirs(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run forwards batches to out until ctx is done. Paths in a batch are sorted and unique;
// the last operation on a path decides whether it is reported as removed.
func (w *Watcher) Run(ctx context.Context, out chan<- []Change) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				w.maybeAddDir(ev.Name)
			}
			if !w.relevant(ev) {
				continue
			}
			pending[ev.Name] = ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("fsnotify error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]Change, 0, len(pending))
			for p, removed := range pending {
				batch = append(batch, Change{Path: p, Removed: removed})
			}
			slices.SortFunc(batch, func(a, b Change) int { return strings.Compare(a.Path, b.Path) })
			pending = make(map[string]bool)

			select {
			case out <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.accept(ev.Name)
}

func (w *Watcher) maybeAddDir(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.log.Debug().Err(err).Str("path", path).Msg("not watching")
	}
}

// Watch re-indexes the project rooted at root as its sources change, until ctx is done.
// Removed files are forgotten; their importers are rebuilt.
func (ix *Indexer) Watch(ctx context.Context, root string, debounce time.Duration, onBatch func([]Result)) error {
	w, err := NewWatcher(root, debounce, func(p string) bool { return ix.Accepts(root, p) }, &ix.log)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	batches := make(chan []Change, 1)
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx, batches) }()

	for {
		select {
		case err := <-errc:
			return err
		case batch := <-batches:
			results, err := ix.apply(ctx, batch)
			if err != nil {
				return err
			}
			if onBatch != nil {
				onBatch(results)
			}
		}
	}
}

func (ix *Indexer) apply(ctx context.Context, batch []Change) ([]Result, error) {
	var changed []string
	var results []Result
	for _, c := range batch {
		if !c.Removed {
			changed = append(changed, c.Path)
			continue
		}
		res, err := ix.Forget(ctx, c.Path)
		if err != nil {
			return nil, err
		}
		results = append(results, res...)
	}
	res, err := ix.Reindex(ctx, changed...)
	if err != nil {
		return nil, err
	}
	return append(results, res...), nil
}
