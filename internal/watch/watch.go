// Package watch reloads the dataset store when the source ride file changes
// on disk, so a long-running server picks up exports without a restart.
package watch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/NdanyuzweGentil/cycling-dashboard/internal/dataset"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/logging"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/store"
)

// Watcher reloads one ride file into the store on filesystem changes.
type Watcher struct {
	path    string
	store   *store.Store
	mapping dataset.Mapping
}

// New creates a watcher for path. mapping carries the same column overrides
// the initial load used, so reloads canonicalize identically.
func New(path string, st *store.Store, mapping dataset.Mapping) *Watcher {
	return &Watcher{path: path, store: st, mapping: mapping}
}

// Run blocks watching the file until ctx is canceled. The parent directory
// is watched rather than the file itself: editors and exporters typically
// replace the file, which would otherwise orphan the watch. A reload that
// fails to parse keeps the previous dataset.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	target, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return err
	}

	logging.Info("watching data file", "file", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || name != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watch error", "error", err.Error())
		}
	}
}

func (w *Watcher) reload() {
	t, err := dataset.LoadFile(w.path, w.mapping)
	if err != nil {
		logging.Warn("reload failed, keeping previous dataset", "file", w.path, "error", err.Error())
		return
	}
	t = dataset.Expand(t)
	w.store.Replace(t)
	logging.Info("dataset reloaded", "file", w.path, "records", t.NumRows())
}
