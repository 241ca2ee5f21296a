// Package live implements the livehtml/livetest targets: a recursive
// filesystem watcher around debounced builder reruns, and a preview
// server with SSE reload, status, report, and metrics endpoints.
package live

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	dmerrors "git.home.luguber.info/inful/docmake/internal/errors"
)

// Watcher wraps fsnotify with recursive directory registration and the
// configured ignore patterns.
type Watcher struct {
	fsw    *fsnotify.Watcher
	roots  []string
	ignore []string
}

// NewWatcher creates a watcher over the given root paths.
func NewWatcher(roots, ignore []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, dmerrors.WatchError("", err)
	}

	w := &Watcher{fsw: fsw, ignore: ignore}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			_ = fsw.Close()
			return nil, dmerrors.WatchError(root, err)
		}
		if st, statErr := os.Stat(abs); statErr != nil || !st.IsDir() {
			_ = fsw.Close()
			return nil, dmerrors.WatchError(root, statErr)
		}
		w.roots = append(w.roots, abs)
		if err := w.addDirsRecursive(abs); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Events exposes the underlying filesystem event channel.
func (w *Watcher) Events() <-chan fsnotify.Event { return w.fsw.Events }

// Errors exposes the underlying watcher error channel.
func (w *Watcher) Errors() <-chan error { return w.fsw.Errors }

// Close releases the underlying watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }

// HandleEvent reports whether an event should trigger a rebuild, and
// registers newly created directories for further watching.
func (w *Watcher) HandleEvent(ev fsnotify.Event) bool {
	if w.Ignored(ev.Name) {
		return false
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", "path", ev.Name, "op", ev.Op.String())
	return true
}

// Ignored reports whether a path matches any ignore pattern. Patterns
// containing a slash match against the path relative to a watch root;
// others match against the base name. Ancestor directories are checked
// too, so "_build/*" suppresses everything under _build.
func (w *Watcher) Ignored(name string) bool {
	base := filepath.Base(name)
	rel := w.relToRoot(name)

	for _, pattern := range w.ignore {
		if strings.ContainsRune(pattern, '/') {
			if matchPathOrAncestor(pattern, rel) {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		// A slashless pattern may still name a directory anywhere in
		// the path, e.g. "*.ipynb_checkpoints*".
		for _, segment := range strings.Split(rel, "/") {
			if ok, _ := path.Match(pattern, segment); ok {
				return true
			}
		}
	}
	return false
}

// relToRoot returns name relative to the first containing watch root,
// slash-separated; paths outside every root are returned as-is.
func (w *Watcher) relToRoot(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		return filepath.ToSlash(name)
	}
	for _, root := range w.roots {
		if rel, err := filepath.Rel(root, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(name)
}

// matchPathOrAncestor matches the pattern against the path and each of
// its leading sub-paths.
func matchPathOrAncestor(pattern, rel string) bool {
	if ok, _ := path.Match(pattern, rel); ok {
		return true
	}
	segments := strings.Split(rel, "/")
	for i := 1; i < len(segments); i++ {
		prefix := strings.Join(segments[:i], "/")
		if ok, _ := path.Match(pattern, prefix); ok {
			return true
		}
		if ok, _ := path.Match(pattern, prefix+"/"+segments[i]); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.Ignored(p) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			slog.Warn("watch add failed", "dir", p, "error", err)
		}
		return nil
	})
}
