package registry

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/errs"
)

// Watch reloads the mapping on file changes until ctx is cancelled. Editors
// often replace the file (rename + create), so the parent directory is
// watched and events are filtered by name. A failed reload keeps the previous
// view and is logged; the watcher stays alive.
func (r *Registry) Watch(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create projects watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return errs.Wrapf(err, "watch directory %q", dir)
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "registry.watch"), slog.String("file", r.path))
	logging.Info(logCtx, "watching projects file")

	target := filepath.Clean(r.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := r.Reload(); err != nil {
				logging.Error(logCtx, "projects reload failed, keeping previous mapping", slog.Any("err", errs.Loggable(err)))
				continue
			}
			logging.Info(logCtx, "projects mapping reloaded", slog.Int("projects", len(r.ProjectNames())))
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error(logCtx, "projects watcher error", slog.Any("err", errs.Loggable(watchErr)))
		}
	}
}
