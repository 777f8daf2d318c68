package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reports changes to the session file made by other processes, such as
// a logout from another terminal. The directory is watched so removal and
// re-creation of the file are both seen. The channel closes when ctx ends.
func Watch(ctx context.Context, path string, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("session.Watch: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		w.Close() //nolint:errcheck
		return nil, fmt.Errorf("session.Watch: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close() //nolint:errcheck
		return nil, fmt.Errorf("session.Watch: watch %s: %w", dir, err)
	}

	name := filepath.Clean(path)
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer w.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
					!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				// Coalesce bursts: one pending notification is enough.
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("session watcher error", "error", err)
			}
		}
	}()
	return out, nil
}
