package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/blockfmt/pkg/errors"
)

// watchDebounce is the quiet period after the last change before a rerun.
const watchDebounce = 200 * time.Millisecond

// watchFile calls fn whenever the file at path is written or replaced,
// until ctx is done. Rapid successive writes collapse into one call.
//
// The directory is watched rather than the file because editors commonly
// save by renaming a temporary file over the original.
func watchFile(ctx context.Context, path string, debounce time.Duration, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", path)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "watch %s", path)
	}

	logger := loggerFromContext(ctx)
	runs := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("change detected", "file", path, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case runs <- struct{}{}:
				default:
				}
			})

		case <-runs:
			fn()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "err", err)
		}
	}
}
