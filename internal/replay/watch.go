package replay

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

// WatchDebounce is the default quiet period after the last write before a reload.
const WatchDebounce = 75 * time.Millisecond

// Watch reloads the recording at path whenever it changes and passes the
// result to onChange, until ctx is done. Editors often replace a file rather
// than write it in place, so the parent directory is watched and events are
// filtered by name. Bursts of events within debounce produce one reload; a
// debounce of zero or less uses WatchDebounce.
func Watch(ctx context.Context, lgr logr.Logger, path string, debounce time.Duration, onChange func(*Recording, error)) error {
	if debounce <= 0 {
		debounce = WatchDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		defer w.Close()
		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				timer.Reset(debounce)
			case <-timer.C:
				rec, err := Load(abs)
				if err != nil {
					lgr.V(1).Info("recording reload failed", "path", abs, "error", err)
				} else {
					lgr.V(1).Info("recording reloaded", "path", abs, "pauses", len(rec.Pauses))
				}
				onChange(rec, err)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				lgr.Error(err, "watch error", "path", abs)
			}
		}
	}()
	return nil
}
