// Package watch notices when the video file is rewritten.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fosdem/quadplayer/lib/log"
	"github.com/jhenstridge/go-inotify"
)

// settle is how long to wait after a write before reacting, writers often
// close and reopen a file several times
const settle = 100 * time.Millisecond

// the directory is watched, not the file: editors and mv replace the inode
const mask = inotify.IN_CLOSE_WRITE | inotify.IN_MOVED_TO

// OnChange calls fn from a background goroutine every time path is closed
// after writing or replaced by a rename, until ctx is done.
func OnChange(ctx context.Context, path string, fn func()) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("could not watch %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("could not watch %s: is a directory", path)
	}

	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}

	watcher, err := inotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create inotify watcher: %w", err)
	}

	_, err = watcher.AddWatch(dir, mask)
	if err != nil {
		_ = watcher.Close()
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}

	l := log.Module("watch").With("path", path)

	go func() {
		<-ctx.Done()
		// read errors surface here
		if err := watcher.Close(); err != nil {
			l.Warn("inotify watcher failed", "error", err)
		}
	}()

	go func() {
		var pending <-chan time.Time
		for {
			select {
			case ev, ok := <-watcher.Event:
				if !ok {
					return
				}
				if ev.Name == name && ev.Mask&mask != 0 {
					pending = time.After(settle)
				}
			case <-pending:
				pending = nil
				l.Info("file changed")
				fn()
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
