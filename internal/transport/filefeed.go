package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"airtracker/panel/internal/logging"
)

// FileFeed re-reads a JSON document whenever it changes on disk. It stands in for the
// broker when replaying captured telemetry.
type FileFeed struct {
	path     string
	inbox    *Inbox
	debounce time.Duration
}

func NewFileFeed(path string, inbox *Inbox) *FileFeed {
	return &FileFeed{path: filepath.Clean(path), inbox: inbox, debounce: 100 * time.Millisecond}
}

// Run delivers the current file, then every rewrite of it, until ctx is done.
// The parent directory is watched so that editors replacing the file by rename are seen.
func (f *FileFeed) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logging.Info("File feed watching", "path", f.path)

	f.deliver()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			logging.Info("File feed stopping", "path", f.path)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Coalesce the burst of events a single save produces.
			pending = time.After(f.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("File feed watcher error", "error", err)

		case <-pending:
			pending = nil
			f.deliver()
		}
	}
}

func (f *FileFeed) deliver() {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		logging.Warn("File feed read failed", "path", f.path, "error", err)
		return
	}
	if len(data) == 0 {
		return
	}
	f.inbox.Put(Message{Source: "file", Topic: f.path, Payload: data, Received: time.Now()})
}
