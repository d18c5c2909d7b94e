// Package watch signals changes to an append log file.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// FileWatcher reports writes to a single file. Bursts of events collapse into
// one pending notification.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	path      string
	changes   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewFileWatcher watches path. The parent directory is watched so the file
// may be created after the watcher starts.
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		path:    abs,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	fw.wg.Add(1)
	go fw.processEvents()
	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			select {
			case fw.changes <- struct{}{}:
			default:
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue running
			util.LogError("File monitoring error", util.F("path", fw.path), util.F("error", err))

		case <-fw.done:
			return
		}
	}
}

// Changes delivers a value after the file was written.
func (fw *FileWatcher) Changes() <-chan struct{} {
	return fw.changes
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string {
	return fw.path
}

// Close stops watching.
func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
		fw.wg.Wait()
	})
	return err
}
