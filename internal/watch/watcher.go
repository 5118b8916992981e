// Package watch turns entries appearing in drop directories into drag
// gestures. It watches the top level of each directory only.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dropsense/internal/errors"
	"dropsense/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Drop is an entry that appeared in a watched directory
type Drop struct {
	Path      string
	Timestamp time.Time
}

// Watcher monitors drop directories for new entries using fsnotify
type Watcher struct {
	// Directories being watched
	directories []string

	// Channel to receive drops
	dropChan chan Drop

	// Channel to signal stop
	stopChan chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
	closed  bool
}

// New creates a new drop directory watcher
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	return &Watcher{
		directories: []string{},
		dropChan:    make(chan Drop, 10),
		stopChan:    make(chan struct{}),
		fsWatcher:   fsWatcher,
	}, nil
}

// AddDirectory adds a drop directory
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileError("drop directory does not exist", dir, errors.FileNotFound, err)
		}
		return errors.NewFileError("error accessing drop directory", dir, errors.InvalidPath, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("drop target is not a directory", dir, errors.InvalidPath, nil)
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		return errors.NewFileError("failed to watch directory", dir, errors.InvalidPath, err)
	}

	w.mutex.Lock()
	found := false
	for _, existing := range w.directories {
		if existing == dir {
			found = true
			break
		}
	}
	if !found {
		w.directories = append(w.directories, dir)
	}
	w.mutex.Unlock()

	log.LogWithFields(log.F("directory", dir)).Info("Watching drop directory")
	return nil
}

// Drops returns the channel that delivers new entries
func (w *Watcher) Drops() <-chan Drop {
	return w.dropChan
}

// Start begins the event loop. A stopped Watcher cannot be started again.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return errors.New("watcher already running")
	}
	if w.closed {
		w.mutex.Unlock()
		return errors.New("watcher is closed")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	stop := w.stopChan
	w.mutex.Unlock()

	go w.loop(stop)

	log.Debug("Drop watcher started")
	return nil
}

func (w *Watcher) loop(stop <-chan struct{}) {
	defer close(w.dropChan)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// Only new entries count as drops; writes to existing files do not.
			if !event.Op.Has(fsnotify.Create) {
				continue
			}
			if hidden(event.Name) {
				continue
			}
			// The entry may be gone already (editor temp files, quick moves).
			if _, err := os.Lstat(event.Name); err != nil {
				if !os.IsNotExist(err) {
					log.LogWithFields(log.F("path", event.Name), log.F("error", err)).Warn("Error stating dropped entry")
				}
				continue
			}

			drop := Drop{Path: event.Name, Timestamp: time.Now()}
			select {
			case w.dropChan <- drop:
			case <-stop:
				return
			default:
				log.LogWithFields(log.F("path", event.Name)).Warn("Drop channel is full, dropped event")
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

		case <-stop:
			return
		}
	}
}

// Stop halts the watcher for good. The drop channel is closed once the
// event loop has exited; a watcher that never started just releases its
// fsnotify handle.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithError(err).Error("Error closing fsnotify watcher")
	}

	log.Debug("Drop watcher stopped")
}

// IsRunning returns whether the watcher is active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// GetDirectories returns the watched directories
func (w *Watcher) GetDirectories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirsCopy := make([]string, len(w.directories))
	copy(dirsCopy, w.directories)
	return dirsCopy
}

// hidden reports dot entries such as .DS_Store and partial downloads
func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
