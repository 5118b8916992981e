package watch

import (
	"path/filepath"
	"sync"
	"time"

	"dropsense/internal/gate"
	"dropsense/pkg/types"
)

// DefaultEchoWindow is how long a gesture drop suppresses a same-named
// entry appearing in a drop directory
const DefaultEchoWindow = 5 * time.Second

// Gesturer is the part of the drag gate a drop source drives
type Gesturer interface {
	OnPointerDown(p types.Point) bool
	OnDrop(p gate.Payload) bool
	OnPointerUp()
}

// Replay runs one full gesture for path: pointer-down at anchor, a drop
// carrying path in the legacy filename list, then pointer-up. It reports
// whether the drop was accepted.
func Replay(g Gesturer, anchor types.Point, path string) bool {
	defer g.OnPointerUp()

	if !g.OnPointerDown(anchor) {
		return false
	}
	return g.OnDrop(gate.Payload{Filenames: []string{path}})
}

// Source delivers entries appearing in drop directories. It never drives a
// gate itself: the owner of the gate reads Drops from its own event loop
// and replays them there.
type Source struct {
	watcher *Watcher
	window  time.Duration
	now     func() time.Time

	mu     sync.Mutex
	recent map[string]time.Time
}

// NewSource watches dirs. The watcher is not started until Start.
func NewSource(dirs []string) (*Source, error) {
	w, err := New()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.AddDirectory(dir); err != nil {
			w.Stop()
			return nil, err
		}
	}
	return &Source{
		watcher: w,
		window:  DefaultEchoWindow,
		now:     time.Now,
		recent:  make(map[string]time.Time),
	}, nil
}

// Start begins watching
func (s *Source) Start() error {
	return s.watcher.Start()
}

// Stop ends watching and closes Drops
func (s *Source) Stop() {
	s.watcher.Stop()
}

// Drops returns new entries in the watched directories
func (s *Source) Drops() <-chan Drop {
	return s.watcher.Drops()
}

// Directories returns the watched drop directories
func (s *Source) Directories() []string {
	return s.watcher.GetDirectories()
}

// NoteGesture records a path classified by a real drag gesture. Dropping
// a file onto the desktop also creates it in the desktop directory; that
// copy is reported as an echo instead of a second drop.
func (s *Source) NoteGesture(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for name, at := range s.recent {
		if now.Sub(at) > s.window {
			delete(s.recent, name)
		}
	}
	s.recent[filepath.Base(path)] = now
}

// Echo reports whether d is the copy left behind by a recent gesture.
// Each noted gesture absorbs at most one echo.
func (s *Source) Echo(d Drop) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := filepath.Base(d.Path)
	at, ok := s.recent[name]
	if !ok {
		return false
	}
	delete(s.recent, name)
	return s.now().Sub(at) <= s.window
}
