// Package gate decides when a drag gesture should be classified.
//
// A Gate arms on pointer-down over a recognized surface, classifies the
// first resolvable drop exactly once, and resets on pointer-up. A plain
// click never produces a classification.
package gate

import (
	"sync"

	"dropsense/internal/classify"
	"dropsense/internal/log"
	"dropsense/pkg/types"
)

// State is the gate's position within a gesture
type State int

const (
	// Idle waits for a pointer-down on a recognized surface
	Idle State = iota
	// Armed waits for a drop or pointer-up
	Armed
	// Done has emitted its classification for this gesture
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Classifier turns a path into a classification
type Classifier interface {
	Classify(path string) types.ClassificationResult
}

// Emitter receives one classification per gesture
type Emitter func(types.ClassificationResult)

// Gate is the drag gesture state machine. One instance lives for the
// whole desktop session; the host owns it.
type Gate struct {
	mu    sync.Mutex
	state State

	region     Region
	surface    Surface
	emit       Emitter
	classifier Classifier
	parsers    []PayloadParser
	logger     *log.Logger
}

// Option configures a Gate
type Option func(*Gate)

// WithClassifier replaces the default path classifier
func WithClassifier(c Classifier) Option {
	return func(g *Gate) {
		g.classifier = c
	}
}

// WithParsers replaces the payload fallback chain
func WithParsers(parsers ...PayloadParser) Option {
	return func(g *Gate) {
		g.parsers = parsers
	}
}

// WithLogger sets the logger used for gesture diagnostics
func WithLogger(l *log.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

// New creates an idle gate. A nil surface is treated as NopSurface.
func New(region Region, surface Surface, emit Emitter, opts ...Option) *Gate {
	if surface == nil {
		surface = NopSurface{}
	}
	g := &Gate{
		state:      Idle,
		region:     region,
		surface:    surface,
		emit:       emit,
		classifier: classify.New(),
		parsers:    DefaultParsers,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current gesture state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// OnPointerDown arms the gate when p is on a recognized surface and
// reports whether it did. Outside the surface the gate does not change.
func (g *Gate) OnPointerDown(p types.Point) bool {
	if !g.region.Contains(p) {
		g.logger.With(log.F("x", p.X), log.F("y", p.Y)).Debug("pointer down outside recognized surface")
		return false
	}

	g.mu.Lock()
	g.state = Armed
	g.mu.Unlock()

	g.surface.Show()
	g.logger.With(log.F("x", p.X), log.F("y", p.Y)).Debug("pointer down on recognized surface, gate armed")
	return true
}

// OnDrop classifies the first resolvable path of the payload. It returns
// true when the gesture has a classification, including one emitted by an
// earlier drop of the same gesture. An unresolvable payload leaves the gate
// armed.
func (g *Gate) OnDrop(p Payload) bool {
	g.mu.Lock()
	switch g.state {
	case Idle:
		g.mu.Unlock()
		return false
	case Done:
		g.mu.Unlock()
		return true
	}

	path, err := ResolvePath(p, g.parsers)
	if err != nil {
		g.mu.Unlock()
		g.logger.With(log.F("error", err.Error())).Debug("drop ignored, gate stays armed")
		return false
	}
	g.state = Done
	g.mu.Unlock()

	result := g.classifier.Classify(path)
	g.logger.With(log.F("path", path), log.F("extension", result.FileExtension)).Info("drop classified")
	if g.emit != nil {
		g.emit(result)
	}
	g.surface.Hide()
	return true
}

// OnDragEntered treats a drag entering the surface like a drop
func (g *Gate) OnDragEntered(p Payload) bool {
	return g.OnDrop(p)
}

// OnPointerUp hides the surface and resets the gate, whatever its state
func (g *Gate) OnPointerUp() {
	g.mu.Lock()
	g.state = Idle
	g.mu.Unlock()

	g.surface.Hide()
}
