// Package helper is the detection process the host spawns. It reads
// gesture commands on stdin, runs them through a drag gate and writes
// protocol events on stdout.
package helper

import (
	"context"
	"io"
	"sync"

	"dropsense/internal/classify"
	"dropsense/internal/config"
	"dropsense/internal/gate"
	"dropsense/internal/log"
	"dropsense/internal/protocol"
	"dropsense/internal/watch"
	"dropsense/pkg/types"
)

// Messages reported when the detection surface changes
const (
	MessageSurfaceShown  = "detection surface expanded"
	MessageSurfaceHidden = "detection surface collapsed"
)

// Helper owns the gate for one helper process
type Helper struct {
	cfg    *config.Config
	out    *protocol.Writer
	env    *shimEnvironment
	region *gate.DesktopRegion
	gate   *gate.Gate

	source    *watch.Source
	pending   []watch.Drop
	replaying bool
}

// New builds a helper writing events to out
func New(cfg *config.Config, out io.Writer) *Helper {
	h := &Helper{
		cfg: cfg,
		out: protocol.NewWriter(out),
		env: &shimEnvironment{},
	}
	h.region = &gate.DesktopRegion{
		Screen:     cfg.ScreenRect(),
		Env:        h.env,
		BundleIDs:  cfg.Surface.FileManagerBundleIDs,
		OwnerNames: cfg.Surface.FileManagerOwners,
	}
	h.gate = gate.New(h.region, &logSurface{h: h}, h.emitGesture)
	return h
}

// Run emits ready, then dispatches commands from in until EOF or until ctx
// is done.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg *config.Config) error {
	return New(cfg, out).Run(ctx, in)
}

// Run is the helper's main loop
func (h *Helper) Run(ctx context.Context, in io.Reader) error {
	if err := h.out.Write(protocol.Ready{}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Drop directory entries are read by this loop, like stdin commands,
	// so only one goroutine ever drives the gate.
	var drops <-chan watch.Drop
	if dirs := h.cfg.WatchDirectories(); len(dirs) > 0 {
		src, err := watch.NewSource(dirs)
		if err == nil {
			err = src.Start()
		}
		if err != nil {
			h.report("drop directories unavailable: " + err.Error())
		} else {
			h.source = src
			drops = src.Drops()
			defer src.Stop()
		}
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		r := protocol.NewReader(in)
		for {
			line, err := r.ReadLine()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err == io.EOF {
				return nil
			}
			return err
		case line := <-lines:
			h.handle(line)
		case drop, ok := <-drops:
			if !ok {
				drops = nil
				continue
			}
			h.pending = append(h.pending, drop)
		}
		h.flushDrops()
	}
}

// flushDrops replays queued drop directory entries once no gesture is in
// progress. Entries left behind by a gesture that was just classified are
// discarded.
func (h *Helper) flushDrops() {
	if len(h.pending) == 0 || h.gate.State() != gate.Idle {
		return
	}
	drops := h.pending
	h.pending = nil

	for _, drop := range drops {
		logger := log.LogWithFields(log.F("path", drop.Path))
		if h.source.Echo(drop) {
			logger.Debug("Drop directory entry matches the last gesture, skipped")
			continue
		}
		h.replaying = true
		accepted := watch.Replay(h.gate, h.region.Anchor(), drop.Path)
		h.replaying = false
		if !accepted {
			logger.Warn("Drop was not accepted by the gate")
		}
	}
}

// handle dispatches one command line
func (h *Helper) handle(line []byte) {
	cmd, err := protocol.DecodeCommand(line)
	if err != nil {
		h.report(err.Error())
		return
	}

	switch cmd.Type {
	case protocol.CommandPointerDown:
		h.env.update(cmd.Frontmost, cmd.Windows)
		h.gate.OnPointerDown(cmd.Point())
	case protocol.CommandDrop:
		if !h.gate.OnDrop(cmd.Payload()) {
			log.Debugf("drop ignored in state %s", h.gate.State())
		}
	case protocol.CommandDragEntered:
		h.gate.OnDragEntered(cmd.Payload())
	case protocol.CommandPointerUp:
		h.gate.OnPointerUp()
	case protocol.CommandClassify:
		if cmd.Path == "" {
			h.report("classify command without path")
			return
		}
		h.emitFile(classify.Classify(cmd.Path))
	default:
		h.report("unknown command: " + cmd.Type)
	}
}

// Gate exposes the helper's drag gate
func (h *Helper) Gate() *gate.Gate {
	return h.gate
}

// emitGesture is the gate's emitter
func (h *Helper) emitGesture(result types.ClassificationResult) {
	if h.source != nil && !h.replaying {
		h.source.NoteGesture(result.FilePath)
	}
	h.emitFile(result)
}

func (h *Helper) emitFile(result types.ClassificationResult) {
	if err := h.out.Write(protocol.FileDetected{Result: result}); err != nil {
		log.LogError(err, "failed to write file event")
	}
}

// report sends a diagnostic to the host and mirrors it to the local log
func (h *Helper) report(msg string) {
	log.LogWithFields(log.F("source", protocol.TypeHelperLog)).Warn(msg)
	if err := h.out.Write(protocol.Log{Source: protocol.TypeHelperLog, Message: msg}); err != nil {
		log.LogError(err, "failed to write log event")
	}
}

// logSurface has nothing to draw. It tells the host when it would be
// shown or hidden.
type logSurface struct {
	h *Helper

	mu    sync.Mutex
	shown bool
}

func (s *logSurface) Show() { s.set(true, MessageSurfaceShown) }
func (s *logSurface) Hide() { s.set(false, MessageSurfaceHidden) }

func (s *logSurface) set(shown bool, msg string) {
	s.mu.Lock()
	changed := s.shown != shown
	s.shown = shown
	s.mu.Unlock()

	if !changed {
		return
	}
	if err := s.h.out.Write(protocol.Log{Source: protocol.TypeHelperLog, Message: msg}); err != nil {
		log.LogError(err, "failed to write log event")
	}
}

// shimEnvironment holds the windowing state last reported by the shim
type shimEnvironment struct {
	mu        sync.RWMutex
	frontmost string
	windows   []gate.WindowInfo
}

func (e *shimEnvironment) update(frontmost string, windows []gate.WindowInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frontmost = frontmost
	e.windows = windows
}

func (e *shimEnvironment) FrontmostBundleID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frontmost
}

func (e *shimEnvironment) Windows() []gate.WindowInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.windows
}
