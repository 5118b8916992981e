// Package bridge runs the helper process and turns its stdout into typed
// events for the host.
package bridge

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"dropsense/internal/config"
	"dropsense/internal/errors"
	"dropsense/internal/log"
	"dropsense/internal/protocol"
)

// DefaultBufferSize is the capacity of each subscriber channel
const DefaultBufferSize = 32

// Bridge owns at most one helper process at a time
type Bridge struct {
	command      string
	args         []string
	env          []string
	readyTimeout time.Duration
	bufferSize   int
	logger       *log.Logger

	mu        sync.Mutex
	current   *process
	listening bool
	subs      map[int]chan protocol.Event
	nextSub   int
}

// process is one spawned helper
type process struct {
	cmd *exec.Cmd

	stdinMu sync.Mutex
	stdin   io.WriteCloser

	ready     chan struct{}
	readyOnce sync.Once
	exited    chan struct{}
	exit      protocol.Exit
}

// Option configures a Bridge
type Option func(*Bridge)

// WithCommand replaces the configured helper command
func WithCommand(command string, args ...string) Option {
	return func(b *Bridge) {
		b.command = command
		b.args = args
	}
}

// WithEnv adds environment variables to the helper's inherited environment
func WithEnv(env ...string) Option {
	return func(b *Bridge) {
		b.env = append(b.env, env...)
	}
}

// WithReadyTimeout sets how long Start waits for the ready event
func WithReadyTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.readyTimeout = d
	}
}

// WithBufferSize sets the subscriber channel capacity
func WithBufferSize(n int) Option {
	return func(b *Bridge) {
		b.bufferSize = n
	}
}

// WithLogger sets the logger for helper diagnostics
func WithLogger(l *log.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// New creates a stopped bridge for the helper described by cfg
func New(cfg *config.Config, opts ...Option) *Bridge {
	b := &Bridge{
		command:      cfg.Helper.Command,
		args:         cfg.Helper.Args,
		readyTimeout: cfg.Helper.ReadyTimeout,
		bufferSize:   DefaultBufferSize,
		logger:       log.Default(),
		subs:         make(map[int]chan protocol.Event),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.readyTimeout <= 0 {
		b.readyTimeout = config.DefaultReadyTimeout
	}
	if b.bufferSize < 1 {
		b.bufferSize = 1
	}
	return b
}

// Start spawns the helper and returns once it reports ready or the ready
// timeout passes, whichever comes first. A running helper is stopped
// first. The process outlives ctx; only Stop ends it.
func (b *Bridge) Start(ctx context.Context) error {
	b.Stop()

	cmd := exec.Command(b.command, b.args...)
	if len(b.env) > 0 {
		cmd.Env = append(os.Environ(), b.env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.NewProcessError("failed to open helper stdout", b.command, errors.SubprocessSpawnFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.NewProcessError("failed to open helper stderr", b.command, errors.SubprocessSpawnFailed, err)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.NewProcessError("failed to open helper stdin", b.command, errors.SubprocessSpawnFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return errors.NewProcessError("failed to spawn helper", b.command, errors.SubprocessSpawnFailed, err)
	}

	p := &process{
		cmd:    cmd,
		stdin:  stdin,
		ready:  make(chan struct{}),
		exited: make(chan struct{}),
	}

	b.mu.Lock()
	b.current = p
	b.mu.Unlock()

	b.logger.With(log.F("command", b.command), log.F("pid", cmd.Process.Pid)).Info("Helper started")

	// Wait must not run before both pipes are drained.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.readEvents(p, stdout)
	}()
	go func() {
		defer wg.Done()
		b.readStderr(stderr)
	}()
	go func() {
		wg.Wait()
		b.wait(p)
	}()

	timer := time.NewTimer(b.readyTimeout)
	defer timer.Stop()

	select {
	case <-p.ready:
	case <-timer.C:
		b.logger.With(log.F("timeout", b.readyTimeout.String())).Warn("Helper did not report ready, continuing")
	case <-p.exited:
		return errors.NewProcessError("helper exited before ready", b.command, errors.SubprocessExited, nil).
			WithExit(p.exit.Code, p.exit.Signal)
	case <-ctx.Done():
		b.Stop()
		return ctx.Err()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-p.exited:
		return errors.NewProcessError("helper exited during startup", b.command, errors.SubprocessExited, nil).
			WithExit(p.exit.Code, p.exit.Signal)
	default:
	}
	if b.current == p {
		b.listening = true
	}
	return nil
}

// Stop kills the helper with SIGKILL and forgets it. It does not wait for
// the process to exit.
func (b *Bridge) Stop() {
	b.mu.Lock()
	p := b.current
	b.current = nil
	b.listening = false
	b.mu.Unlock()

	if p == nil {
		return
	}

	b.logger.With(log.F("pid", p.cmd.Process.Pid)).Info("Stopping helper")
	p.stdinMu.Lock()
	p.stdin.Close()
	p.stdinMu.Unlock()
	if err := p.cmd.Process.Kill(); err != nil {
		b.logger.With(log.F("error", err)).Debug("Kill failed, helper already gone")
	}
}

// IsListening reports whether a started helper is still running
func (b *Bridge) IsListening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

// Send writes a gesture command to the helper's stdin
func (b *Bridge) Send(cmd protocol.Command) error {
	b.mu.Lock()
	p := b.current
	b.mu.Unlock()
	if p == nil {
		return errors.ErrNotRunning
	}

	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to encode command")
	}
	data = append(data, '\n')

	p.stdinMu.Lock()
	defer p.stdinMu.Unlock()
	if _, err := p.stdin.Write(data); err != nil {
		return errors.NewProcessError("failed to write to helper", b.command, errors.SubprocessNotRunning, err)
	}
	return nil
}

// Subscribe returns a channel of helper events and a function that ends
// the subscription. Events arriving while the channel is full are dropped.
func (b *Bridge) Subscribe() (<-chan protocol.Event, func()) {
	ch := make(chan protocol.Event, b.bufferSize)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}

func (b *Bridge) publish(ev protocol.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.With(log.F("type", ev.Type())).Warn("Subscriber channel is full, dropped event")
		}
	}
}

func (b *Bridge) readEvents(p *process, stdout io.Reader) {
	err := protocol.NewReader(stdout).Each(func(ev protocol.Event) {
		switch e := ev.(type) {
		case protocol.Ready:
			p.readyOnce.Do(func() { close(p.ready) })
			return
		case protocol.Unknown:
			b.logger.With(log.F("type", e.Kind)).Debug("Ignoring unknown helper event")
			return
		case protocol.Log:
			b.logger.With(log.F("source", e.Source)).Debug(e.Message)
		}
		b.publish(ev)
	})
	if err != nil {
		b.logger.With(log.F("error", err)).Debug("Helper stdout closed")
	}
}

func (b *Bridge) readStderr(stderr io.Reader) {
	r := protocol.NewReader(stderr)
	for {
		line, err := r.ReadLine()
		if err != nil {
			return
		}
		b.logger.With(log.F("source", "helper_stderr")).Warn(string(line))
	}
}

// wait reaps the process and reports its exit to subscribers
func (b *Bridge) wait(p *process) {
	err := p.cmd.Wait()
	code, signal := exitStatus(p.cmd.ProcessState)
	p.exit = protocol.Exit{Code: code, Signal: signal}

	b.mu.Lock()
	unexpected := b.current == p
	if unexpected {
		b.current = nil
		b.listening = false
	}
	close(p.exited)
	b.mu.Unlock()

	entry := b.logger.With(log.F("code", code), log.F("signal", signal))
	if unexpected {
		pe := errors.NewProcessError("helper exited", b.command, errors.SubprocessExited, err).WithExit(code, signal)
		entry.With(log.F("error", pe.Error())).Warn("Helper exited unexpectedly")
	} else {
		entry.Info("Helper exited")
	}

	b.publish(p.exit)
}
