package bridge

import (
	"context"
	"sync"

	"dropsense/internal/errors"
	"dropsense/internal/log"
	"dropsense/internal/protocol"
	"dropsense/pkg/types"
)

// PermissionChecker reports whether the platform lets the helper observe
// global pointer events
type PermissionChecker interface {
	CheckPermissions() bool
}

// PermissionFunc adapts a function to PermissionChecker
type PermissionFunc func() bool

// CheckPermissions calls f
func (f PermissionFunc) CheckPermissions() bool { return f() }

// SelectionProvider reads the text currently selected in the frontmost app
type SelectionProvider interface {
	Selection(ctx context.Context) (types.Selection, error)
}

// SelectionFunc adapts a function to SelectionProvider
type SelectionFunc func(ctx context.Context) (types.Selection, error)

// Selection calls f
func (f SelectionFunc) Selection(ctx context.Context) (types.Selection, error) { return f(ctx) }

// AlwaysGranted is the default permission checker
var AlwaysGranted = PermissionFunc(func() bool { return true })

// NoSelection is the default selection provider
var NoSelection = SelectionFunc(func(context.Context) (types.Selection, error) {
	return types.Selection{}, errors.Wrap(errors.ErrUnsupported, "text selection")
})

// Host is the application-facing API over a Bridge
type Host struct {
	bridge    *Bridge
	perms     PermissionChecker
	selection SelectionProvider

	mu   sync.RWMutex
	last *types.ClassificationResult

	cancel func()
	done   chan struct{}
}

// HostOption configures a Host
type HostOption func(*Host)

// WithPermissionChecker replaces the default permission checker
func WithPermissionChecker(p PermissionChecker) HostOption {
	return func(h *Host) {
		h.perms = p
	}
}

// WithSelectionProvider replaces the default selection provider
func WithSelectionProvider(s SelectionProvider) HostOption {
	return func(h *Host) {
		h.selection = s
	}
}

// NewHost wraps b. Close releases the host's subscription.
func NewHost(b *Bridge, opts ...HostOption) *Host {
	h := &Host{
		bridge:    b,
		perms:     AlwaysGranted,
		selection: NoSelection,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	events, cancel := b.Subscribe()
	h.cancel = cancel
	go h.track(events)
	return h
}

// track remembers the most recent file event
func (h *Host) track(events <-chan protocol.Event) {
	defer close(h.done)
	for ev := range events {
		file, ok := ev.(protocol.FileDetected)
		if !ok {
			continue
		}
		result := file.Result
		h.mu.Lock()
		h.last = &result
		h.mu.Unlock()
	}
}

// CheckPermissions reports whether detection is permitted
func (h *Host) CheckPermissions() bool {
	return h.perms.CheckPermissions()
}

// StartDetection starts the helper
func (h *Host) StartDetection(ctx context.Context) types.Result {
	if err := h.bridge.Start(ctx); err != nil {
		log.LogWithError(err).Error("Failed to start detection")
		return types.Failed(err)
	}
	return types.OK()
}

// StopDetection stops the helper. Stopping an idle host succeeds.
func (h *Host) StopDetection() types.Result {
	h.bridge.Stop()
	return types.OK()
}

// GetLastDetectedFile returns the most recent classification, or nil
func (h *Host) GetLastDetectedFile() *types.ClassificationResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return nil
	}
	result := *h.last
	return &result
}

// IsDetectionActive reports whether the helper is running
func (h *Host) IsDetectionActive() bool {
	return h.bridge.IsListening()
}

// GetSelection returns the current text selection
func (h *Host) GetSelection(ctx context.Context) (types.Selection, error) {
	return h.selection.Selection(ctx)
}

// Subscribe forwards to the bridge
func (h *Host) Subscribe() (<-chan protocol.Event, func()) {
	return h.bridge.Subscribe()
}

// Send forwards a gesture command to the helper
func (h *Host) Send(cmd protocol.Command) error {
	return h.bridge.Send(cmd)
}

// Close stops the helper and releases the host
func (h *Host) Close() {
	h.bridge.Stop()
	h.cancel()
	<-h.done
}
