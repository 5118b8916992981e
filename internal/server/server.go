// Package server exposes the host API over HTTP and streams detection
// events over a websocket.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"dropsense/internal/errors"
	"dropsense/internal/log"
	"dropsense/internal/protocol"
	"dropsense/pkg/types"
)

// Host is the detection API the server exposes
type Host interface {
	CheckPermissions() bool
	StartDetection(ctx context.Context) types.Result
	StopDetection() types.Result
	IsDetectionActive() bool
	GetLastDetectedFile() *types.ClassificationResult
	Subscribe() (<-chan protocol.Event, func())
	Send(cmd protocol.Command) error
}

// Server is the HTTP surface of a host
type Server struct {
	httpServer *http.Server
}

// New creates a server listening on addr
func New(addr string, host Host) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: NewMux(host),
		},
	}
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	log.LogWithFields(log.F("address", s.httpServer.Addr)).Info("Starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewMux routes the host API
func NewMux(host Host) http.Handler {
	h := &handler{host: host}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /permissions", h.permissions)
	mux.HandleFunc("POST /detection/start", h.start)
	mux.HandleFunc("POST /detection/stop", h.stop)
	mux.HandleFunc("GET /detection/active", h.active)
	mux.HandleFunc("GET /detection/last", h.last)
	mux.HandleFunc("GET /events", h.events)
	return mux
}

type handler struct {
	host Host
}

func (h *handler) permissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.host.CheckPermissions())
}

func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.host.StartDetection(r.Context()))
}

func (h *handler) stop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.host.StopDetection())
}

func (h *handler) active(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.host.IsDetectionActive())
}

func (h *handler) last(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.host.GetLastDetectedFile())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.LogError(err, "failed to write response")
	}
}
