package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/memkv/internal/telemetry/logger"
)

// RequestIDHeader carries the request ID set by the router middleware.
const RequestIDHeader = "X-Request-ID"

// Status reports server state to the admin endpoints.
type Status interface {
	// Ready returns nil when the server can serve requests.
	Ready() error
	// ActiveConnections returns the number of open RESP connections.
	ActiveConnections() int
	// Keys returns the number of stored keys.
	Keys() (int, error)
}

// Handler serves the admin endpoints other than /metrics.
type Handler struct {
	status Status
	logger logger.Logger
	mux    *http.ServeMux
}

// New creates a Handler reporting on status.
func New(status Status, l logger.Logger) *Handler {
	if l == nil {
		l = logger.Default()
	}
	h := &Handler{
		status: status,
		logger: l,
		mux:    http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /version", h.handleVersion)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.write(w, status, NewResponse(r.Header.Get(RequestIDHeader), data))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("X-Error-Code", code)
	h.write(w, status, NewErrorResponse(r.Header.Get(RequestIDHeader), code, message))
}

func (h *Handler) write(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
