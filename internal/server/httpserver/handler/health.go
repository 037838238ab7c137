package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/memkv/internal/infra/buildinfo"
)

// handleHealth handles GET /health. The process is alive if it answers.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Status:      "healthy",
		Time:        time.Now().UTC().Format(time.RFC3339),
		Connections: h.status.ActiveConnections(),
	})
}

// handleReady handles GET /ready. A poisoned store makes the server unready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.status.Ready(); err != nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", err.Error())
		return
	}

	keys, err := h.status.Keys()
	if err != nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", err.Error())
		return
	}

	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Status:      "ready",
		Time:        time.Now().UTC().Format(time.RFC3339),
		Connections: h.status.ActiveConnections(),
		Keys:        keys,
	})
}

// handleVersion handles GET /version.
func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, buildinfo.Get())
}
