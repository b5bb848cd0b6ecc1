// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// ReapDependencies defines the interface for the maintenance trigger.
type ReapDependencies interface {
	Reap(ctx context.Context) (int64, error)
}

// ReapHandler handles manual reap triggers.
type ReapHandler struct {
	deps ReapDependencies
}

// NewReapHandler creates a new reap handler.
func NewReapHandler(deps ReapDependencies) *ReapHandler {
	return &ReapHandler{deps: deps}
}

type reapResponse struct {
	Purged int64 `json:"purged"`
}

// HandlePostReap handles POST /maintenance/reap requests.
func (h *ReapHandler) HandlePostReap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	purged, err := h.deps.Reap(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reapResponse{Purged: purged})
}
