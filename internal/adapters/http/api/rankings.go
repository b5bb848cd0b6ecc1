// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/velure/glowrank/internal/domain/model"
)

// RankingDependencies defines the interface for leaderboard reads.
type RankingDependencies interface {
	RefreshScope(ctx context.Context, category, subcategory string) ([]model.RankedGroup, error)
}

// RankingsHandler handles leaderboard requests.
type RankingsHandler struct {
	deps RankingDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// HandleGetRankings handles GET /rankings?category=X&subcategory=Y
// requests. Every read recomputes the scope from current store state.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	subcategory := strings.TrimSpace(r.URL.Query().Get("subcategory"))

	groups, err := h.deps.RefreshScope(r.Context(), category, subcategory)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponses(groups))
}
