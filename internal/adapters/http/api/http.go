// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	repository "github.com/velure/glowrank/internal/adapters/repository"
	service "github.com/velure/glowrank/internal/app"
	"github.com/velure/glowrank/internal/domain/model"
)

// Dependencies bundles the engine operations the handlers need. Handlers
// declare narrower per-handler interfaces; this is the full set a server
// implementation must satisfy.
type Dependencies interface {
	SubmitVote(ctx context.Context, userID, productID string) (model.Admission, error)
	RefreshScope(ctx context.Context, category, subcategory string) ([]model.RankedGroup, error)
	ToggleLike(ctx context.Context, userID, productID string, liked bool) (int, error)
	Reap(ctx context.Context) (int64, error)
}

// StatsProvider exposes service statistics for the stats endpoint.
type StatsProvider interface {
	GetStats() map[string]any
}

// Server wires HTTP routes for the engine API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	votesHandler    *VotesHandler
	likesHandler    *LikesHandler
	rankingsHandler *RankingsHandler
	reapHandler     *ReapHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		votesHandler:    NewVotesHandler(deps),
		likesHandler:    NewLikesHandler(deps),
		rankingsHandler: NewRankingsHandler(deps),
		reapHandler:     NewReapHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/votes", MetricsMiddleware(s.votesHandler.HandlePostVote, "votes"))
	mux.HandleFunc("/likes", MetricsMiddleware(s.likesHandler.HandlePostLike, "likes"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/maintenance/reap", MetricsMiddleware(s.reapHandler.HandlePostReap, "reap"))
}

// productEntry is the wire shape of one ranked product.
type productEntry struct {
	Rank   int     `json:"rank"`
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Votes  int     `json:"votes"`
	Rating float64 `json:"rating"`
	Likes  int     `json:"likes"`
	Score  float64 `json:"score"`
}

// rankedGroupResponse is one subcategory leaderboard.
type rankedGroupResponse struct {
	Subcategory string         `json:"subcategory"`
	ComputedAt  time.Time      `json:"computed_at"`
	Stale       bool           `json:"stale,omitempty"`
	Products    []productEntry `json:"products"`
}

func toGroupResponses(groups []model.RankedGroup) []rankedGroupResponse {
	out := make([]rankedGroupResponse, len(groups))
	for i, g := range groups {
		entries := make([]productEntry, len(g.Products))
		for j, p := range g.Products {
			entries[j] = productEntry{
				Rank:   p.Rank,
				ID:     p.ID,
				Name:   p.Name,
				Votes:  p.Votes,
				Rating: p.Rating,
				Likes:  p.Likes,
				Score:  p.Score,
			}
		}
		out[i] = rankedGroupResponse{
			Subcategory: g.Subcategory,
			ComputedAt:  g.ComputedAt,
			Stale:       g.Stale,
			Products:    entries,
		}
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeEngineError translates engine errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrInvalidScope), errors.Is(err, service.ErrEmptyIdentity):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrUpstreamFetch):
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
