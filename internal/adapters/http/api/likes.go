// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// LikeDependencies defines the interface for like toggling.
type LikeDependencies interface {
	ToggleLike(ctx context.Context, userID, productID string, liked bool) (int, error)
}

// LikesHandler handles like toggles.
type LikesHandler struct {
	deps LikeDependencies
}

// NewLikesHandler creates a new likes handler.
func NewLikesHandler(deps LikeDependencies) *LikesHandler {
	return &LikesHandler{deps: deps}
}

// likeRequest is the body of POST /likes.
type likeRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Liked     bool   `json:"liked"`
}

type likeResponse struct {
	ProductID string `json:"product_id"`
	Likes     int    `json:"likes"`
}

// HandlePostLike handles POST /likes requests.
func (h *LikesHandler) HandlePostLike(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_like"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.ProductID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	likes, err := h.deps.ToggleLike(r.Context(), req.UserID, req.ProductID, req.Liked)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{ProductID: req.ProductID, Likes: likes})
}
