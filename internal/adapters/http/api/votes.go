// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/velure/glowrank/internal/domain/model"
)

// VoteDependencies defines the interface for vote admission.
type VoteDependencies interface {
	SubmitVote(ctx context.Context, userID, productID string) (model.Admission, error)
}

// VotesHandler handles vote submissions.
type VotesHandler struct {
	deps VoteDependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps VoteDependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

// voteRequest is the body of POST /votes.
type voteRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

func (v voteRequest) validate() error {
	switch {
	case strings.TrimSpace(v.UserID) == "":
		return NewKind("api.post_vote", ErrBadRequest)
	case strings.TrimSpace(v.ProductID) == "":
		return NewKind("api.post_vote", ErrBadRequest)
	}
	return nil
}

// voteResponse acknowledges an admission decision with the product's
// freshly recomputed metrics.
type voteResponse struct {
	Accepted bool          `json:"accepted"`
	Reason   string        `json:"reason,omitempty"`
	Product  *productEntry `json:"product,omitempty"`
}

// HandlePostVote handles POST /votes requests.
func (h *VotesHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vote"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	adm, err := h.deps.SubmitVote(r.Context(), req.UserID, req.ProductID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !adm.Accepted {
		// An expected user-facing state, not a system failure.
		writeJSON(w, http.StatusConflict, voteResponse{Accepted: false, Reason: adm.Reason})
		return
	}
	p := adm.Product
	writeJSON(w, http.StatusCreated, voteResponse{
		Accepted: true,
		Product: &productEntry{
			Rank:   p.Rank,
			ID:     p.ID,
			Name:   p.Name,
			Votes:  p.Votes,
			Rating: p.Rating,
			Likes:  p.Likes,
			Score:  p.Score,
		},
	})
}
