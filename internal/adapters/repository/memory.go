package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/velure/glowrank/internal/domain/model"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and local
// development; production deployments use the postgres implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]model.Product
	// votes per (userID, productID); the compare-and-set in InsertVote
	// keeps at most one record per pair alive within the window.
	votes map[voteKey]model.VoteRecord
	likes map[voteKey]bool
}

type voteKey struct {
	userID    string
	productID string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]model.Product),
		votes:    make(map[voteKey]model.VoteRecord),
		likes:    make(map[voteKey]bool),
	}
}

// PutProduct inserts or replaces a catalog product. Derived fields are
// cleared so reads always start from raw state.
func (s *MemoryStore) PutProduct(p model.Product) {
	p.Votes = 0
	p.Rank = 0
	p.Score = 0
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SetRating replaces a product's externally maintained average rating.
func (s *MemoryStore) SetRating(productID string, rating float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.Rating = rating
		s.products[productID] = p
	}
}

func (s *MemoryStore) ProductsByScope(_ context.Context, scope model.Scope) ([]model.Product, error) {
	if scope.Category == "" {
		return nil, ErrInvalidScope
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Product
	for _, p := range s.products {
		if p.Category != scope.Category {
			continue
		}
		if scope.Subcategory != "" && p.Subcategory != scope.Subcategory {
			continue
		}
		out = append(out, p)
	}
	// Stable read order keeps refreshes deterministic for a fixed state.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ProductByID(_ context.Context, id string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) SetLike(_ context.Context, userID, productID string, liked bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return 0, ErrNotFound
	}
	k := voteKey{userID: userID, productID: productID}
	switch {
	case liked && !s.likes[k]:
		s.likes[k] = true
		p.Likes++
	case !liked && s.likes[k]:
		delete(s.likes, k)
		if p.Likes > 0 {
			p.Likes--
		}
	}
	s.products[productID] = p
	return p.Likes, nil
}

func (s *MemoryStore) InsertVote(_ context.Context, v model.VoteRecord, validSince time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[v.ProductID]; !ok {
		return ErrNotFound
	}
	k := voteKey{userID: v.UserID, productID: v.ProductID}
	if prior, ok := s.votes[k]; ok && prior.CreatedAt.After(validSince) {
		return ErrDuplicateVote
	}
	// Any prior record here is expired; replacing it doubles as reaping.
	s.votes[k] = v
	return nil
}

func (s *MemoryStore) ValidVotes(_ context.Context, productIDs []string, cutoff time.Time) (map[string][]model.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	out := make(map[string][]model.VoteRecord)
	for _, v := range s.votes {
		if !wanted[v.ProductID] || !v.CreatedAt.After(cutoff) {
			continue
		}
		out[v.ProductID] = append(out[v.ProductID], v)
	}
	for id := range out {
		votes := out[id]
		sort.Slice(votes, func(i, j int) bool { return votes[i].ID < votes[j].ID })
		out[id] = votes
	}
	return out, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for k, v := range s.votes {
		if !v.CreatedAt.After(cutoff) {
			delete(s.votes, k)
			purged++
		}
	}
	return purged, nil
}

// VoteCount returns the total number of stored vote records, expired ones
// included. Test helper.
func (s *MemoryStore) VoteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.votes)
}
