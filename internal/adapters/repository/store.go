// Package repository defines the catalog and vote store contracts plus an
// in-memory implementation.
//
// The engine never mutates likes, ratings or existing votes in place: the
// only write paths are InsertVote, SetLike and DeleteExpired. Rank is never
// stored anywhere; it is recomputed from these reads on demand.
package repository

import (
	"context"
	"time"

	"github.com/velure/glowrank/internal/domain/model"
)

// CatalogStore reads product state owned by the external catalog system.
type CatalogStore interface {
	// ProductsByScope returns every product in the scope. Derived fields
	// (Votes, Rank, Score) are zero; the engine fills them in.
	// An empty Subcategory matches all subcategories of the category.
	ProductsByScope(ctx context.Context, scope model.Scope) ([]model.Product, error)

	// ProductByID returns a single product. Returns ErrNotFound if the id
	// is unknown.
	ProductByID(ctx context.Context, id string) (model.Product, error)

	// SetLike sets a user's like state for a product and returns the
	// resulting like count. Setting an already-set state is a no-op.
	SetLike(ctx context.Context, userID, productID string, liked bool) (int, error)
}

// VoteStore persists vote records.
type VoteStore interface {
	// InsertVote persists v unless the same (user, product) pair already
	// holds a vote created after validSince. The check and the insert are
	// one atomic admission decision; the loser of a concurrent race gets
	// ErrDuplicateVote, never a partial write.
	InsertVote(ctx context.Context, v model.VoteRecord, validSince time.Time) error

	// ValidVotes returns, per product id, the votes created after cutoff.
	ValidVotes(ctx context.Context, productIDs []string, cutoff time.Time) (map[string][]model.VoteRecord, error)

	// DeleteExpired removes votes created at or before cutoff and returns
	// how many were purged. Idempotent.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store bundles both contracts for implementations that back the whole
// engine, such as the in-memory store and the Postgres store.
type Store interface {
	CatalogStore
	VoteStore
}
