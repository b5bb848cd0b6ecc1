// Package model contains domain models passed between layers.
package model

import "time"

// Product represents one catalog product competing for rank within its
// subcategory. Rating and Likes are maintained by the external catalog;
// Votes and Rank are derived by the engine on every ranking read and are
// never persisted as authoritative state.
type Product struct {
	ID          string
	Name        string
	Category    string
	Subcategory string
	Rating      float64 // externally maintained average, 0 if absent
	Likes       int     // externally maintained counter
	Votes       int     // derived: currently valid vote count
	Rank        int     // derived: position within subcategory, 0 = unranked
	Score       float64 // derived: weighted blend of votes, rating and likes
}

// VoteRecord is one persisted vote. A vote stops counting seven days after
// CreatedAt regardless of whether the reaper has physically removed it.
type VoteRecord struct {
	ID        string
	UserID    string
	ProductID string
	CreatedAt time.Time
}

// Scope is the (category, subcategory) boundary within which products
// compete for rank. An empty Subcategory means every subcategory of the
// category.
type Scope struct {
	Category    string
	Subcategory string
}

// RankedGroup is one subcategory's product list, sorted and annotated with
// ranks. It is recomputed on demand and has no independent lifecycle.
// Stale is set when the group was served from a last-known snapshot after
// an upstream fetch failure.
type RankedGroup struct {
	Subcategory string
	Products    []Product
	ComputedAt  time.Time
	Stale       bool
}

// Admission is the outcome of a vote submission. Metrics carries the
// product's freshly recomputed vote count and score so callers can update
// a display without a second round trip; the authoritative rank still
// comes from a full-scope refresh.
type Admission struct {
	Accepted bool
	Reason   string
	Product  Product
}

// ReasonDuplicate rejects a second vote for the same product while a valid
// one from the same user exists.
const ReasonDuplicate = "duplicate"
