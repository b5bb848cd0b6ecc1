// Package admission provides the in-process fast path for the
// one-vote-per-user-per-product-per-week rule.
//
// The guard is an optimization, not the authority: it short-circuits
// obvious duplicates (double-clicks, rapid resubmits) before a store
// roundtrip. The storage layer's uniqueness constraint remains the single
// source of truth for admission, so a guard miss is always safe.
package admission

import (
	"context"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/velure/glowrank/internal/domain/window"
)

// Default guard configuration.
const defaultMaxEntries = 100_000

// Guard tracks recent (user, product) vote pairs.
type Guard interface {
	// SeenAndRecord atomically checks whether the pair voted within the
	// window and records it if not. Returns true if already seen.
	SeenAndRecord(ctx context.Context, userID, productID string) bool

	// Unrecord forgets a pair so it can be retried. Used to roll back when
	// the store rejects or fails after the guard recorded the pair.
	Unrecord(ctx context.Context, userID, productID string)

	// Size returns the number of pairs currently tracked.
	Size() int
}

// lruGuard implements Guard with a bounded TTL cache. Entries expire on
// their own after the vote window, matching when the store would admit the
// pair again.
type lruGuard struct {
	cache *expirable.LRU[string, struct{}]
}

// Option applies a configuration option to the guard.
type Option func(*config)

type config struct {
	maxEntries int
	filter     *window.Filter
}

// WithMaxEntries bounds the number of tracked pairs. Eviction of a live
// entry only costs an extra store roundtrip, never a wrong admission.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithWindow aligns the guard's TTL with a custom validity window.
func WithWindow(f *window.Filter) Option {
	return func(c *config) {
		if f != nil {
			c.filter = f
		}
	}
}

// NewGuard creates a Guard whose entries live exactly one vote window.
func NewGuard(opts ...Option) Guard {
	cfg := &config{
		maxEntries: defaultMaxEntries,
		filter:     window.NewFilter(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &lruGuard{
		cache: expirable.NewLRU[string, struct{}](cfg.maxEntries, nil, cfg.filter.Window()),
	}
}

func (g *lruGuard) SeenAndRecord(_ context.Context, userID, productID string) bool {
	k := key(userID, productID)
	if _, ok := g.cache.Get(k); ok {
		return true
	}
	g.cache.Add(k, struct{}{})
	return false
}

func (g *lruGuard) Unrecord(_ context.Context, userID, productID string) {
	g.cache.Remove(key(userID, productID))
}

func (g *lruGuard) Size() int {
	return g.cache.Len()
}

func key(userID, productID string) string {
	return userID + "\x00" + productID
}
