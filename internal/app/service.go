// Package service wires the ranking engine together: vote admission, full
// scope recomputation and expired-vote reaping over the store contracts.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/velure/glowrank/internal/adapters/repository"
	"github.com/velure/glowrank/internal/domain/admission"
	"github.com/velure/glowrank/internal/domain/model"
	"github.com/velure/glowrank/internal/domain/ranking"
	"github.com/velure/glowrank/internal/domain/scoring"
	"github.com/velure/glowrank/internal/domain/window"
	"github.com/velure/glowrank/pkg/logger"
	"github.com/velure/glowrank/pkg/metrics"
)

// Default service configuration.
const (
	defaultSnapshotCacheSize = 256
	defaultGuardSize         = 100_000
)

// Service implements the engine operations. It holds no ranking state of
// its own beyond last-known snapshots; every refresh re-reads the store
// and recomputes from that one coherent snapshot.
type Service struct {
	catalog repository.CatalogStore
	votes   repository.VoteStore
	filter  *window.Filter
	calc    *scoring.Calculator
	guard   admission.Guard

	// flights collapses concurrent refreshes of the same scope into one
	// read-compute pass; every caller gets the same result.
	flights singleflight.Group

	// snapshots keeps the last successfully computed groups per scope so
	// a failed upstream fetch can fall back to last-known state.
	snapshots *lru.Cache[string, []model.RankedGroup]

	guardSize         int
	snapshotCacheSize int
	weights           [3]float64

	now func() time.Time
	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWindow sets the vote validity window.
func WithWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.filter = window.NewFilter(window.WithWindow(d))
		}
	}
}

// WithWeights sets the vote/rating/like score weights.
func WithWeights(vote, rating, like float64) Option {
	return func(s *Service) {
		s.weights = [3]float64{vote, rating, like}
	}
}

// WithGuardSize bounds the admission guard cache.
func WithGuardSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.guardSize = n
		}
	}
}

// WithSnapshotCacheSize bounds the last-known snapshot cache.
func WithSnapshotCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.snapshotCacheSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over the given stores.
func New(catalog repository.CatalogStore, votes repository.VoteStore, opts ...Option) (*Service, error) {
	s := &Service{
		catalog:           catalog,
		votes:             votes,
		filter:            window.NewFilter(),
		guardSize:         defaultGuardSize,
		snapshotCacheSize: defaultSnapshotCacheSize,
		weights:           [3]float64{-1, -1, -1}, // calculator defaults
		now:               func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("engine")
	}

	s.calc = scoring.NewCalculator(scoring.WithWeights(s.weights[0], s.weights[1], s.weights[2]))
	s.guard = admission.NewGuard(
		admission.WithMaxEntries(s.guardSize),
		admission.WithWindow(s.filter),
	)

	snapshots, err := lru.New[string, []model.RankedGroup](s.snapshotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	s.snapshots = snapshots
	return s, nil
}

// SubmitVote admits or rejects one vote for (userID, productID) at the
// current instant. On acceptance the reply carries the product's freshly
// recomputed vote count and score; the authoritative rank still comes from
// a full-scope refresh.
func (s *Service) SubmitVote(ctx context.Context, userID, productID string) (model.Admission, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(productID) == "" {
		return model.Admission{}, ErrEmptyIdentity
	}
	now := s.now()

	// Fast path: a pair that voted recently is rejected without touching
	// the store. The store's uniqueness constraint stays authoritative.
	if s.guard.SeenAndRecord(ctx, userID, productID) {
		metrics.RecordVoteDuplicate()
		return model.Admission{Accepted: false, Reason: model.ReasonDuplicate}, nil
	}

	rec := model.VoteRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: now,
	}
	err := s.votes.InsertVote(ctx, rec, s.filter.Cutoff(now))
	switch {
	case errors.Is(err, repository.ErrDuplicateVote):
		// The store knows the valid vote's true age; the entry the guard
		// just recorded would carry a fresh full-window TTL and outlive
		// it. Forget the pair so a revote after expiry reaches the store.
		s.guard.Unrecord(ctx, userID, productID)
		metrics.RecordVoteDuplicate()
		return model.Admission{Accepted: false, Reason: model.ReasonDuplicate}, nil
	case err != nil:
		// The vote was not persisted; let the pair retry.
		s.guard.Unrecord(ctx, userID, productID)
		metrics.RecordAdmissionError()
		return model.Admission{}, fmt.Errorf("persist vote: %w", err)
	}
	metrics.RecordVoteAdmitted()

	product, err := s.productMetrics(ctx, productID, now)
	if err != nil {
		// The vote is in; metrics for the reply are best effort.
		s.log.Warn(ctx, "vote admitted but metrics refresh failed",
			logger.String("productID", productID),
			logger.Error(err),
		)
		return model.Admission{Accepted: true, Product: model.Product{ID: productID}}, nil
	}
	return model.Admission{Accepted: true, Product: product}, nil
}

// RefreshScope re-derives the ranking for every product in the scope from
// one coherent store snapshot. It never patches a single product in place:
// one product's new score can move every sibling's rank.
//
// Concurrent calls for the same scope are collapsed into one computation.
// If the upstream fetch fails and a last-known snapshot exists, that
// snapshot is returned with Stale set; without one the error propagates.
func (s *Service) RefreshScope(ctx context.Context, category, subcategory string) ([]model.RankedGroup, error) {
	if strings.TrimSpace(category) == "" {
		return nil, repository.ErrInvalidScope
	}
	key := scopeKey(category, subcategory)

	v, err, _ := s.flights.Do(key, func() (any, error) {
		return s.refresh(ctx, model.Scope{Category: category, Subcategory: subcategory}, key)
	})
	if err != nil {
		return nil, err
	}
	groups, _ := v.([]model.RankedGroup)
	return groups, nil
}

func (s *Service) refresh(ctx context.Context, scope model.Scope, key string) ([]model.RankedGroup, error) {
	start := s.now()

	products, err := s.catalog.ProductsByScope(ctx, scope)
	if err != nil {
		return s.fallback(ctx, key, fmt.Errorf("%w: %v", ErrUpstreamFetch, err))
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	votesByProduct, err := s.votes.ValidVotes(ctx, ids, s.filter.Cutoff(start))
	if err != nil {
		return s.fallback(ctx, key, fmt.Errorf("%w: %v", ErrUpstreamFetch, err))
	}

	for i := range products {
		m := s.calc.ComputeProduct(products[i], votesByProduct[products[i].ID])
		products[i].Votes = m.VoteCount
		products[i].Score = m.Score
	}

	groups, malformed := ranking.Groups(products, start)
	for _, id := range malformed {
		metrics.RecordMalformedMetric()
		s.log.Warn(ctx, "product demoted for malformed metrics", logger.String("productID", id))
	}

	ranked := 0
	for _, g := range groups {
		for _, p := range g.Products {
			if p.Rank > 0 {
				ranked++
			}
		}
	}
	metrics.RecordScopeRefresh()
	metrics.RecordRefreshDuration(float64(s.now().Sub(start).Milliseconds()))
	metrics.UpdateProductsRanked(ranked)

	s.snapshots.Add(key, groups)
	return cloneGroups(groups), nil
}

// fallback serves the last-known snapshot for the scope, flagged stale,
// when the upstream fetch failed. Without a snapshot the error propagates;
// a half-fetched scope is never applied.
func (s *Service) fallback(ctx context.Context, key string, cause error) ([]model.RankedGroup, error) {
	metrics.RecordRefreshError()
	cached, ok := s.snapshots.Get(key)
	if !ok {
		return nil, cause
	}
	s.log.Warn(ctx, "serving last-known ranking after fetch failure",
		logger.String("scope", key),
		logger.Error(cause),
	)
	metrics.RecordStaleSnapshotServed()
	groups := cloneGroups(cached)
	for i := range groups {
		groups[i].Stale = true
	}
	return groups, nil
}

// ToggleLike sets the user's like state for a product through the catalog
// store and refreshes the product's scope so sibling ranks stay current.
func (s *Service) ToggleLike(ctx context.Context, userID, productID string, liked bool) (int, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(productID) == "" {
		return 0, ErrEmptyIdentity
	}
	likes, err := s.catalog.SetLike(ctx, userID, productID, liked)
	if err != nil {
		return 0, fmt.Errorf("set like: %w", err)
	}

	p, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		s.log.Warn(ctx, "product lookup after like failed",
			logger.String("productID", productID),
			logger.Error(err),
		)
		return likes, nil
	}
	if _, err := s.RefreshScope(ctx, p.Category, p.Subcategory); err != nil {
		s.log.Warn(ctx, "scope refresh after like failed",
			logger.String("productID", productID),
			logger.Error(err),
		)
	}
	return likes, nil
}

// Reap purges vote records that aged past the validity window. It is
// idempotent and safe to skip: the window filter already excludes expired
// votes from every score, so reaping is storage hygiene, not correctness.
func (s *Service) Reap(ctx context.Context) (int64, error) {
	start := s.now()
	purged, err := s.votes.DeleteExpired(ctx, s.filter.Cutoff(start))
	if err != nil {
		return 0, fmt.Errorf("reap expired votes: %w", err)
	}
	metrics.RecordReapRun()
	metrics.RecordVotesReaped(purged)
	metrics.RecordReapDuration(float64(s.now().Sub(start).Milliseconds()))
	s.log.Info(ctx, "reaped expired votes",
		logger.Int64("purged", purged),
		logger.Time("cutoff", s.filter.Cutoff(start)),
	)
	return purged, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	return map[string]any{
		"guardEntries":   s.guard.Size(),
		"cachedScopes":   s.snapshots.Len(),
		"voteWindow":     s.filter.Window().String(),
		"guardCapacity":  s.guardSize,
		"snapshotBounds": s.snapshotCacheSize,
	}
}

// productMetrics re-derives a single product's vote count and score for
// the admission reply.
func (s *Service) productMetrics(ctx context.Context, productID string, now time.Time) (model.Product, error) {
	p, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return model.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	votes, err := s.votes.ValidVotes(ctx, []string{productID}, s.filter.Cutoff(now))
	if err != nil {
		return model.Product{}, fmt.Errorf("fetch votes: %w", err)
	}
	m := s.calc.ComputeProduct(p, votes[productID])
	p.Votes = m.VoteCount
	p.Score = m.Score
	return p, nil
}

func scopeKey(category, subcategory string) string {
	return category + "\x00" + subcategory
}

// cloneGroups deep-copies groups so cached snapshots are never aliased by
// callers.
func cloneGroups(groups []model.RankedGroup) []model.RankedGroup {
	out := make([]model.RankedGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Products = append([]model.Product(nil), g.Products...)
	}
	return out
}
