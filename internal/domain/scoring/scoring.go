// Package scoring derives a product's numeric score from its valid votes,
// rating and likes.
//
// Votes are the strongest trust signal and carry the highest weight,
// followed by rating, then likes. The calculator never propagates corrupt
// input into ranks: negative values are clamped to zero and non-finite
// ratings are treated as absent.
package scoring

import (
	"math"

	"github.com/velure/glowrank/internal/domain/model"
)

// Default weights for the score blend.
const (
	defaultVoteWeight   = 3.0
	defaultRatingWeight = 2.0
	defaultLikeWeight   = 1.0
)

// Metrics holds the derived per-product numbers used for ranking.
type Metrics struct {
	VoteCount int
	Score     float64
}

// HasSignal reports whether the product carries any nonzero metric. A
// product without signal stays unranked. Every raw field is checked
// rather than just the score, so zero weights cannot hide a metric.
func HasSignal(p model.Product) bool {
	return p.Score > 0 || p.Votes > 0 || p.Rating > 0 || p.Likes > 0
}

// Calculator computes Metrics from raw inputs.
type Calculator struct {
	voteWeight   float64
	ratingWeight float64
	likeWeight   float64
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithWeights overrides the vote/rating/like weights. Negative weights are
// ignored field by field.
func WithWeights(vote, rating, like float64) Option {
	return func(c *Calculator) {
		if vote >= 0 {
			c.voteWeight = vote
		}
		if rating >= 0 {
			c.ratingWeight = rating
		}
		if like >= 0 {
			c.likeWeight = like
		}
	}
}

// NewCalculator creates a Calculator with the default 3/2/1 weights.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		voteWeight:   defaultVoteWeight,
		ratingWeight: defaultRatingWeight,
		likeWeight:   defaultLikeWeight,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute derives Metrics for a product given its valid vote count, rating
// and likes. Upstream should never produce negatives or NaN, but the
// calculator sanitizes anyway so one corrupt record cannot poison a
// subcategory's ranking.
func (c *Calculator) Compute(voteCount int, rating float64, likes int) Metrics {
	if voteCount < 0 {
		voteCount = 0
	}
	rating = sanitize(rating)
	if likes < 0 {
		likes = 0
	}

	score := float64(voteCount)*c.voteWeight + rating*c.ratingWeight + float64(likes)*c.likeWeight
	return Metrics{VoteCount: voteCount, Score: score}
}

// ComputeProduct derives Metrics for a product from its valid votes.
func (c *Calculator) ComputeProduct(p model.Product, validVotes []model.VoteRecord) Metrics {
	return c.Compute(len(validVotes), p.Rating, p.Likes)
}

// sanitize maps NaN, infinities and negatives to zero.
func sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}
