// Package ranking orders products within a subcategory and assigns dense
// ranks.
//
// Ordering: score DESC, then vote count DESC, rating DESC, likes DESC and
// finally name ASC, so output is deterministic even with fully identical
// metrics. Products without any metric keep rank 0 and their original
// relative order; they are appended after the ranked list. A product with
// a non-finite score is demoted to the unranked partition instead of
// failing the batch.
package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/velure/glowrank/internal/domain/model"
	"github.com/velure/glowrank/internal/domain/scoring"
)

// Outcome is the result of ranking one subcategory scope.
type Outcome struct {
	Products  []model.Product
	Ranked    int      // products that received a rank > 0
	Malformed []string // product ids demoted for non-finite metrics
}

// Rank sorts one subcategory's products and assigns dense ranks 1..N.
// Every input product appears in the output exactly once; the input slice
// is not modified.
func Rank(products []model.Product) Outcome {
	withMetrics := make([]model.Product, 0, len(products))
	noMetrics := make([]model.Product, 0)
	var malformed []string

	for _, p := range products {
		switch {
		case !finite(p):
			malformed = append(malformed, p.ID)
			p.Score = 0
			p.Rank = 0
			noMetrics = append(noMetrics, p)
		case scoring.HasSignal(p):
			withMetrics = append(withMetrics, p)
		default:
			p.Rank = 0
			noMetrics = append(noMetrics, p)
		}
	}

	sort.Slice(withMetrics, func(i, j int) bool {
		return less(withMetrics[i], withMetrics[j])
	})
	for i := range withMetrics {
		withMetrics[i].Rank = i + 1
	}

	out := append(withMetrics, noMetrics...)
	return Outcome{Products: out, Ranked: len(withMetrics), Malformed: malformed}
}

// Groups partitions products by subcategory, ranks each scope and returns
// the groups ordered by subcategory name for deterministic output.
func Groups(products []model.Product, computedAt time.Time) ([]model.RankedGroup, []string) {
	bySub := make(map[string][]model.Product)
	var order []string
	for _, p := range products {
		if _, seen := bySub[p.Subcategory]; !seen {
			order = append(order, p.Subcategory)
		}
		bySub[p.Subcategory] = append(bySub[p.Subcategory], p)
	}
	sort.Strings(order)

	groups := make([]model.RankedGroup, 0, len(order))
	var malformed []string
	for _, sub := range order {
		outcome := Rank(bySub[sub])
		malformed = append(malformed, outcome.Malformed...)
		groups = append(groups, model.RankedGroup{
			Subcategory: sub,
			Products:    outcome.Products,
			ComputedAt:  computedAt,
		})
	}
	return groups, malformed
}

// less orders a before b in the leaderboard.
func less(a, b model.Product) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Votes != b.Votes {
		return a.Votes > b.Votes
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if a.Likes != b.Likes {
		return a.Likes > b.Likes
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	// Names are expected to be unique within a scope; fall back to id so
	// the order is total even when they are not.
	return a.ID < b.ID
}

// finite reports whether the product's float metrics are usable.
func finite(p model.Product) bool {
	return !math.IsNaN(p.Score) && !math.IsInf(p.Score, 0) &&
		!math.IsNaN(p.Rating) && !math.IsInf(p.Rating, 0)
}
