package scoring_test

import (
	"math"
	"testing"
	"time"

	"github.com/velure/glowrank/internal/domain/model"
	scoring "github.com/velure/glowrank/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalculatorCompute(t *testing.T) {
	Convey("Given a calculator with default weights", t, func() {
		calc := scoring.NewCalculator()

		Convey("When computing from votes, rating and likes", func() {
			m := calc.Compute(5, 4, 10)

			Convey("Then the score blends votes*3 + rating*2 + likes*1", func() {
				So(m.VoteCount, ShouldEqual, 5)
				So(m.Score, ShouldEqual, 5*3+4*2+10*1)
			})
		})

		Convey("When every input is zero", func() {
			m := calc.Compute(0, 0, 0)

			Convey("Then the score is zero", func() {
				So(m.VoteCount, ShouldEqual, 0)
				So(m.Score, ShouldEqual, 0)
			})
		})

		Convey("When only likes are nonzero", func() {
			m := calc.Compute(0, 0, 1)

			Convey("Then the score still reflects it", func() {
				So(m.Score, ShouldEqual, 1)
			})
		})

		Convey("When the rating is NaN", func() {
			m := calc.Compute(2, math.NaN(), 3)

			Convey("Then the rating defaults to zero", func() {
				So(m.Score, ShouldEqual, 2*3+3)
			})
		})

		Convey("When the rating is infinite", func() {
			m := calc.Compute(1, math.Inf(1), 0)

			Convey("Then the rating defaults to zero", func() {
				So(m.Score, ShouldEqual, 3)
			})
		})

		Convey("When inputs are negative", func() {
			m := calc.Compute(-4, -2.5, -7)

			Convey("Then everything clamps to zero", func() {
				So(m.VoteCount, ShouldEqual, 0)
				So(m.Score, ShouldEqual, 0)
			})
		})
	})
}

func TestCalculatorComputeProduct(t *testing.T) {
	Convey("Given a product and its valid votes", t, func() {
		calc := scoring.NewCalculator()
		now := time.Now().UTC()
		p := model.Product{ID: "p1", Rating: 4.5, Likes: 8}
		votes := []model.VoteRecord{
			{ID: "v1", ProductID: "p1", CreatedAt: now.Add(-time.Hour)},
			{ID: "v2", ProductID: "p1", CreatedAt: now.Add(-2 * time.Hour)},
			{ID: "v3", ProductID: "p1", CreatedAt: now.Add(-3 * time.Hour)},
		}

		Convey("When computing product metrics", func() {
			m := calc.ComputeProduct(p, votes)

			Convey("Then the vote count is the number of valid votes", func() {
				So(m.VoteCount, ShouldEqual, 3)
				So(m.Score, ShouldEqual, 3*3+4.5*2+8*1)
			})
		})
	})
}

func TestHasSignal(t *testing.T) {
	Convey("Given products with and without metrics", t, func() {
		Convey("Then any nonzero metric counts as signal", func() {
			So(scoring.HasSignal(model.Product{}), ShouldBeFalse)
			So(scoring.HasSignal(model.Product{Likes: 1}), ShouldBeTrue)
			So(scoring.HasSignal(model.Product{Rating: 3.5}), ShouldBeTrue)
			So(scoring.HasSignal(model.Product{Votes: 2, Score: 6}), ShouldBeTrue)
		})
	})
}

func TestCalculatorCustomWeights(t *testing.T) {
	Convey("Given a calculator with custom weights", t, func() {
		calc := scoring.NewCalculator(scoring.WithWeights(10, 0, 1))

		Convey("Then the custom blend applies", func() {
			m := calc.Compute(2, 5, 4)
			So(m.Score, ShouldEqual, 2*10+4*1)
		})

		Convey("And negative weight overrides are ignored", func() {
			c := scoring.NewCalculator(scoring.WithWeights(-1, -1, -1))
			m := c.Compute(1, 1, 1)
			So(m.Score, ShouldEqual, 1*3+1*2+1*1)
		})
	})
}
