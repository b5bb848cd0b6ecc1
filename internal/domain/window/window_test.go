package window_test

import (
	"testing"
	"time"

	"github.com/velure/glowrank/internal/domain/model"
	window "github.com/velure/glowrank/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFilterValid(t *testing.T) {
	Convey("Given a filter with the default seven-day window", t, func() {
		f := window.NewFilter()
		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

		Convey("When a vote is six days and twenty-three hours old", func() {
			v := model.VoteRecord{CreatedAt: now.Add(-(6*24 + 23) * time.Hour)}

			Convey("Then it counts", func() {
				So(f.Valid(v, now), ShouldBeTrue)
				So(f.Expired(v, now), ShouldBeFalse)
			})
		})

		Convey("When a vote is seven days and one hour old", func() {
			v := model.VoteRecord{CreatedAt: now.Add(-(7*24 + 1) * time.Hour)}

			Convey("Then it does not count", func() {
				So(f.Valid(v, now), ShouldBeFalse)
				So(f.Expired(v, now), ShouldBeTrue)
			})
		})

		Convey("When a vote is exactly seven days old", func() {
			v := model.VoteRecord{CreatedAt: now.Add(-7 * 24 * time.Hour)}

			Convey("Then it is expired, not valid", func() {
				So(f.Valid(v, now), ShouldBeFalse)
				So(f.Expired(v, now), ShouldBeTrue)
			})
		})

		Convey("When the vote was created in a different timezone", func() {
			loc := time.FixedZone("UTC+5", 5*3600)
			v := model.VoteRecord{CreatedAt: now.In(loc).Add(-time.Hour)}

			Convey("Then validity follows the absolute instant", func() {
				So(f.Valid(v, now), ShouldBeTrue)
			})
		})

		Convey("When computing the cutoff", func() {
			Convey("Then votes at the cutoff are expired and newer ones are valid", func() {
				cutoff := f.Cutoff(now)
				So(cutoff, ShouldEqual, now.Add(-7*24*time.Hour))
				So(f.Valid(model.VoteRecord{CreatedAt: cutoff}, now), ShouldBeFalse)
				So(f.Valid(model.VoteRecord{CreatedAt: cutoff.Add(time.Second)}, now), ShouldBeTrue)
			})
		})
	})
}

func TestFilterCountAndSplit(t *testing.T) {
	Convey("Given a mix of valid and expired votes", t, func() {
		f := window.NewFilter()
		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		votes := []model.VoteRecord{
			{ID: "a", CreatedAt: now.Add(-time.Hour)},
			{ID: "b", CreatedAt: now.Add(-8 * 24 * time.Hour)},
			{ID: "c", CreatedAt: now.Add(-6 * 24 * time.Hour)},
			{ID: "d", CreatedAt: now.Add(-7*24*time.Hour - time.Minute)},
		}

		Convey("When counting valid votes", func() {
			So(f.CountValid(votes, now), ShouldEqual, 2)
		})

		Convey("When splitting", func() {
			valid, expired := f.SplitValid(votes, now)

			Convey("Then partitions preserve order and cover every vote once", func() {
				So(len(valid), ShouldEqual, 2)
				So(len(expired), ShouldEqual, 2)
				So(valid[0].ID, ShouldEqual, "a")
				So(valid[1].ID, ShouldEqual, "c")
				So(expired[0].ID, ShouldEqual, "b")
				So(expired[1].ID, ShouldEqual, "d")
			})
		})
	})
}

func TestFilterCustomWindow(t *testing.T) {
	Convey("Given a filter with a one-hour window", t, func() {
		f := window.NewFilter(window.WithWindow(time.Hour))
		now := time.Now().UTC()

		Convey("Then the window applies instead of the default", func() {
			So(f.Window(), ShouldEqual, time.Hour)
			So(f.Valid(model.VoteRecord{CreatedAt: now.Add(-59 * time.Minute)}, now), ShouldBeTrue)
			So(f.Valid(model.VoteRecord{CreatedAt: now.Add(-61 * time.Minute)}, now), ShouldBeFalse)
		})

		Convey("And a non-positive override is ignored", func() {
			g := window.NewFilter(window.WithWindow(-time.Minute))
			So(g.Window(), ShouldEqual, window.DefaultWindow)
		})
	})
}
