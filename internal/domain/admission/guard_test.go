package admission_test

import (
	"context"
	"testing"
	"time"

	admission "github.com/velure/glowrank/internal/domain/admission"
	"github.com/velure/glowrank/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGuardSeenAndRecord(t *testing.T) {
	Convey("Given a fresh guard", t, func() {
		ctx := context.Background()
		g := admission.NewGuard()

		Convey("When a pair votes for the first time", func() {
			seen := g.SeenAndRecord(ctx, "u1", "p1")

			Convey("Then it is newly recorded", func() {
				So(seen, ShouldBeFalse)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And a second submit of the same pair is seen", func() {
				So(g.SeenAndRecord(ctx, "u1", "p1"), ShouldBeTrue)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And a different product from the same user is not", func() {
				So(g.SeenAndRecord(ctx, "u1", "p2"), ShouldBeFalse)
			})

			Convey("And the same product from a different user is not", func() {
				So(g.SeenAndRecord(ctx, "u2", "p1"), ShouldBeFalse)
			})
		})
	})
}

func TestGuardUnrecord(t *testing.T) {
	Convey("Given a guard with a recorded pair", t, func() {
		ctx := context.Background()
		g := admission.NewGuard()
		So(g.SeenAndRecord(ctx, "u1", "p1"), ShouldBeFalse)

		Convey("When the pair is unrecorded after a failed persist", func() {
			g.Unrecord(ctx, "u1", "p1")

			Convey("Then the pair may retry", func() {
				So(g.Size(), ShouldEqual, 0)
				So(g.SeenAndRecord(ctx, "u1", "p1"), ShouldBeFalse)
			})
		})
	})
}

func TestGuardExpiry(t *testing.T) {
	Convey("Given a guard with a very short window", t, func() {
		ctx := context.Background()
		g := admission.NewGuard(
			admission.WithWindow(window.NewFilter(window.WithWindow(20 * time.Millisecond))),
		)
		So(g.SeenAndRecord(ctx, "u1", "p1"), ShouldBeFalse)

		Convey("When the window elapses", func() {
			time.Sleep(50 * time.Millisecond)

			Convey("Then the pair may vote again", func() {
				So(g.SeenAndRecord(ctx, "u1", "p1"), ShouldBeFalse)
			})
		})
	})
}

func TestGuardBounded(t *testing.T) {
	Convey("Given a guard bounded to two entries", t, func() {
		ctx := context.Background()
		g := admission.NewGuard(admission.WithMaxEntries(2))

		Convey("When a third pair is recorded", func() {
			g.SeenAndRecord(ctx, "u1", "p1")
			g.SeenAndRecord(ctx, "u2", "p2")
			g.SeenAndRecord(ctx, "u3", "p3")

			Convey("Then the guard stays within its bound", func() {
				So(g.Size(), ShouldBeLessThanOrEqualTo, 2)
			})
		})
	})
}
