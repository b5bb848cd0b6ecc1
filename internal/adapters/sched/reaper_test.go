package sched_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	sched "github.com/velure/glowrank/internal/adapters/sched"
	"github.com/velure/glowrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestReaperSchedule(t *testing.T) {
	Convey("Given a reaper on a one-second schedule", t, func() {
		// @every delays under a second round up to a second, so this is
		// the tightest honest cadence.
		ctx := context.Background()
		var runs atomic.Int64
		r := sched.New(
			func(context.Context) (int64, error) {
				runs.Add(1)
				return 0, nil
			},
			sched.WithSchedule("@every 1s"),
		)

		Convey("When started and left running past one interval", func() {
			So(r.Start(ctx), ShouldBeNil)
			time.Sleep(1200 * time.Millisecond)
			r.Stop()

			Convey("Then the reap ran at least once", func() {
				So(runs.Load(), ShouldBeGreaterThanOrEqualTo, 1)
			})

			Convey("And no further reaps run after Stop", func() {
				after := runs.Load()
				time.Sleep(1100 * time.Millisecond)
				So(runs.Load(), ShouldEqual, after)
			})
		})
	})
}

func TestReaperInvalidSchedule(t *testing.T) {
	Convey("Given a reaper with a malformed cron spec", t, func() {
		r := sched.New(
			func(context.Context) (int64, error) { return 0, nil },
			sched.WithSchedule("not a cron spec"),
		)

		Convey("When starting", func() {
			err := r.Start(context.Background())

			Convey("Then registration fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
