// Package sched runs the expired-vote reaper on a cron schedule.
//
// The reaper is storage hygiene, not a correctness dependency: the window
// filter already excludes expired votes from every score, so the schedule
// may be disabled or missed for arbitrary periods without affecting ranks.
package sched

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/velure/glowrank/pkg/logger"
)

// DefaultSchedule purges expired votes once an hour.
const DefaultSchedule = "@hourly"

// ReapFunc purges expired votes and reports how many were removed.
type ReapFunc func(ctx context.Context) (int64, error)

// Reaper owns the cron runner for periodic reaps.
type Reaper struct {
	reap     ReapFunc
	schedule string
	runner   *cron.Cron
	entry    cron.EntryID
	log      logger.Logger
}

// Option applies a configuration option to the Reaper.
type Option func(*Reaper)

// WithSchedule sets the cron spec, e.g. "@hourly" or "0 3 * * *".
func WithSchedule(spec string) Option {
	return func(r *Reaper) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reaper) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Reaper around the given reap function.
func New(reap ReapFunc, opts ...Option) *Reaper {
	r := &Reaper{
		reap:     reap,
		schedule: DefaultSchedule,
		runner:   cron.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("reaper")
	}
	return r
}

// Start registers the schedule and begins running reaps in the background.
func (r *Reaper) Start(ctx context.Context) error {
	id, err := r.runner.AddFunc(r.schedule, func() {
		if _, err := r.reap(ctx); err != nil {
			r.log.Error(ctx, "scheduled reap failed", logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("register reap schedule %q: %w", r.schedule, err)
	}
	r.entry = id
	r.runner.Start()
	r.log.Info(ctx, "reaper started", logger.String("schedule", r.schedule))
	return nil
}

// Stop halts the schedule and waits for a running reap to finish.
func (r *Reaper) Stop() {
	stopCtx := r.runner.Stop()
	<-stopCtx.Done()
}
