// Package window implements the rolling vote-validity window.
//
// A vote counts toward the live score while its age is strictly under the
// window at evaluation time. Comparison uses absolute instants (UTC), not
// calendar days, so there is no boundary drift at midnight. The filter is
// a pure predicate; physical deletion of expired votes is the reaper's job.
package window

import (
	"time"

	"github.com/velure/glowrank/internal/domain/model"
)

// DefaultWindow is the rolling validity window for votes.
const DefaultWindow = 7 * 24 * time.Hour

// Filter decides vote validity against a rolling window.
type Filter struct {
	window time.Duration
}

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithWindow overrides the validity window. Non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(f *Filter) {
		if d > 0 {
			f.window = d
		}
	}
}

// NewFilter creates a Filter with the default seven-day window.
func NewFilter(opts ...Option) *Filter {
	f := &Filter{window: DefaultWindow}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Window returns the configured validity window.
func (f *Filter) Window() time.Duration {
	return f.window
}

// Valid reports whether the vote still counts at instant now.
func (f *Filter) Valid(v model.VoteRecord, now time.Time) bool {
	return now.Sub(v.CreatedAt) < f.window
}

// Expired reports whether the vote must be excluded (and may be reaped).
// It is the exact complement of Valid so a vote is never both.
func (f *Filter) Expired(v model.VoteRecord, now time.Time) bool {
	return !f.Valid(v, now)
}

// Cutoff returns the oldest CreatedAt still valid at instant now. Votes
// created before the cutoff are expired.
func (f *Filter) Cutoff(now time.Time) time.Time {
	return now.Add(-f.window)
}

// CountValid returns how many of the given votes are valid at instant now.
func (f *Filter) CountValid(votes []model.VoteRecord, now time.Time) int {
	n := 0
	for _, v := range votes {
		if f.Valid(v, now) {
			n++
		}
	}
	return n
}

// SplitValid partitions votes into valid and expired slices, preserving
// input order within each partition.
func (f *Filter) SplitValid(votes []model.VoteRecord, now time.Time) (valid, expired []model.VoteRecord) {
	for _, v := range votes {
		if f.Valid(v, now) {
			valid = append(valid, v)
		} else {
			expired = append(expired, v)
		}
	}
	return valid, expired
}
