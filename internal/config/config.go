// Package config defines service configuration structures and loading.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment sources on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the PostgreSQL DSN. Empty selects the in-memory
	// store, which is only meant for local development.
	DatabaseURL string `koanf:"database_url"`

	// VoteWindowHours is the rolling vote-validity window in hours.
	VoteWindowHours int `koanf:"vote_window_hours"`

	// VoteWeight, RatingWeight and LikeWeight blend the product score.
	VoteWeight   float64 `koanf:"vote_weight"`
	RatingWeight float64 `koanf:"rating_weight"`
	LikeWeight   float64 `koanf:"like_weight"`

	// GuardSize bounds the in-process duplicate-vote guard.
	GuardSize int `koanf:"guard_size"`

	// SnapshotCacheSize bounds the last-known ranking cache.
	SnapshotCacheSize int `koanf:"snapshot_cache_size"`

	// ReapEnabled toggles the background reaper; ReapSchedule is its
	// cron spec.
	ReapEnabled  bool   `koanf:"reap_enabled"`
	ReapSchedule string `koanf:"reap_schedule"`
}

// Default configuration values.
const (
	defaultVoteWindowHours   = 168 // seven days
	defaultGuardSize         = 100_000
	defaultSnapshotCacheSize = 256
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":8080",
		DatabaseURL:       "",
		VoteWindowHours:   defaultVoteWindowHours,
		VoteWeight:        3,
		RatingWeight:      2,
		LikeWeight:        1,
		GuardSize:         defaultGuardSize,
		SnapshotCacheSize: defaultSnapshotCacheSize,
		ReapEnabled:       true,
		ReapSchedule:      "@hourly",
	}
}

// VoteWindow returns the validity window as a duration.
func (c *Config) VoteWindow() time.Duration {
	return time.Duration(c.VoteWindowHours) * time.Hour
}
