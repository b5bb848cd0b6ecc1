package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env
// vars. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GLOWRANK_CONFIG is set
//  3. env (prefix GLOWRANK_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GLOWRANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: GLOWRANK_ADDR, GLOWRANK_VOTE_WINDOW_HOURS, ...
	// Keys map to the flat koanf tags on the struct; underscores preserved.
	envProvider := env.Provider("GLOWRANK_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "glowrank_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.VoteWindowHours <= 0:
		return fmt.Errorf("%w: vote_window_hours must be positive", ErrInvalidConfig)
	case c.VoteWeight < 0 || c.RatingWeight < 0 || c.LikeWeight < 0:
		return fmt.Errorf("%w: score weights must not be negative", ErrInvalidConfig)
	case c.GuardSize <= 0:
		return fmt.Errorf("%w: guard_size must be positive", ErrInvalidConfig)
	case c.SnapshotCacheSize <= 0:
		return fmt.Errorf("%w: snapshot_cache_size must be positive", ErrInvalidConfig)
	case c.ReapEnabled && c.ReapSchedule == "":
		return fmt.Errorf("%w: reap_schedule must be set when reaping is enabled", ErrInvalidConfig)
	}
	return nil
}
