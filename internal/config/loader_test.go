package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	config "github.com/velure/glowrank/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func clearEnv() {
	for _, kv := range os.Environ() {
		if len(kv) > 9 && kv[:9] == "GLOWRANK_" {
			key := kv[:indexByte(kv, '=')]
			os.Unsetenv(key)
		}
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return len(s)
}

func TestLoadDefaults(t *testing.T) {
	Convey("Given no file and no environment overrides", t, func() {
		clearEnv()

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":8080")
				So(cfg.LogLevel, ShouldEqual, "info")
				So(cfg.VoteWindow(), ShouldEqual, 7*24*time.Hour)
				So(cfg.VoteWeight, ShouldEqual, 3)
				So(cfg.RatingWeight, ShouldEqual, 2)
				So(cfg.LikeWeight, ShouldEqual, 1)
				So(cfg.ReapEnabled, ShouldBeTrue)
				So(cfg.ReapSchedule, ShouldEqual, "@hourly")
			})
		})
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		clearEnv()
		os.Setenv("GLOWRANK_ADDR", ":9999")
		os.Setenv("GLOWRANK_VOTE_WINDOW_HOURS", "24")
		os.Setenv("GLOWRANK_LOG_LEVEL", "debug")
		Reset(clearEnv)

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then env values win over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9999")
				So(cfg.VoteWindow(), ShouldEqual, 24*time.Hour)
				So(cfg.LogLevel, ShouldEqual, "debug")
			})
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		clearEnv()
		dir := t.TempDir()
		path := filepath.Join(dir, "glowrank.yaml")
		So(os.WriteFile(path, []byte("addr: \":7070\"\nvote_weight: 5\n"), 0o600), ShouldBeNil)
		os.Setenv("GLOWRANK_CONFIG", path)
		Reset(clearEnv)

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then file values apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.VoteWeight, ShouldEqual, 5)
			})
		})

		Convey("When an env var overrides the file", func() {
			os.Setenv("GLOWRANK_ADDR", ":6060")
			cfg, err := config.Load(context.Background())

			Convey("Then env wins", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
			})
		})
	})

	Convey("Given a missing config file", t, func() {
		clearEnv()
		os.Setenv("GLOWRANK_CONFIG", "/does/not/exist.yaml")
		Reset(clearEnv)

		Convey("When loading", func() {
			_, err := config.Load(context.Background())

			Convey("Then loading fails with the load kind", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
			})
		})
	})
}

func TestLoadValidation(t *testing.T) {
	Convey("Given invalid overrides", t, func() {
		clearEnv()
		Reset(clearEnv)

		Convey("When the vote window is non-positive", func() {
			os.Setenv("GLOWRANK_VOTE_WINDOW_HOURS", "0")
			_, err := config.Load(context.Background())
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When a weight is negative", func() {
			os.Setenv("GLOWRANK_RATING_WEIGHT", "-1")
			_, err := config.Load(context.Background())
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the address is empty", func() {
			os.Setenv("GLOWRANK_ADDR", "")
			_, err := config.Load(context.Background())
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
