package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/velure/glowrank/internal/adapters/http/api"
	repository "github.com/velure/glowrank/internal/adapters/repository"
	"github.com/velure/glowrank/internal/adapters/repository/postgres"
	"github.com/velure/glowrank/internal/adapters/sched"
	service "github.com/velure/glowrank/internal/app"
	"github.com/velure/glowrank/internal/config"
	"github.com/velure/glowrank/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Select the store: Postgres when a DSN is configured, in-memory for
	// local development.
	var catalog repository.CatalogStore
	var votes repository.VoteStore
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error(ctx, "failed to connect to database", logger.Error(err))
			return
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error(ctx, "failed to ensure schema", logger.Error(err))
			return
		}
		catalog, votes = pg, pg
		log.Info(ctx, "using postgres store")
	} else {
		mem := repository.NewMemoryStore()
		catalog, votes = mem, mem
		log.Warn(ctx, "no database_url configured; using in-memory store")
	}

	svc, err := service.New(catalog, votes,
		service.WithLogger(log.Named("engine")),
		service.WithWindow(cfg.VoteWindow()),
		service.WithWeights(cfg.VoteWeight, cfg.RatingWeight, cfg.LikeWeight),
		service.WithGuardSize(cfg.GuardSize),
		service.WithSnapshotCacheSize(cfg.SnapshotCacheSize),
	)
	if err != nil {
		log.Error(ctx, "failed to build engine", logger.Error(err))
		return
	}

	if cfg.ReapEnabled {
		reaper := sched.New(svc.Reap,
			sched.WithSchedule(cfg.ReapSchedule),
			sched.WithLogger(log.Named("reaper")),
		)
		if err := reaper.Start(ctx); err != nil {
			log.Error(ctx, "failed to start reaper", logger.Error(err))
			return
		}
		defer reaper.Stop()
	}

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}
