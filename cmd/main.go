// ad-scraper service
//
// Job-based content discovery across ad and social platforms. Exposes a REST
// API used by operators to:
//   - submit a scrape (platform + query + optional filters)
//   - poll job status and list recent jobs
//   - retry result processing for a succeeded provider run
//   - trigger the stuck-job recovery sweep on demand
//
// A cron-driven sweep recovers jobs orphaned by crashes or expired provider
// runs. Publishes EVENT_SCRAPE_COMPLETED / EVENT_SCRAPE_FAILED to Redis.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bojodanchev/ad-scraper-sub000/internal/api"
	"github.com/bojodanchev/ad-scraper-sub000/internal/catalog"
	"github.com/bojodanchev/ad-scraper-sub000/internal/config"
	"github.com/bojodanchev/ad-scraper-sub000/internal/db"
	"github.com/bojodanchev/ad-scraper-sub000/internal/events"
	"github.com/bojodanchev/ad-scraper-sub000/internal/job"
	"github.com/bojodanchev/ad-scraper-sub000/internal/platform"
	"github.com/bojodanchev/ad-scraper-sub000/internal/provider"
	"github.com/bojodanchev/ad-scraper-sub000/internal/scheduler"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
	if err != nil {
		slog.Error("postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	// ── Redis ────────────────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("redis", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("redis connected")

	// ── Wiring ───────────────────────────────────────────────────────────────
	client := provider.NewClient(cfg.ApifyBaseURL, cfg.ApifyToken)
	client.PollInterval = cfg.PollInterval
	client.MaxWait = cfg.MaxWait

	registry := platform.NewRegistry(client, platform.ActorConfig{
		MetaAdsActorID:   cfg.AdsActorID,
		TikTokActorID:    cfg.TikTokActorID,
		InstagramActorID: cfg.InstagramActorID,
	})

	store := catalog.NewStore(pool)
	manager := job.NewManager(store, store, registry, client, events.NewPublisher(rdb))
	manager.StuckThreshold = cfg.StuckThreshold

	sched := scheduler.New(manager, cfg.SweepIntervalMinutes)
	if err := sched.Start(ctx); err != nil {
		slog.Error("scheduler", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.NewHandler(manager).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("listening", "version", version, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
	slog.Info("stopped")
}
