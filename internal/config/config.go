// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the scraper service.
type Config struct {
	Port        string
	DatabaseURL string
	DBMaxConns  int // upper bound on the pgx pool; catalog writes fan out per job
	RedisURL    string

	ApifyToken   string
	ApifyBaseURL string // override for tests; empty means the public API

	// Actor id overrides; empty means the built-in default per platform.
	AdsActorID       string
	TikTokActorID    string
	InstagramActorID string

	PollInterval time.Duration // how often to poll a provider run
	MaxWait      time.Duration // how long to wait before giving up locally

	StuckThreshold       time.Duration // job age before the sweep inspects it
	SweepIntervalMinutes int           // how often the recovery cron fires
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	token := os.Getenv("APIFY_API_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("APIFY_API_TOKEN is required")
	}

	dbMaxConns, err := intEnv("DB_MAX_CONNS", 8)
	if err != nil {
		return nil, err
	}

	pollSeconds, err := intEnv("POLL_INTERVAL_SECONDS", 5)
	if err != nil {
		return nil, err
	}

	maxWaitMinutes, err := intEnv("POLL_MAX_WAIT_MINUTES", 15)
	if err != nil {
		return nil, err
	}

	stuckMinutes, err := intEnv("STUCK_THRESHOLD_MINUTES", 10)
	if err != nil {
		return nil, err
	}

	sweepMinutes, err := intEnv("SWEEP_INTERVAL_MINUTES", 5)
	if err != nil {
		return nil, err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		Port:                 port,
		DatabaseURL:          dbURL,
		DBMaxConns:           dbMaxConns,
		RedisURL:             redisURL,
		ApifyToken:           token,
		ApifyBaseURL:         os.Getenv("APIFY_BASE_URL"),
		AdsActorID:           os.Getenv("APIFY_ADS_ACTOR_ID"),
		TikTokActorID:        os.Getenv("APIFY_TIKTOK_ACTOR_ID"),
		InstagramActorID:     os.Getenv("APIFY_INSTAGRAM_ACTOR_ID"),
		PollInterval:         time.Duration(pollSeconds) * time.Second,
		MaxWait:              time.Duration(maxWaitMinutes) * time.Minute,
		StuckThreshold:       time.Duration(stuckMinutes) * time.Minute,
		SweepIntervalMinutes: sweepMinutes,
	}, nil
}

func intEnv(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return v, nil
}
