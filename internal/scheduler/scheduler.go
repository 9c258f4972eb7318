// Package scheduler wires up the cron job that periodically sweeps for stuck
// scrape jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/bojodanchev/ad-scraper-sub000/internal/job"
)

// Scheduler wraps robfig/cron and manages the recovery sweep loop.
type Scheduler struct {
	cron    *cron.Cron
	manager *job.Manager
	spec    string // cron spec, e.g. "@every 5m"
}

// New creates a Scheduler that sweeps every intervalMinutes minutes.
func New(manager *job.Manager, intervalMinutes int) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		manager: manager,
		spec:    fmt.Sprintf("@every %dm", intervalMinutes),
	}
}

// Start registers the sweep and starts the scheduler. Also runs one sweep
// immediately so jobs orphaned by a crash are recovered right after restart.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	slog.Info("recovery sweep scheduled", "spec", s.spec)

	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("recovery sweep scheduler stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if _, err := s.manager.RecoverStuckJobs(ctx); err != nil {
		slog.Error("scheduled stuck-job sweep failed", "err", err)
	}
}
