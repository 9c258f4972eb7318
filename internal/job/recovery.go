package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bojodanchev/ad-scraper-sub000/internal/provider"
)

// RecoverStuckJobs reconciles jobs still PENDING or RUNNING past the
// staleness threshold against the provider's authoritative run status. It
// only fixes local bookkeeping — the provider-side run is never cancelled.
//
// Resolution per job:
//   - no provider run id        → FAILED ("stuck at initialization")
//   - provider SUCCEEDED        → FAILED with a retry instruction: the run
//     finished but local processing evidently never completed
//   - provider FAILED/ABORTED/TIMED-OUT → FAILED with the provider's reason
//   - provider still running    → left untouched, reported as such
//   - provider unreachable      → FAILED (a deleted run and a network blip
//     are indistinguishable; a job must not stay stuck forever)
func (m *Manager) RecoverStuckJobs(ctx context.Context) (*SweepReport, error) {
	cutoff := time.Now().UTC().Add(-m.StuckThreshold)

	stale, err := m.jobs.ListStaleJobs(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale jobs: %w", err)
	}

	report := &SweepReport{
		Checked:         len(stale),
		RecoveredIDs:    []string{},
		StillRunningIDs: []string{},
	}

	for i := range stale {
		j := &stale[i]

		if j.ProviderRunID == nil {
			m.failJob(ctx, j.ID, "stuck at initialization — the provider run was never submitted")
			report.recovered(j.ID)
			continue
		}

		status, err := m.runs.RunStatus(ctx, *j.ProviderRunID)
		if err != nil {
			m.failJob(ctx, j.ID, "unable to verify provider run — it may have expired")
			report.recovered(j.ID)
			continue
		}

		switch status {
		case provider.RunSucceeded:
			m.failJob(ctx, j.ID,
				"provider run succeeded but result processing never completed; use retry to reprocess")
			report.recovered(j.ID)
		case provider.RunFailed, provider.RunAborted, provider.RunTimedOut:
			m.failJob(ctx, j.ID, fmt.Sprintf("provider run ended as %s", status))
			report.recovered(j.ID)
		default:
			// Genuinely still running on the provider side.
			report.StillRunning++
			report.StillRunningIDs = append(report.StillRunningIDs, j.ID)
		}
	}

	if report.Checked > 0 {
		slog.Info("stuck-job sweep finished",
			"checked", report.Checked,
			"recovered", report.RecoveredCount,
			"stillRunning", report.StillRunning)
	}

	return report, nil
}

func (r *SweepReport) recovered(id string) {
	r.RecoveredCount++
	r.RecoveredIDs = append(r.RecoveredIDs, id)
}
