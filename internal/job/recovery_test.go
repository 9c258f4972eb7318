package job

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
	"github.com/bojodanchev/ad-scraper-sub000/internal/provider"
)

func seedJob(t *testing.T, jobs *fakeJobs, id string, status model.Status, age time.Duration, runID *string) {
	t.Helper()
	err := jobs.CreateJob(context.Background(), &model.ScrapeJob{
		ID:            id,
		Platform:      model.PlatformTikTok,
		Status:        status,
		ProviderRunID: runID,
		StartedAt:     time.Now().UTC().Add(-age),
	})
	if err != nil {
		t.Fatalf("seed job %s: %v", id, err)
	}
}

func TestRecoverStuckJobs_SucceededRunBecomesRetryable(t *testing.T) {
	jobs := newFakeJobs()
	runID := "run-1"
	seedJob(t, jobs, "old", model.StatusRunning, 11*time.Minute, &runID)

	m := newTestManager(jobs, newFakeCatalog(), &fakeAdapter{p: model.PlatformTikTok},
		&fakeRuns{status: provider.RunSucceeded})

	report, err := m.RecoverStuckJobs(context.Background())
	if err != nil {
		t.Fatalf("RecoverStuckJobs: %v", err)
	}
	if report.Checked != 1 || report.RecoveredCount != 1 {
		t.Errorf("checked/recovered = %d/%d, want 1/1", report.Checked, report.RecoveredCount)
	}

	j, _ := jobs.GetJob(context.Background(), "old")
	if j.Status != model.StatusFailed {
		t.Errorf("status = %s, want FAILED", j.Status)
	}
	if j.ErrorMessage == nil || !strings.Contains(*j.ErrorMessage, "retry") {
		t.Errorf("message should tell the operator to retry, got %v", j.ErrorMessage)
	}
}

func TestRecoverStuckJobs_FreshJobUntouched(t *testing.T) {
	jobs := newFakeJobs()
	runID := "run-1"
	seedJob(t, jobs, "fresh", model.StatusRunning, 5*time.Minute, &runID)

	m := newTestManager(jobs, newFakeCatalog(), &fakeAdapter{p: model.PlatformTikTok},
		&fakeRuns{status: provider.RunSucceeded})

	report, err := m.RecoverStuckJobs(context.Background())
	if err != nil {
		t.Fatalf("RecoverStuckJobs: %v", err)
	}
	if report.Checked != 0 {
		t.Errorf("checked = %d, want 0 — job is younger than the threshold", report.Checked)
	}

	j, _ := jobs.GetJob(context.Background(), "fresh")
	if j.Status != model.StatusRunning {
		t.Errorf("status = %s, want RUNNING untouched", j.Status)
	}
}

func TestRecoverStuckJobs_NoRunID(t *testing.T) {
	jobs := newFakeJobs()
	seedJob(t, jobs, "init", model.StatusPending, 20*time.Minute, nil)

	m := newTestManager(jobs, newFakeCatalog(), &fakeAdapter{p: model.PlatformTikTok}, &fakeRuns{})

	report, err := m.RecoverStuckJobs(context.Background())
	if err != nil {
		t.Fatalf("RecoverStuckJobs: %v", err)
	}
	if report.RecoveredCount != 1 {
		t.Fatalf("recovered = %d, want 1", report.RecoveredCount)
	}

	j, _ := jobs.GetJob(context.Background(), "init")
	if j.Status != model.StatusFailed {
		t.Errorf("status = %s, want FAILED", j.Status)
	}
	if j.ErrorMessage == nil || !strings.Contains(*j.ErrorMessage, "initialization") {
		t.Errorf("message = %v, want the initialization note", j.ErrorMessage)
	}
}

func TestRecoverStuckJobs_ProviderStillRunning(t *testing.T) {
	jobs := newFakeJobs()
	runID := "run-1"
	seedJob(t, jobs, "slow", model.StatusRunning, 30*time.Minute, &runID)

	m := newTestManager(jobs, newFakeCatalog(), &fakeAdapter{p: model.PlatformTikTok},
		&fakeRuns{status: provider.RunRunning})

	report, err := m.RecoverStuckJobs(context.Background())
	if err != nil {
		t.Fatalf("RecoverStuckJobs: %v", err)
	}
	if report.RecoveredCount != 0 || report.StillRunning != 1 {
		t.Errorf("recovered/stillRunning = %d/%d, want 0/1", report.RecoveredCount, report.StillRunning)
	}
	if len(report.StillRunningIDs) != 1 || report.StillRunningIDs[0] != "slow" {
		t.Errorf("stillRunningIds = %v, want [slow]", report.StillRunningIDs)
	}

	j, _ := jobs.GetJob(context.Background(), "slow")
	if j.Status != model.StatusRunning {
		t.Errorf("status = %s, want RUNNING — a live provider run is never interfered with", j.Status)
	}
}

func TestRecoverStuckJobs_ProviderTerminalFailure(t *testing.T) {
	jobs := newFakeJobs()
	runID := "run-1"
	seedJob(t, jobs, "dead", model.StatusRunning, 15*time.Minute, &runID)

	m := newTestManager(jobs, newFakeCatalog(), &fakeAdapter{p: model.PlatformTikTok},
		&fakeRuns{status: provider.RunTimedOut})

	if _, err := m.RecoverStuckJobs(context.Background()); err != nil {
		t.Fatalf("RecoverStuckJobs: %v", err)
	}

	j, _ := jobs.GetJob(context.Background(), "dead")
	if j.Status != model.StatusFailed {
		t.Errorf("status = %s, want FAILED", j.Status)
	}
	if j.ErrorMessage == nil || !strings.Contains(*j.ErrorMessage, "TIMED-OUT") {
		t.Errorf("message = %v, want the provider status", j.ErrorMessage)
	}
}

func TestRecoverStuckJobs_ProviderUnreachable(t *testing.T) {
	jobs := newFakeJobs()
	runID := "run-1"
	seedJob(t, jobs, "lost", model.StatusRunning, 15*time.Minute, &runID)

	m := newTestManager(jobs, newFakeCatalog(), &fakeAdapter{p: model.PlatformTikTok},
		&fakeRuns{err: errors.New("connection refused")})

	report, err := m.RecoverStuckJobs(context.Background())
	if err != nil {
		t.Fatalf("RecoverStuckJobs: %v", err)
	}
	if report.RecoveredCount != 1 {
		t.Errorf("recovered = %d, want 1 — unverifiable jobs must not stay stuck", report.RecoveredCount)
	}

	j, _ := jobs.GetJob(context.Background(), "lost")
	if j.Status != model.StatusFailed {
		t.Errorf("status = %s, want FAILED", j.Status)
	}
}

func TestRecoverStuckJobs_TerminalJobsIgnored(t *testing.T) {
	jobs := newFakeJobs()
	runID := "run-1"
	seedJob(t, jobs, "done", model.StatusCompleted, time.Hour, &runID)
	seedJob(t, jobs, "failed", model.StatusFailed, time.Hour, &runID)

	m := newTestManager(jobs, newFakeCatalog(), &fakeAdapter{p: model.PlatformTikTok}, &fakeRuns{})

	report, err := m.RecoverStuckJobs(context.Background())
	if err != nil {
		t.Fatalf("RecoverStuckJobs: %v", err)
	}
	if report.Checked != 0 {
		t.Errorf("checked = %d, want 0 — terminal jobs are out of scope", report.Checked)
	}
}
