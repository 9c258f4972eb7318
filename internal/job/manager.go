// Package job owns the scrape job lifecycle: submission, detached result
// processing, retry, and stuck-job recovery. All failure paths end in a
// persisted status update — for a detached run the job record is the only
// error channel an operator has.
package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bojodanchev/ad-scraper-sub000/internal/filter"
	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
	"github.com/bojodanchev/ad-scraper-sub000/internal/platform"
	"github.com/bojodanchev/ad-scraper-sub000/internal/provider"
)

// ─── Collaborator contracts ──────────────────────────────────────────────────

// JobStore persists scrape job rows.
type JobStore interface {
	CreateJob(ctx context.Context, job *model.ScrapeJob) error
	GetJob(ctx context.Context, id string) (*model.ScrapeJob, error)
	ListJobs(ctx context.Context, limit int) ([]model.ScrapeJob, error)
	ListStaleJobs(ctx context.Context, cutoff time.Time) ([]model.ScrapeJob, error)
	SetJobRunning(ctx context.Context, id, providerRunID string) error
	SetJobFailed(ctx context.Context, id, message string) error
	SetJobCompleted(ctx context.Context, id string, recordsFound int, errorSummary *string) error
}

// CatalogStore persists the normalized records.
type CatalogStore interface {
	UpsertAdvertiser(ctx context.Context, adv *model.NormalizedAdvertiser) (id string, created bool, err error)
	InsertAdIfNew(ctx context.Context, ad *model.NormalizedAd) (inserted bool, err error)
}

// AdapterRegistry resolves the platform adapter for a job.
type AdapterRegistry interface {
	ForPlatform(p model.Platform) (platform.Adapter, error)
}

// RunChecker reads the provider's authoritative run status. Used by retry
// validation and the recovery sweep.
type RunChecker interface {
	RunStatus(ctx context.Context, runID string) (provider.RunStatus, error)
}

// EventPublisher announces job lifecycle events. Publishing is best-effort;
// implementations log and swallow their own failures.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload any)
}

// Event channel names.
const (
	EventScrapeCompleted = "EVENT_SCRAPE_COMPLETED"
	EventScrapeFailed    = "EVENT_SCRAPE_FAILED"
)

// DefaultStuckThreshold is how old a PENDING/RUNNING job must be before the
// recovery sweep inspects it.
const DefaultStuckThreshold = 10 * time.Minute

// ─── Manager ─────────────────────────────────────────────────────────────────

// Manager drives the scrape job state machine end to end.
type Manager struct {
	jobs     JobStore
	catalog  CatalogStore
	adapters AdapterRegistry
	runs     RunChecker
	events   EventPublisher

	// StuckThreshold is the staleness cutoff for the recovery sweep.
	StuckThreshold time.Duration

	// spawn runs detached result processing; tests replace it to process
	// inline.
	spawn func(fn func())
}

// NewManager wires a Manager with production defaults.
func NewManager(jobs JobStore, catalog CatalogStore, adapters AdapterRegistry, runs RunChecker, events EventPublisher) *Manager {
	return &Manager{
		jobs:           jobs,
		catalog:        catalog,
		adapters:       adapters,
		runs:           runs,
		events:         events,
		StuckThreshold: DefaultStuckThreshold,
		spawn:          func(fn func()) { go fn() },
	}
}

// Submit validates the request, creates the job, starts the provider run and
// kicks off detached result processing. It returns as soon as the provider
// accepted the run — the caller is never blocked for the minutes a scrape
// may take.
func (m *Manager) Submit(ctx context.Context, req model.ScrapeRequest) (*model.ScrapeJob, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, &ValidationError{Msg: "query is required"}
	}
	adapter, err := m.adapters.ForPlatform(req.Platform)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	if req.Mode == "" {
		req.Mode = model.ModeKeyword
	}

	job := &model.ScrapeJob{
		ID:         uuid.NewString(),
		Platform:   req.Platform,
		SearchMode: req.Mode,
		Query:      req.Query,
		Filters:    req.Filters,
		Status:     model.StatusPending,
		StartedAt:  time.Now().UTC(),
	}
	if err := m.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	runID, err := adapter.StartJob(ctx, req)
	if err != nil {
		// Submission failed: the job goes straight to FAILED and the error
		// is surfaced to the caller.
		m.failJob(ctx, job.ID, fmt.Sprintf("provider submission failed: %v", err))
		return nil, fmt.Errorf("start provider job: %w", err)
	}

	if err := m.jobs.SetJobRunning(ctx, job.ID, runID); err != nil {
		// The provider run exists but its id could not be recorded. Fail the
		// job with the run id in the message so the operator is not left
		// with a job that looks stuck at initialization.
		m.failJob(ctx, job.ID, fmt.Sprintf("provider run %s started but could not be recorded: %v", runID, err))
		return nil, fmt.Errorf("mark job running: %w", err)
	}
	job.Status = model.StatusRunning
	job.ProviderRunID = &runID

	slog.Info("scrape job submitted",
		"jobId", job.ID, "platform", job.Platform, "mode", job.SearchMode, "runId", runID)

	m.spawn(func() {
		if _, err := m.ProcessResults(context.Background(), job.ID); err != nil {
			slog.Error("detached result processing failed", "jobId", job.ID, "err", err)
		}
	})

	return job, nil
}

// ProcessResults waits for the provider run to finish, then normalizes,
// filters and persists the results. Safe to re-invoke for the same job: the
// catalog dedup keys make a second pass over the same result set a no-op.
// The job ends COMPLETED even when individual records failed — only an
// unreachable provider, a non-success terminal status or a local timeout
// produce a FAILED job.
func (m *Manager) ProcessResults(ctx context.Context, jobID string) (*RunReport, error) {
	j, err := m.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.ProviderRunID == nil {
		msg := "no provider run id recorded"
		m.failJob(ctx, j.ID, msg)
		return nil, fmt.Errorf("job %s: %s", j.ID, msg)
	}

	adapter, err := m.adapters.ForPlatform(j.Platform)
	if err != nil {
		m.failJob(ctx, j.ID, err.Error())
		return nil, err
	}

	res, err := adapter.AwaitAndFetch(ctx, *j.ProviderRunID)
	if err != nil {
		m.failJob(ctx, j.ID, fmt.Sprintf("provider unreachable: %v", err))
		return nil, fmt.Errorf("await provider run: %w", err)
	}

	switch res.Status {
	case provider.RunSucceeded:
		// fall through to processing
	case provider.RunLocalTimeout:
		// Distinct from provider failure: the run may still finish later
		// and become retry-eligible.
		msg := "provider run did not finish within the local wait; retry once it completes"
		m.failJob(ctx, j.ID, msg)
		return nil, fmt.Errorf("job %s: %s", j.ID, msg)
	default:
		msg := fmt.Sprintf("provider run ended as %s", res.Status)
		m.failJob(ctx, j.ID, msg)
		return nil, fmt.Errorf("job %s: %s", j.ID, msg)
	}

	report := m.persistResults(ctx, j, adapter, res.Items)

	if err := m.jobs.SetJobCompleted(ctx, j.ID, report.AdsInserted, report.summary()); err != nil {
		return report, fmt.Errorf("finalize job: %w", err)
	}
	m.publish(ctx, EventScrapeCompleted, map[string]any{
		"jobId":       j.ID,
		"platform":    j.Platform,
		"adsInserted": report.AdsInserted,
	})

	slog.Info("scrape job completed",
		"jobId", j.ID,
		"adsSeen", report.AdsSeen,
		"adsInserted", report.AdsInserted,
		"adsDuplicate", report.AdsDuplicate,
		"advertisers", report.AdvertisersProcessed,
		"errors", report.ErrorCount)

	return report, nil
}

// persistResults runs normalize → filter → upsert, counting per category.
// Per-record failures never abort the batch.
func (m *Manager) persistResults(ctx context.Context, j *model.ScrapeJob, adapter platform.Adapter, items []json.RawMessage) *RunReport {
	report := &RunReport{AdsSeen: len(items)}

	norm := adapter.Normalize(items)
	report.AdsSkipped += norm.Skipped
	report.AdvertisersSeen = len(norm.Advertisers)

	followers := make(map[string]*int64, len(norm.Advertisers))
	for i := range norm.Advertisers {
		followers[norm.Advertisers[i].ExternalID] = norm.Advertisers[i].FollowerCount
	}

	kept := filter.Apply(norm.Ads, followers, j.Filters, time.Now().UTC())
	report.AdsFiltered = len(norm.Ads) - len(kept)

	// Upsert only advertisers still referenced after filtering.
	needed := make(map[string]bool)
	for i := range kept {
		if kept[i].AdvertiserExternalID != nil {
			needed[*kept[i].AdvertiserExternalID] = true
		}
	}

	advertiserIDs := make(map[string]string)
	for i := range norm.Advertisers {
		adv := &norm.Advertisers[i]
		if !needed[adv.ExternalID] {
			continue
		}
		id, _, err := m.catalog.UpsertAdvertiser(ctx, adv)
		if err != nil {
			report.AdvertisersSkipped++
			report.addError("advertiser %s/%s: %v", adv.Platform, adv.ExternalID, err)
			continue
		}
		advertiserIDs[adv.ExternalID] = id
		report.AdvertisersProcessed++
	}

	for i := range kept {
		ad := &kept[i]
		if ad.AdvertiserExternalID != nil {
			if id, ok := advertiserIDs[*ad.AdvertiserExternalID]; ok {
				ad.AdvertiserID = &id
			}
		}
		inserted, err := m.catalog.InsertAdIfNew(ctx, ad)
		if err != nil {
			report.AdsSkipped++
			report.addError("ad %s: %v", externalOrLocalID(ad), err)
			continue
		}
		if inserted {
			report.AdsInserted++
		} else {
			report.AdsDuplicate++
		}
	}

	return report
}

// Retry re-runs result processing synchronously so the caller receives the
// final counters directly. Allowed only when the provider reports the
// recorded run as SUCCEEDED.
func (m *Manager) Retry(ctx context.Context, jobID string) (*RunReport, error) {
	j, err := m.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.ProviderRunID == nil {
		return nil, &RetryNotAllowedError{Msg: "job has no provider run id"}
	}

	status, err := m.runs.RunStatus(ctx, *j.ProviderRunID)
	if err != nil {
		return nil, &RetryNotAllowedError{Msg: fmt.Sprintf("provider unreachable: %v", err)}
	}
	if status != provider.RunSucceeded {
		return nil, &RetryNotAllowedError{Msg: fmt.Sprintf("provider run is %s, not SUCCEEDED", status)}
	}

	return m.ProcessResults(ctx, jobID)
}

// Job returns a single job record.
func (m *Manager) Job(ctx context.Context, id string) (*model.ScrapeJob, error) {
	return m.jobs.GetJob(ctx, id)
}

// Jobs lists recent jobs, newest first.
func (m *Manager) Jobs(ctx context.Context, limit int) ([]model.ScrapeJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return m.jobs.ListJobs(ctx, limit)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (m *Manager) failJob(ctx context.Context, jobID, message string) {
	if err := m.jobs.SetJobFailed(ctx, jobID, message); err != nil {
		slog.Error("mark job failed", "jobId", jobID, "err", err)
	}
	m.publish(ctx, EventScrapeFailed, map[string]any{"jobId": jobID, "error": message})
}

func (m *Manager) publish(ctx context.Context, channel string, payload any) {
	if m.events == nil {
		return
	}
	m.events.Publish(ctx, channel, payload)
}

func externalOrLocalID(ad *model.NormalizedAd) string {
	if ad.ExternalID != nil {
		return string(ad.Platform) + "/" + *ad.ExternalID
	}
	return ad.ID
}
