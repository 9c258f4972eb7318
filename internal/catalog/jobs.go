package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
)

const jobColumns = `id, platform, search_mode, query, filters, status,
	provider_run_id, records_found, error_message, started_at, completed_at`

// CreateJob inserts a new scrape job row.
func (s *Store) CreateJob(ctx context.Context, job *model.ScrapeJob) error {
	filters, err := json.Marshal(job.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scrape_jobs (id, platform, search_mode, query, filters, status, started_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`,
		job.ID, job.Platform, job.SearchMode, job.Query, string(filters), job.Status, job.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scrape_job: %w", err)
	}
	return nil
}

// GetJob returns a single job by id, or ErrNotFound.
func (s *Store) GetJob(ctx context.Context, id string) (*model.ScrapeJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM scrape_jobs WHERE id = $1`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get scrape_job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs newest first, capped at limit.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]model.ScrapeJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM scrape_jobs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scrape_jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ListStaleJobs returns jobs still PENDING or RUNNING whose started_at is
// older than cutoff. Input to the stuck-job recovery sweep.
func (s *Store) ListStaleJobs(ctx context.Context, cutoff time.Time) ([]model.ScrapeJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM scrape_jobs
		 WHERE status IN ($1, $2) AND started_at < $3
		 ORDER BY started_at`,
		model.StatusPending, model.StatusRunning, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale scrape_jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// guardTransition fetches the job's current status and rejects the write
// when the state machine does not permit current → to.
func (s *Store) guardTransition(ctx context.Context, id string, to model.Status) error {
	var raw string
	if err := s.pool.QueryRow(ctx,
		`SELECT status FROM scrape_jobs WHERE id = $1`, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get scrape_job status: %w", err)
	}
	current, err := model.ParseStatus(raw)
	if err != nil {
		return err
	}
	if !model.IsTransitionAllowed(current, to) {
		return fmt.Errorf("transition %s → %s is not allowed", current, to)
	}
	return nil
}

// SetJobRunning records the provider run id and moves the job to RUNNING.
func (s *Store) SetJobRunning(ctx context.Context, id, providerRunID string) error {
	if err := s.guardTransition(ctx, id, model.StatusRunning); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE scrape_jobs SET status = $1, provider_run_id = $2 WHERE id = $3`,
		model.StatusRunning, providerRunID, id)
	if err != nil {
		return fmt.Errorf("set scrape_job running: %w", err)
	}
	return nil
}

// SetJobFailed finalizes the job as FAILED with the given message.
func (s *Store) SetJobFailed(ctx context.Context, id, message string) error {
	if err := s.guardTransition(ctx, id, model.StatusFailed); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE scrape_jobs SET status = $1, error_message = $2, completed_at = NOW() WHERE id = $3`,
		model.StatusFailed, message, id)
	if err != nil {
		return fmt.Errorf("set scrape_job failed: %w", err)
	}
	return nil
}

// SetJobCompleted finalizes the job as COMPLETED. errorSummary is non-nil
// when individual records failed to persist (partial success).
func (s *Store) SetJobCompleted(ctx context.Context, id string, recordsFound int, errorSummary *string) error {
	if err := s.guardTransition(ctx, id, model.StatusCompleted); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE scrape_jobs
		 SET status = $1, records_found = $2, error_message = $3, completed_at = NOW()
		 WHERE id = $4`,
		model.StatusCompleted, recordsFound, errorSummary, id)
	if err != nil {
		return fmt.Errorf("set scrape_job completed: %w", err)
	}
	return nil
}

// ─── Scanning ─────────────────────────────────────────────────────────────────

func scanJob(row pgx.Row) (*model.ScrapeJob, error) {
	var (
		j          model.ScrapeJob
		filtersRaw []byte
	)
	if err := row.Scan(
		&j.ID, &j.Platform, &j.SearchMode, &j.Query, &filtersRaw, &j.Status,
		&j.ProviderRunID, &j.RecordsFound, &j.ErrorMessage, &j.StartedAt, &j.CompletedAt,
	); err != nil {
		return nil, err
	}
	if len(filtersRaw) > 0 {
		if err := json.Unmarshal(filtersRaw, &j.Filters); err != nil {
			return nil, fmt.Errorf("unmarshal job filters: %w", err)
		}
	}
	return &j, nil
}

func collectJobs(rows pgx.Rows) ([]model.ScrapeJob, error) {
	jobs := make([]model.ScrapeJob, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scrape_job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}
