// Scrape job state machine.
//
// Valid status graph:
//
//	PENDING ──► RUNNING ──► COMPLETED
//	    │           │           ▲
//	    └───────────┴─────► FAILED (retry reprocessing)
//
// There is no cancelled state: once result processing starts it runs to
// completion or fails. FAILED is terminal for automatic progression, but an
// operator retry may reprocess a succeeded provider run and drive the job to
// COMPLETED. Re-asserting the current status is always allowed — result
// processing is re-runnable and must be able to refresh the final record.
// Job rows are mutated only by the job manager and by stuck-job recovery,
// and every status write is guarded by this table.
package model

import "fmt"

// Status values mirror the scrape_job_status enum in PostgreSQL.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusFailed},
	StatusRunning: {StatusCompleted, StatusFailed},
	StatusFailed:  {StatusCompleted}, // retry of a succeeded provider run
	// COMPLETED has no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown scrape job status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine. Writing the current status again is always permitted so
// that reprocessing can refresh an already-finalized record.
func IsTransitionAllowed(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for COMPLETED and FAILED: statuses with no further
// automatic progression. A FAILED job can still leave the state via an
// explicit operator retry.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusFailed
}
