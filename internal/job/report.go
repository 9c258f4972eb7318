package job

import "fmt"

// maxLoggedErrors caps the per-record error sample carried on a report; the
// total count keeps counting past the cap.
const maxLoggedErrors = 20

// RunReport accumulates the per-category counters of one result-processing
// pass. It is returned directly to synchronous callers (retry) and condensed
// into the job's error summary otherwise.
type RunReport struct {
	AdvertisersSeen      int `json:"advertisersSeen"`
	AdvertisersProcessed int `json:"advertisersProcessed"`
	AdvertisersSkipped   int `json:"advertisersSkipped"`

	AdsSeen      int `json:"adsSeen"`
	AdsFiltered  int `json:"adsFiltered"`
	AdsInserted  int `json:"adsInserted"`
	AdsDuplicate int `json:"adsDuplicate"`
	AdsSkipped   int `json:"adsSkipped"`

	ErrorCount int      `json:"errorCount"`
	Errors     []string `json:"errors,omitempty"` // capped sample
}

// addError counts a per-record failure, keeping at most maxLoggedErrors
// sample strings.
func (r *RunReport) addError(format string, args ...any) {
	r.ErrorCount++
	if len(r.Errors) < maxLoggedErrors {
		r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	}
}

// summary renders the partial-failure note persisted on a completed job, or
// nil when every record went through cleanly.
func (r *RunReport) summary() *string {
	if r.ErrorCount == 0 {
		return nil
	}
	attempted := r.AdsInserted + r.AdsDuplicate + r.AdsSkipped
	s := fmt.Sprintf("partial success: %d/%d ads, %d errors", r.AdsInserted, attempted, r.ErrorCount)
	return &s
}

// SweepReport is the outcome of one stuck-job recovery pass.
type SweepReport struct {
	Checked         int      `json:"checked"`
	RecoveredCount  int      `json:"recoveredCount"`
	StillRunning    int      `json:"stillRunningCount"`
	RecoveredIDs    []string `json:"recoveredIds"`
	StillRunningIDs []string `json:"stillRunningIds"`
}
