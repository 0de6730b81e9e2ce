package fetch

import (
	"fmp-archiver/internal/series"
)

// Status tracks one series through a fetch invocation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusInFlight Status = "in_flight"
	StatusRetrying Status = "retrying"
	// Terminal states.
	StatusSucceeded       Status = "succeeded"
	StatusFailedTransient Status = "failed_transient_exhausted"
	StatusFailedPermanent Status = "failed_permanent"
	// StatusAborted marks a series interrupted by cancellation, not by
	// provider failures.
	StatusAborted Status = "aborted"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailedTransient, StatusFailedPermanent, StatusAborted:
		return true
	}
	return false
}

// SeriesResult is the outcome for one series in a batch.
type SeriesResult struct {
	Key      series.Key
	Status   Status
	Fetched  int // records returned by the provider
	Stored   int // records in the partition after merge
	Attempts int // provider calls across all chunks, retries included
	Err      error
}

// Report aggregates per-series outcomes for a fetch batch. Per-series
// failures never abort the batch; callers inspect the report instead
// of an error.
type Report struct {
	Results []SeriesResult
}

// OK reports whether every series in the batch succeeded.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if res.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// Failed returns the series that ended in a failure state.
func (r Report) Failed() []SeriesResult {
	var out []SeriesResult
	for _, res := range r.Results {
		if res.Status != StatusSucceeded {
			out = append(out, res)
		}
	}
	return out
}
