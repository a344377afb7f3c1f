package service

import (
	"context"
	"fmt"
	"time"

	"tubebatch/internal/core/domain"
	"tubebatch/internal/core/ports"
)

// ResultReport is the persisted result artifact.
type ResultReport struct {
	RunID       string          `json:"run_id"`
	GeneratedAt string          `json:"generated_at"`
	ProxyOK     bool            `json:"proxy_ok"`
	Total       int             `json:"total"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Results     []domain.Result `json:"results"`
}

// Aggregate pairs every job with its outcome in job order: outcomes[i] must
// belong to jobs[i]. A missing outcome, or one for a different job, is an error.
func Aggregate(jobs []domain.Job, outcomes []domain.JobOutcome) ([]domain.Result, error) {
	if len(outcomes) != len(jobs) {
		return nil, fmt.Errorf("got %d outcomes for %d jobs", len(outcomes), len(jobs))
	}

	results := make([]domain.Result, 0, len(jobs))
	for i, job := range jobs {
		o := outcomes[i]
		if !o.State.IsTerminal() {
			return nil, fmt.Errorf("missing outcome for job %d (%s)", i, job.Filename)
		}
		if o.Job != job {
			return nil, fmt.Errorf("outcome at position %d belongs to %s, not %s", i, o.Job, job)
		}
		results = append(results, domain.Result{Filename: job.Filename, Success: o.Success})
	}
	return results, nil
}

// FailAll returns a failed result for every job, in order.
func FailAll(jobs []domain.Job) []domain.Result {
	results := make([]domain.Result, len(jobs))
	for i, job := range jobs {
		results[i] = domain.Result{Filename: job.Filename}
	}
	return results
}

// CountSuccess returns the number of succeeded and failed results.
func CountSuccess(results []domain.Result) (succeeded, failed int) {
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// SaveResults writes the result artifact to path.
func SaveResults(ctx context.Context, storage ports.Storage, path, runID string, proxyOK bool, results []domain.Result) error {
	succeeded, failed := CountSuccess(results)
	report := ResultReport{
		RunID:       runID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		ProxyOK:     proxyOK,
		Total:       len(results),
		Succeeded:   succeeded,
		Failed:      failed,
		Results:     results,
	}
	if err := storage.SaveJSON(ctx, path, report); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	return nil
}
