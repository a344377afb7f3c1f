package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tubebatch/internal/console"
	"tubebatch/internal/core/domain"
)

// DefaultMaxAttempts is the job-level attempt budget.
const DefaultMaxAttempts = 3

var allowedTransitions = map[domain.JobState]map[domain.JobState]bool{
	domain.StatePending: {
		domain.StateAttempting: true,
	},
	domain.StateAttempting: {
		domain.StateSucceeded: true,
		domain.StateRetrying:  true,
		domain.StateFailed:    true,
	},
	domain.StateRetrying: {
		domain.StateAttempting: true,
	},
}

func canTransition(from, to domain.JobState) bool {
	return allowedTransitions[from][to]
}

// JobRunner performs one attempt of a job.
type JobRunner interface {
	Execute(ctx context.Context, job domain.Job, proxy domain.ProxyConfig, outputDir string) (bool, error)
}

// RetryController drives one job through pending -> attempting -> {succeeded, retrying, failed}.
type RetryController struct {
	runner      JobRunner
	maxAttempts int
	logger      *log.Logger
}

// NewRetryController creates a RetryController. maxAttempts <= 0 uses DefaultMaxAttempts.
func NewRetryController(runner JobRunner, maxAttempts int, logger *log.Logger) *RetryController {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &RetryController{
		runner:      runner,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// jobRun is the ephemeral state of one job, owned by a single goroutine.
type jobRun struct {
	job      domain.Job
	state    domain.JobState
	retry    domain.RetryState
	attempts int
	reason   string
}

func (r *jobRun) transition(to domain.JobState, reason string) error {
	if !canTransition(r.state, to) {
		return fmt.Errorf("invalid job state transition: %q -> %q (job=%d file=%s)", r.state, to, r.job.Index, r.job.Filename)
	}
	r.state = to
	r.reason = reason
	return nil
}

// Run processes job until it reaches a terminal state. It never returns an error:
// every failure becomes an outcome with Success=false.
func (c *RetryController) Run(ctx context.Context, job domain.Job, proxy domain.ProxyConfig, outputDir string) domain.JobOutcome {
	run := &jobRun{
		job:   job,
		state: domain.StatePending,
		retry: domain.RetryState{AttemptsRemaining: c.maxAttempts},
	}
	c.logger.Printf("[JOB %d] Processing: %s", job.Index, job.Filename)

	for !run.state.IsTerminal() {
		if err := run.transition(domain.StateAttempting, ""); err != nil {
			c.abort(run, err)
			break
		}
		run.attempts++
		run.retry.AttemptsRemaining--
		c.logger.Printf("[JOB %d] Attempt %d/%d: %s", job.Index, run.attempts, c.maxAttempts, job.Filename)

		ok, err := c.runner.Execute(ctx, job, proxy, outputDir)
		run.retry.LastClassification = domain.Classify(err)
		if err := c.step(run, ok, err); err != nil {
			c.abort(run, err)
		}
	}

	return domain.JobOutcome{
		Job:               job,
		Success:           run.state == domain.StateSucceeded,
		Attempts:          run.attempts,
		AttemptsRemaining: run.retry.AttemptsRemaining,
		State:             run.state,
		Reason:            run.reason,
	}
}

// step applies the outcome of one attempt.
func (c *RetryController) step(run *jobRun, ok bool, execErr error) error {
	job := run.job
	switch {
	case execErr == nil && ok:
		c.logger.Printf("[JOB %d] Download %s: %s", job.Index, console.Success("Success"), job.Filename)
		return run.transition(domain.StateSucceeded, "")

	case execErr == nil:
		run.retry.AttemptsRemaining = 0
		c.logger.Printf("[JOB %d] Download video %s %s, not retrying", job.Index, job.Filename, console.Fail("failed"))
		return run.transition(domain.StateFailed, "unsupported_content")

	case run.retry.LastClassification == domain.ClassTransient:
		if run.retry.AttemptsRemaining > 0 {
			c.logger.Printf("[JOB %d] Download video %s %s because of proxy error, will retry later... (%d attempts left)",
				job.Index, job.Filename, console.Warn("failed"), run.retry.AttemptsRemaining)
			return run.transition(domain.StateRetrying, "proxy_error")
		}
		c.logger.Printf("[JOB %d] Download video %s %s because of proxy error, no attempts left",
			job.Index, job.Filename, console.Fail("failed"))
		return run.transition(domain.StateFailed, "proxy_error")

	default:
		run.retry.AttemptsRemaining = 0
		reason := fatalReason(execErr)
		switch reason {
		case "video_not_found":
			c.logger.Printf("[JOB %d] Download video %s %s because of video not found, failed!", job.Index, job.Filename, console.Fail("failed"))
		default:
			c.logger.Printf("[JOB %d] Download video %s %s: %v", job.Index, job.Filename, console.Fail("failed"), execErr)
		}
		return run.transition(domain.StateFailed, reason)
	}
}

func (c *RetryController) abort(run *jobRun, err error) {
	c.logger.Printf("[JOB %d] ERROR: %v", run.job.Index, err)
	run.state = domain.StateFailed
	run.reason = "internal_error"
}

func fatalReason(err error) string {
	var notFound *domain.VideoNotFoundError
	var fsErr *domain.FilesystemError
	switch {
	case errors.As(err, &notFound):
		return "video_not_found"
	case errors.As(err, &fsErr):
		return "filesystem_error"
	default:
		return "download_error"
	}
}
