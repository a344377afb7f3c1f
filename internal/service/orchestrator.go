package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tubebatch/internal/console"
	"tubebatch/internal/core/domain"
	"tubebatch/internal/core/ports"
)

// BatchOptions configures one run.
type BatchOptions struct {
	ProxyHost  string
	ProxyPort  int
	Probe      bool
	ResultPath string
}

// Orchestrator coordinates the batch download workflow.
type Orchestrator struct {
	source    ports.JobSource
	validator ports.ProxyValidator
	pool      *Pool
	storage   ports.Storage
	logger    *log.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	source ports.JobSource,
	validator ports.ProxyValidator,
	pool *Pool,
	storage ports.Storage,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		source:    source,
		validator: validator,
		pool:      pool,
		storage:   storage,
		logger:    logger,
	}
}

// RunBatch loads the jobs, gates them on one proxy probe, runs them and
// writes the result artifact. Job failures never surface as an error here.
func (o *Orchestrator) RunBatch(ctx context.Context, opts BatchOptions) (*domain.BatchResult, error) {
	runID := uuid.New().String()
	result := &domain.BatchResult{
		RunID:      runID,
		ResultPath: opts.ResultPath,
		StartedAt:  time.Now().UTC(),
	}
	o.logger.Printf("[RUN %s] Loading jobs...", runID)

	jobs, err := o.source.Jobs(ctx)
	if err != nil {
		o.logger.Printf("[RUN %s] ERROR: failed to load jobs: %v", runID, err)
		return result, fmt.Errorf("failed to load jobs: %w", err)
	}
	o.logger.Printf("[RUN %s] Loaded %d jobs", runID, len(jobs))

	ok, proxy := o.validator.Validate(ctx, opts.ProxyHost, opts.ProxyPort, opts.Probe)
	result.ProxyOK = ok
	if ok {
		o.logger.Printf("[RUN %s] Proxy %s %s", runID, proxy.HTTP, console.Success("ready"))
		outcomes := o.pool.Run(ctx, jobs, proxy)
		result.Results, err = Aggregate(jobs, outcomes)
		if err != nil {
			o.logger.Printf("[RUN %s] ERROR: %v", runID, err)
			return result, err
		}
	} else {
		o.logger.Printf("[RUN %s] Proxy %s %s, no job dispatched", runID, proxy.HTTP, console.Fail("unreachable"))
		result.Results = FailAll(jobs)
	}
	result.Succeeded, result.Failed = CountSuccess(result.Results)

	if opts.ResultPath != "" {
		if err := SaveResults(ctx, o.storage, opts.ResultPath, runID, ok, result.Results); err != nil {
			o.logger.Printf("[RUN %s] ERROR: %v", runID, err)
			return result, err
		}
		o.logger.Printf("[RUN %s] Results saved to: %s", runID, console.Muted(opts.ResultPath))
	}

	result.CompletedAt = time.Now().UTC()
	o.logger.Printf("[RUN %s] Completed: %s, %s",
		runID,
		console.Success(fmt.Sprintf("%d succeeded", result.Succeeded)),
		console.Fail(fmt.Sprintf("%d failed", result.Failed)))
	return result, nil
}
