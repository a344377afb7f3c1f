package service

import (
	"context"
	"log"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"

	"tubebatch/internal/core/domain"
)

// JobProcessor runs one job to a terminal outcome.
type JobProcessor interface {
	Run(ctx context.Context, job domain.Job, proxy domain.ProxyConfig, outputDir string) domain.JobOutcome
}

// Pool runs jobs on a fixed number of workers fed by a task channel.
type Pool struct {
	processor JobProcessor
	size      int
	outputDir string
	logger    *log.Logger
}

// NewPool creates a Pool. size <= 0 uses DefaultWorkers.
func NewPool(processor JobProcessor, size int, outputDir string, logger *log.Logger) *Pool {
	if size <= 0 {
		size = DefaultWorkers()
	}
	return &Pool{
		processor: processor,
		size:      size,
		outputDir: outputDir,
		logger:    logger,
	}
}

// DefaultWorkers returns the number of logical CPUs.
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

type task struct {
	pos int
	job domain.Job
}

type positioned struct {
	pos     int
	outcome domain.JobOutcome
}

// Run processes every job and blocks until all of them reach a terminal state.
// outcomes[i] belongs to jobs[i] whatever the completion order or Job.Index values.
func (p *Pool) Run(ctx context.Context, jobs []domain.Job, proxy domain.ProxyConfig) []domain.JobOutcome {
	if len(jobs) == 0 {
		return nil
	}

	workers := min(p.size, len(jobs))
	tasks := make(chan task)
	results := make(chan positioned, len(jobs))

	p.logger.Printf("Dispatching %d jobs on %d workers", len(jobs), workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.worker(ctx, tasks, results, proxy, &wg)
	}

	for i, job := range jobs {
		tasks <- task{pos: i, job: job}
	}
	close(tasks)
	wg.Wait()
	close(results)

	outcomes := make([]domain.JobOutcome, len(jobs))
	for r := range results {
		outcomes[r.pos] = r.outcome
	}
	return outcomes
}

func (p *Pool) worker(ctx context.Context, tasks <-chan task, results chan<- positioned, proxy domain.ProxyConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	for t := range tasks {
		results <- positioned{pos: t.pos, outcome: p.processor.Run(ctx, t.job, proxy, p.outputDir)}
	}
}
