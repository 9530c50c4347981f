package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/jobs"
	"github.com/killallgit/parable-studio/pkg/logger"
)

// JobProcessor defines the interface for processing different job types
type JobProcessor interface {
	ProcessJob(ctx context.Context, job *models.Job) error
	CanProcess(jobType models.JobType) bool
	JobTypes() []models.JobType
}

// Worker represents a background worker that processes jobs
type Worker struct {
	id           string
	jobService   jobs.Service
	processors   []JobProcessor
	stopChan     chan struct{}
	wg           sync.WaitGroup
	pollInterval time.Duration
	log          *logger.Logger
}

// NewWorker creates a new worker instance
func NewWorker(id string, jobService jobs.Service, pollInterval time.Duration, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Nop()
	}
	return &Worker{
		id:           id,
		jobService:   jobService,
		processors:   make([]JobProcessor, 0),
		stopChan:     make(chan struct{}),
		pollInterval: pollInterval,
		log:          log.With("worker_id", id),
	}
}

// RegisterProcessor registers a job processor
func (w *Worker) RegisterProcessor(processor JobProcessor) {
	w.processors = append(w.processors, processor)
}

// Start starts the worker in a goroutine
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the worker and waits for the job in hand to finish
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.log.Info("worker starting")
	defer w.log.Info("worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			// Drain the queue before waiting for the next tick
			for {
				processed, err := w.processNextJob(ctx)
				if err != nil {
					w.log.Warn("job failed", "error", err)
				}
				if !processed || ctx.Err() != nil || w.stopping() {
					break
				}
			}
		}
	}
}

func (w *Worker) stopping() bool {
	select {
	case <-w.stopChan:
		return true
	default:
		return false
	}
}

func (w *Worker) supportedTypes() []models.JobType {
	seen := make(map[models.JobType]bool)
	var types []models.JobType
	for _, p := range w.processors {
		for _, t := range p.JobTypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	return types
}

// processNextJob claims and processes the next available job. It reports
// whether a job was claimed.
func (w *Worker) processNextJob(ctx context.Context) (bool, error) {
	supportedTypes := w.supportedTypes()
	if len(supportedTypes) == 0 {
		return false, fmt.Errorf("no job processors registered")
	}

	job, err := w.jobService.ClaimNextJob(ctx, w.id, supportedTypes)
	if err != nil {
		if errors.Is(err, jobs.ErrNoJobsAvailable) || errors.Is(err, jobs.ErrJobAlreadyClaimed) || ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("claiming job: %w", err)
	}

	log := w.log.With("job_id", job.ID, "type", job.Type, "track_id", job.TrackID)

	// Shutdown began while claiming: hand the job to the next process
	// instead of starting a step that would be interrupted at once.
	if w.stopping() || ctx.Err() != nil {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := w.jobService.ReleaseJob(rctx, job.ID); err != nil {
			return false, fmt.Errorf("releasing job %d: %w", job.ID, err)
		}
		log.Info("job released for shutdown")
		return false, nil
	}
	log.Info("job claimed")

	var processor JobProcessor
	for _, p := range w.processors {
		if p.CanProcess(job.Type) {
			processor = p
			break
		}
	}
	if processor == nil {
		err := models.NewSystemError("no_processor", fmt.Sprintf("no processor for job type %s", job.Type), "", nil)
		w.settle(ctx, job, err)
		return true, err
	}

	start := time.Now()
	err = processor.ProcessJob(ctx, job)
	w.settle(ctx, job, err)
	if err != nil {
		return true, fmt.Errorf("job %d: %w", job.ID, err)
	}
	log.Info("job completed", "elapsed", time.Since(start).String())
	return true, nil
}

// settle records the job outcome. It outlives a cancelled worker context so
// a shutdown never leaves the job in processing.
func (w *Worker) settle(ctx context.Context, job *models.Job, err error) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var settleErr error
	if err == nil {
		settleErr = w.jobService.CompleteJob(sctx, job.ID, nil)
	} else {
		settleErr = w.jobService.FailJob(sctx, job.ID, err)
	}
	if settleErr != nil {
		w.log.Error("failed to record job outcome", "job_id", job.ID, "error", settleErr)
	}
}

// WorkerPool manages multiple workers
type WorkerPool struct {
	workers    []*Worker
	jobService jobs.Service
	log        *logger.Logger
	mu         sync.RWMutex
	started    bool
}

// NewWorkerPool creates a new worker pool. Worker ids carry a per-process
// tag so job rows show which instance ran them.
func NewWorkerPool(jobService jobs.Service, workerCount int, pollInterval time.Duration, log *logger.Logger) *WorkerPool {
	if log == nil {
		log = logger.Nop()
	}
	if workerCount < 1 {
		workerCount = 1
	}
	pool := &WorkerPool{
		jobService: jobService,
		workers:    make([]*Worker, workerCount),
		log:        log.With("component", "workers"),
	}

	tag := strings.SplitN(uuid.NewString(), "-", 2)[0]
	for i := 0; i < workerCount; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", tag, i+1)
		pool.workers[i] = NewWorker(workerID, jobService, pollInterval, pool.log)
	}

	return pool
}

// RegisterProcessor registers a processor with all workers
func (p *WorkerPool) RegisterProcessor(processor JobProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, worker := range p.workers {
		worker.RegisterProcessor(processor)
	}
}

// Start starts all workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}

	p.log.Info("starting worker pool", "workers", len(p.workers))
	for _, worker := range p.workers {
		worker.Start(ctx)
	}

	p.started = true
	return nil
}

// Stop stops all workers gracefully
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.log.Info("stopping worker pool")
	for _, worker := range p.workers {
		worker.Stop()
	}

	p.started = false
}
