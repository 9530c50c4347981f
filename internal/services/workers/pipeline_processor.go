package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/jobs"
	"github.com/killallgit/parable-studio/internal/services/pipeline"
	"github.com/killallgit/parable-studio/pkg/logger"
)

// PipelineRunner executes the automated track steps
type PipelineRunner interface {
	RunProcess(ctx context.Context, trackID uint, progress pipeline.ProgressFunc) error
	RunRegenerateImages(ctx context.Context, trackID uint, progress pipeline.ProgressFunc) error
	RunFinal(ctx context.Context, trackID uint, progress pipeline.ProgressFunc) error
	Abort(ctx context.Context, trackID uint, cause error)
}

// PipelineProcessor runs track jobs through the pipeline controller
type PipelineProcessor struct {
	jobService jobs.Service
	runner     PipelineRunner
	log        *logger.Logger
}

// NewPipelineProcessor creates a processor for every track job type
func NewPipelineProcessor(jobService jobs.Service, runner PipelineRunner, log *logger.Logger) *PipelineProcessor {
	if log == nil {
		log = logger.Nop()
	}
	return &PipelineProcessor{
		jobService: jobService,
		runner:     runner,
		log:        log.With("processor", "pipeline"),
	}
}

// JobTypes implements JobProcessor
func (p *PipelineProcessor) JobTypes() []models.JobType {
	return []models.JobType{
		models.JobTypeTrackProcess,
		models.JobTypeRegenerateImages,
		models.JobTypeAssembleFinal,
	}
}

// CanProcess returns true if this processor can handle the job type
func (p *PipelineProcessor) CanProcess(jobType models.JobType) bool {
	for _, t := range p.JobTypes() {
		if t == jobType {
			return true
		}
	}
	return false
}

// ProcessJob runs the job's steps. A panic fails the track instead of the
// worker.
func (p *PipelineProcessor) ProcessJob(ctx context.Context, job *models.Job) (err error) {
	if !p.CanProcess(job.Type) {
		return fmt.Errorf("unsupported job type: %s", job.Type)
	}

	trackID, err := p.parseTrackID(job)
	if err != nil {
		return models.NewSystemError("invalid_payload", "Invalid job payload", err.Error(), err)
	}

	defer func() {
		if r := recover(); r != nil {
			cause := fmt.Errorf("panic: %v", r)
			p.log.Error("pipeline job panicked", "job_id", job.ID, "track_id", trackID, "panic", r, "stack", string(debug.Stack()))
			p.runner.Abort(context.WithoutCancel(ctx), trackID, cause)
			err = models.NewSystemError("panic", "pipeline job panicked", cause.Error(), cause)
		}
	}()

	progress := func(percent int) {
		if err := p.jobService.UpdateProgress(ctx, job.ID, percent); err != nil {
			p.log.Warn("failed to update job progress", "job_id", job.ID, "error", err)
		}
	}

	switch job.Type {
	case models.JobTypeTrackProcess:
		err = p.runner.RunProcess(ctx, trackID, progress)
	case models.JobTypeRegenerateImages:
		err = p.runner.RunRegenerateImages(ctx, trackID, progress)
	default:
		err = p.runner.RunFinal(ctx, trackID, progress)
	}

	// A failed job never leaves its track busy. Status mismatches mean the
	// track belongs to someone else and is left alone.
	if err != nil && !isStatusMismatch(err) {
		p.runner.Abort(context.WithoutCancel(ctx), trackID, err)
	}
	return err
}

func isStatusMismatch(err error) bool {
	var structured *models.StructuredJobError
	return errors.As(err, &structured) && structured.Type == models.ErrorTypeValidation
}

// parseTrackID prefers the indexed column and falls back to the payload
func (p *PipelineProcessor) parseTrackID(job *models.Job) (uint, error) {
	if job.TrackID != 0 {
		return job.TrackID, nil
	}
	id, ok := job.GetPayloadInt("track_id")
	if !ok || id <= 0 {
		return 0, fmt.Errorf("missing track_id in payload")
	}
	return uint(id), nil
}
