package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Queue priorities, higher first. Final renders go ahead of text and image
// steps because the user is waiting on the finished video.
const (
	DefaultPriority = 0
	FinalPriority   = 10
)

type service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates the job queue service
func NewService(repo Repository, log *logger.Logger) Service {
	if log == nil {
		log = logger.Nop()
	}
	return &service{
		repo: repo,
		log:  log.With("service", "jobs"),
	}
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), log: s.log}
}

func (s *service) EnqueueJob(ctx context.Context, jobType models.JobType, trackID uint, payload datatypes.JSONMap, opts ...JobOption) (*models.Job, error) {
	cfg := &jobConfig{
		Priority: DefaultPriority,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if payload == nil {
		payload = datatypes.JSONMap{}
	}
	payload["track_id"] = trackID

	job := &models.Job{
		Type:       jobType,
		Status:     models.JobStatusPending,
		TrackID:    trackID,
		Payload:    payload,
		Priority: cfg.Priority,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.log.Debug("enqueued job", "job_id", job.ID, "type", jobType, "track_id", trackID, "priority", job.Priority)

	return job, nil
}

func (s *service) EnqueueUniqueJob(ctx context.Context, jobType models.JobType, trackID uint, payload datatypes.JSONMap, opts ...JobOption) (*models.Job, bool, error) {
	existing, err := s.repo.GetActiveJob(ctx, jobType, trackID)
	switch {
	case err == nil:
		s.log.Debug("job already queued", "job_id", existing.ID, "type", jobType, "track_id", trackID, "status", existing.Status)
		return existing, false, nil
	case !errors.Is(err, ErrJobNotFound):
		return nil, false, fmt.Errorf("checking for existing job: %w", err)
	}

	job, err := s.EnqueueJob(ctx, jobType, trackID, payload, opts...)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *service) GetJob(ctx context.Context, jobID uint) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return job, nil
}

func (s *service) GetActiveJob(ctx context.Context, jobType models.JobType, trackID uint) (*models.Job, error) {
	job, err := s.repo.GetActiveJob(ctx, jobType, trackID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting active job: %w", err)
	}
	return job, nil
}

func (s *service) HasActiveJob(ctx context.Context, trackID uint) (bool, error) {
	count, err := s.repo.CountActiveJobs(ctx, trackID)
	if err != nil {
		return false, fmt.Errorf("counting active jobs: %w", err)
	}
	return count > 0, nil
}

func (s *service) ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error) {
	job, err := s.repo.ClaimNextJob(ctx, workerID, jobTypes)
	if err != nil {
		if errors.Is(err, ErrNoJobsAvailable) || errors.Is(err, ErrJobAlreadyClaimed) {
			return nil, err
		}
		return nil, fmt.Errorf("claiming job: %w", err)
	}

	s.log.Debug("claimed job", "worker_id", workerID, "type", job.Type, "job_id", job.ID, "track_id", job.TrackID)

	return job, nil
}

func (s *service) UpdateProgress(ctx context.Context, jobID uint, progress int) error {
	if err := s.repo.UpdateJobProgress(ctx, jobID, progress); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("updating progress: %w", err)
	}
	return nil
}

func (s *service) CompleteJob(ctx context.Context, jobID uint, result datatypes.JSONMap) error {
	if err := s.repo.CompleteJob(ctx, jobID, result); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("completing job: %w", err)
	}

	s.log.Debug("job completed", "job_id", jobID)

	return nil
}

// FailJob records err, keeping its classification when it is a
// StructuredJobError.
func (s *service) FailJob(ctx context.Context, jobID uint, err error) error {
	var structured *models.StructuredJobError
	if errors.As(err, &structured) {
		return s.FailJobWithDetails(ctx, jobID, structured.Type, structured.Code, structured.Message, structured.Details)
	}
	return s.FailJobWithDetails(ctx, jobID, models.ErrorTypeSystem, "", err.Error(), "")
}

func (s *service) FailJobWithDetails(ctx context.Context, jobID uint, errorType models.JobErrorType, errorCode, errorMsg, errorDetails string) error {
	if err := s.repo.FailJobWithDetails(ctx, jobID, errorType, errorCode, errorMsg, errorDetails); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("failing job with details: %w", err)
	}

	s.log.Error("job failed",
		"job_id", jobID, "error_type", errorType, "error_code", errorCode, "error", errorMsg)

	return nil
}

func (s *service) ReleaseJob(ctx context.Context, jobID uint) error {
	if err := s.repo.ReleaseJob(ctx, jobID); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("releasing job: %w", err)
	}

	s.log.Debug("job released back to pending", "job_id", jobID)

	return nil
}

func (s *service) CancelTrackJobs(ctx context.Context, trackID uint) (int64, error) {
	cancelled, err := s.repo.CancelTrackJobs(ctx, trackID)
	if err != nil {
		return 0, fmt.Errorf("cancelling track jobs: %w", err)
	}
	if cancelled > 0 {
		s.log.Info("cancelled queued jobs", "track_id", trackID, "count", cancelled)
	}
	return cancelled, nil
}

// FailInterruptedJobs closes out jobs left running by a previous process
func (s *service) FailInterruptedJobs(ctx context.Context) (int64, error) {
	failed, err := s.repo.FailProcessingJobs(ctx, "interrupted")
	if err != nil {
		return 0, fmt.Errorf("failing interrupted jobs: %w", err)
	}
	if failed > 0 {
		s.log.Warn("failed jobs interrupted by restart", "count", failed)
	}
	return failed, nil
}

func (s *service) CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}

	cutoffTime := time.Now().Add(-retention)

	deleted, err := s.repo.DeleteOldJobs(ctx, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("cleaning up old jobs: %w", err)
	}

	if deleted > 0 {
		s.log.Debug("deleted old jobs", "count", deleted, "retention", retention.String())
	}

	return deleted, nil
}
