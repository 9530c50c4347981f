package jobs

import (
	"context"
	"time"

	"github.com/killallgit/parable-studio/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service defines the business logic interface for job operations
type Service interface {
	// WithTx returns a service whose writes join tx
	WithTx(tx *gorm.DB) Service

	// Enqueue operations
	EnqueueJob(ctx context.Context, jobType models.JobType, trackID uint, payload datatypes.JSONMap, opts ...JobOption) (*models.Job, error)
	// EnqueueUniqueJob returns the live job of the same type for the track
	// instead of creating a second one. created reports which happened.
	EnqueueUniqueJob(ctx context.Context, jobType models.JobType, trackID uint, payload datatypes.JSONMap, opts ...JobOption) (job *models.Job, created bool, err error)

	// Status and retrieval
	GetJob(ctx context.Context, jobID uint) (*models.Job, error)
	GetActiveJob(ctx context.Context, jobType models.JobType, trackID uint) (*models.Job, error)
	HasActiveJob(ctx context.Context, trackID uint) (bool, error)

	// Worker operations (used by worker pool)
	ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error)
	UpdateProgress(ctx context.Context, jobID uint, progress int) error
	CompleteJob(ctx context.Context, jobID uint, result datatypes.JSONMap) error
	FailJob(ctx context.Context, jobID uint, err error) error
	FailJobWithDetails(ctx context.Context, jobID uint, errorType models.JobErrorType, errorCode, errorMsg, errorDetails string) error
	ReleaseJob(ctx context.Context, jobID uint) error

	// Maintenance
	CancelTrackJobs(ctx context.Context, trackID uint) (int64, error)
	FailInterruptedJobs(ctx context.Context) (int64, error)
	CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error)
}

// JobOption is a functional option for configuring jobs
type JobOption func(*jobConfig)

// jobConfig holds configuration for a job
type jobConfig struct {
	Priority int
}

// WithPriority sets the priority of a job (higher = more priority)
func WithPriority(priority int) JobOption {
	return func(cfg *jobConfig) {
		cfg.Priority = priority
	}
}
