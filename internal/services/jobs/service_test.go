package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/killallgit/parable-studio/internal/database"
	"github.com/killallgit/parable-studio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewService(NewRepository(conn.DB), nil), conn.DB
}

func TestEnqueueJob(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 7, nil, WithPriority(5))
	require.NoError(t, err)
	assert.NotZero(t, job.ID)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, uint(7), job.TrackID)
	assert.Equal(t, 5, job.Priority)

	loaded, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	trackID, ok := loaded.GetPayloadInt("track_id")
	assert.True(t, ok)
	assert.Equal(t, 7, trackID)
}

func TestEnqueueUniqueJob(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	first, created, err := svc.EnqueueUniqueJob(ctx, models.JobTypeTrackProcess, 1, nil)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.EnqueueUniqueJob(ctx, models.JobTypeTrackProcess, 1, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// Different type or track is a different job
	other, created, err := svc.EnqueueUniqueJob(ctx, models.JobTypeAssembleFinal, 1, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)

	_, created, err = svc.EnqueueUniqueJob(ctx, models.JobTypeTrackProcess, 2, nil)
	require.NoError(t, err)
	assert.True(t, created)

	// Once finished, a new job may be queued
	require.NoError(t, svc.CompleteJob(ctx, first.ID, nil))
	third, created, err := svc.EnqueueUniqueJob(ctx, models.JobTypeTrackProcess, 1, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestClaimNextJob(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.ClaimNextJob(ctx, "worker-1", nil)
	assert.ErrorIs(t, err, ErrNoJobsAvailable)

	low, err := svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 1, nil)
	require.NoError(t, err)
	high, err := svc.EnqueueJob(ctx, models.JobTypeAssembleFinal, 2, nil, WithPriority(10))
	require.NoError(t, err)

	claimed, err := svc.ClaimNextJob(ctx, "worker-1", nil)
	require.NoError(t, err)
	assert.Equal(t, high.ID, claimed.ID)
	assert.Equal(t, models.JobStatusProcessing, claimed.Status)
	assert.Equal(t, "worker-1", claimed.WorkerID)
	assert.NotNil(t, claimed.StartedAt)

	// Type filter
	_, err = svc.ClaimNextJob(ctx, "worker-2", []models.JobType{models.JobTypeRegenerateImages})
	assert.ErrorIs(t, err, ErrNoJobsAvailable)

	claimed, err = svc.ClaimNextJob(ctx, "worker-2", []models.JobType{models.JobTypeTrackProcess})
	require.NoError(t, err)
	assert.Equal(t, low.ID, claimed.ID)

	_, err = svc.ClaimNextJob(ctx, "worker-3", nil)
	assert.ErrorIs(t, err, ErrNoJobsAvailable)
}

func TestFailJob(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	t.Run("plain error", func(t *testing.T) {
		job, err := svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 1, nil)
		require.NoError(t, err)
		_, err = svc.ClaimNextJob(ctx, "w", nil)
		require.NoError(t, err)

		require.NoError(t, svc.FailJob(ctx, job.ID, errors.New("boom")))

		loaded, err := svc.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusFailed, loaded.Status)
		assert.True(t, loaded.IsTerminal())
		assert.NotNil(t, loaded.CompletedAt)
		assert.Equal(t, "boom", loaded.Error)
		assert.Equal(t, string(models.ErrorTypeSystem), loaded.ErrorType)

		active, err := svc.HasActiveJob(ctx, 1)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("structured error keeps its classification", func(t *testing.T) {
		job, err := svc.EnqueueJob(ctx, models.JobTypeAssembleFinal, 2, nil, WithPriority(FinalPriority))
		require.NoError(t, err)
		_, err = svc.ClaimNextJob(ctx, "w", nil)
		require.NoError(t, err)

		cause := models.NewGenerationError("ffmpeg_failed", "render failed", "exit status 1", nil)
		require.NoError(t, svc.FailJob(ctx, job.ID, cause))

		loaded, err := svc.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, string(models.ErrorTypeGeneration), loaded.ErrorType)
		assert.Equal(t, "ffmpeg_failed", loaded.ErrorCode)
		assert.Equal(t, "exit status 1", loaded.ErrorDetails)
		assert.Empty(t, loaded.WorkerID)

		// A failed step is resumed by a new trigger, never re-claimed
		_, err = svc.ClaimNextJob(ctx, "w", nil)
		assert.ErrorIs(t, err, ErrNoJobsAvailable)
	})

	t.Run("unknown job", func(t *testing.T) {
		assert.ErrorIs(t, svc.FailJob(ctx, 9999, errors.New("boom")), ErrJobNotFound)
	})
}

func TestReleaseJob(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 1, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ReleaseJob(ctx, job.ID), ErrJobNotFound, "pending jobs cannot be released")

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateProgress(ctx, job.ID, 40))
	require.NoError(t, svc.ReleaseJob(ctx, job.ID))

	loaded, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, loaded.Status)
	assert.Equal(t, 0, loaded.Progress)
	assert.Empty(t, loaded.WorkerID)
}

func TestCompleteJob(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeAssembleFinal, 1, nil)
	require.NoError(t, err)
	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)

	require.NoError(t, svc.CompleteJob(ctx, job.ID, datatypes.JSONMap{"duration": 42.5}))

	loaded, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, loaded.Status)
	assert.Equal(t, 100, loaded.Progress)
	assert.Equal(t, json.Number("42.5"), loaded.Result["duration"])
}

func TestFailInterruptedJobs(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	running, err := svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 1, nil)
	require.NoError(t, err)
	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	queued, err := svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 2, nil)
	require.NoError(t, err)

	failed, err := svc.FailInterruptedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), failed)

	loaded, err := svc.GetJob(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, loaded.Status)
	assert.True(t, loaded.IsTerminal())
	assert.Equal(t, "interrupted", loaded.ErrorCode)

	loaded, err = svc.GetJob(ctx, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, loaded.Status)
}

func TestCancelTrackJobs(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 1, nil)
	require.NoError(t, err)
	_, err = svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 2, nil)
	require.NoError(t, err)

	cancelled, err := svc.CancelTrackJobs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cancelled)

	active, err := svc.HasActiveJob(ctx, 1)
	require.NoError(t, err)
	assert.False(t, active)
	active, err = svc.HasActiveJob(ctx, 2)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestCleanupOldJobs(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, err := svc.CleanupOldJobs(ctx, 0)
	assert.Error(t, err)

	old, err := svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 1, nil)
	require.NoError(t, err)
	require.NoError(t, svc.CompleteJob(ctx, old.ID, nil))
	pending, err := svc.EnqueueJob(ctx, models.JobTypeTrackProcess, 2, nil)
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.Job{}).Where("id IN ?", []uint{old.ID, pending.ID}).
		Update("created_at", past).Error)

	deleted, err := svc.CleanupOldJobs(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.GetJob(ctx, old.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.GetJob(ctx, pending.ID)
	assert.NoError(t, err)
}

func TestWithTx_Rollback(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.WithTx(tx).EnqueueJob(ctx, models.JobTypeTrackProcess, 9, nil); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	active, err := svc.HasActiveJob(ctx, 9)
	require.NoError(t, err)
	assert.False(t, active)
}
