package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) RunProcess(ctx context.Context, trackID uint, progress pipeline.ProgressFunc) error {
	return m.Called(ctx, trackID, progress).Error(0)
}

func (m *mockRunner) RunRegenerateImages(ctx context.Context, trackID uint, progress pipeline.ProgressFunc) error {
	return m.Called(ctx, trackID, progress).Error(0)
}

func (m *mockRunner) RunFinal(ctx context.Context, trackID uint, progress pipeline.ProgressFunc) error {
	return m.Called(ctx, trackID, progress).Error(0)
}

func (m *mockRunner) Abort(ctx context.Context, trackID uint, cause error) {
	m.Called(ctx, trackID, cause)
}

func TestPipelineProcessor_ProcessJob(t *testing.T) {
	ctx := context.Background()
	progressArg := mock.Anything

	tests := []struct {
		name   string
		job    *models.Job
		method string
		track  uint
		err    error
		abort  bool
	}{
		{
			name:   "process dispatches on track column",
			job:    &models.Job{Type: models.JobTypeTrackProcess, TrackID: 7},
			method: "RunProcess",
			track:  7,
		},
		{
			name:   "regenerate falls back to payload",
			job:    &models.Job{Type: models.JobTypeRegenerateImages, Payload: datatypes.JSONMap{"track_id": float64(9)}},
			method: "RunRegenerateImages",
			track:  9,
		},
		{
			name:   "final returns runner error",
			job:    &models.Job{Type: models.JobTypeAssembleFinal, TrackID: 4},
			method: "RunFinal",
			track:  4,
			err:    errors.New("render failed"),
			abort:  true,
		},
		{
			name:   "lock failure aborts the track",
			job:    &models.Job{Type: models.JobTypeTrackProcess, TrackID: 3},
			method: "RunProcess",
			track:  3,
			err:    models.NewSystemError("lock_failed", "could not lock track", "redis: connection refused", errors.New("redis: connection refused")),
			abort:  true,
		},
		{
			name:   "status mismatch leaves the track alone",
			job:    &models.Job{Type: models.JobTypeAssembleFinal, TrackID: 5},
			method: "RunFinal",
			track:  5,
			err:    models.NewValidationError("unexpected_status", "track 5 is processing, expected generating_final", "", nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			runner.On(tt.method, ctx, tt.track, progressArg).Return(tt.err)
			if tt.abort {
				runner.On("Abort", mock.Anything, tt.track, tt.err).Return()
			}

			p := NewPipelineProcessor(nil, runner, nil)
			err := p.ProcessJob(ctx, tt.job)

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			runner.AssertExpectations(t)
			if !tt.abort {
				runner.AssertNotCalled(t, "Abort", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestPipelineProcessor_ProcessJobRejects(t *testing.T) {
	ctx := context.Background()
	runner := new(mockRunner)
	p := NewPipelineProcessor(nil, runner, nil)

	err := p.ProcessJob(ctx, &models.Job{Type: models.JobType("transcode"), TrackID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported job type")

	err = p.ProcessJob(ctx, &models.Job{Type: models.JobTypeTrackProcess})
	require.Error(t, err)
	var jobErr *models.StructuredJobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, models.ErrorTypeSystem, jobErr.Type)

	runner.AssertNotCalled(t, "RunProcess", mock.Anything, mock.Anything, mock.Anything)
}
