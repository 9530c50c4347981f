package types

import (
	"context"
	"io"

	"github.com/killallgit/parable-studio/internal/database"
	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/jobs"
	"github.com/killallgit/parable-studio/internal/services/music"
	"github.com/killallgit/parable-studio/internal/services/parables"
	"github.com/killallgit/parable-studio/internal/services/pipeline"
	"github.com/killallgit/parable-studio/internal/services/scenes"
	"github.com/killallgit/parable-studio/internal/services/workers"
	"github.com/killallgit/parable-studio/pkg/logger"
)

// Pipeline is the track operations exposed over HTTP
type Pipeline interface {
	TriggerProcess(ctx context.Context, trackID uint) (*pipeline.Trigger, error)
	TriggerRegenerateImages(ctx context.Context, trackID uint) (*pipeline.Trigger, error)
	TriggerFinal(ctx context.Context, trackID uint) (*pipeline.Trigger, error)
	UploadAudio(ctx context.Context, trackID uint, filename string, data io.Reader, size int64) (*models.AudioFile, error)
	UploadVideo(ctx context.Context, trackID uint, sceneOrder int, filename string, data io.Reader, size int64) (*models.VideoFragment, error)
	SetTargetDuration(ctx context.Context, trackID, fragmentID uint, target *float64) (*models.VideoFragment, error)
}

// MusicLibrary is the background music catalogue
type MusicLibrary interface {
	List(ctx context.Context, mood string) ([]models.MusicTrack, error)
	Upload(ctx context.Context, in music.UploadInput) (*models.MusicTrack, error)
}

// URLResolver turns asset keys into client-facing URLs
type URLResolver interface {
	URL(key string) string
}

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB         *database.DB
	Parables   parables.Service
	Scenes     scenes.Service
	Pipeline   Pipeline
	Music      MusicLibrary
	JobService jobs.Service
	Assets     URLResolver
	WorkerPool *workers.WorkerPool
	Log        *logger.Logger

	// MaxUploadBytes bounds multipart uploads; zero means unlimited
	MaxUploadBytes int64
	Version        string
}

// Logger returns the configured logger or a no-op one
func (d *Dependencies) Logger() *logger.Logger {
	if d == nil || d.Log == nil {
		return logger.Nop()
	}
	return d.Log
}
