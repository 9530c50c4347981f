package parables

import (
	"context"

	"github.com/killallgit/parable-studio/internal/models"
)

// Repository defines data access for parables and their tracks
type Repository interface {
	// Create operations
	CreateParable(ctx context.Context, parable *models.Parable) error
	CreateTrack(ctx context.Context, track *models.Track) error

	// Read operations
	ListParables(ctx context.Context, limit, offset int) ([]models.Parable, int64, error)
	GetParable(ctx context.Context, id uint) (*models.Parable, error)
	GetTrack(ctx context.Context, parableID uint, language models.Language) (*models.Track, error)
	GetTrackByID(ctx context.Context, trackID uint) (*models.Track, error)
	GetTitleVariants(ctx context.Context, trackID uint) ([]models.TitleVariant, error)

	// Delete operations
	DeleteParable(ctx context.Context, id uint) (trackIDs []uint, err error)
}

// Service defines the business logic for parables and their tracks
type Service interface {
	CreateParable(ctx context.Context, title, text string) (*models.Parable, error)
	ListParables(ctx context.Context, limit, offset int) ([]models.Parable, int64, error)

	// GetParable loads the parable with both tracks and every scene asset
	GetParable(ctx context.Context, id uint) (*models.Parable, error)
	GetTrack(ctx context.Context, parableID uint, language models.Language) (*models.Track, error)
	GetTitleVariants(ctx context.Context, parableID uint, language models.Language) ([]models.TitleVariant, error)

	// CreateEnglishTrack adds the localized track once the original has narration text
	CreateEnglishTrack(ctx context.Context, parableID uint) (*models.Track, error)

	// DeleteParable removes the parable, its tracks, their rows and binaries
	DeleteParable(ctx context.Context, id uint) error
}
