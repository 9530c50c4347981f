package parables

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/parable-studio/internal/models"
	"gorm.io/gorm"
)

var (
	ErrParableNotFound = errors.New("parable not found")
	ErrTrackNotFound   = errors.New("track not found")
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new parable repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// trackAssets preloads everything a track snapshot shows, in display order
func trackAssets(db *gorm.DB, prefix string) *gorm.DB {
	byOrder := func(db *gorm.DB) *gorm.DB { return db.Order("scene_order ASC") }
	return db.
		Preload(prefix+"TitleVariants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload(prefix+"ImagePrompts", byOrder).
		Preload(prefix+"GeneratedImages", byOrder).
		Preload(prefix+"VideoFragments", byOrder).
		Preload(prefix + "Audio")
}

func (r *GormRepository) CreateParable(ctx context.Context, parable *models.Parable) error {
	if err := r.db.WithContext(ctx).Create(parable).Error; err != nil {
		return fmt.Errorf("failed to create parable: %w", err)
	}
	return nil
}

func (r *GormRepository) CreateTrack(ctx context.Context, track *models.Track) error {
	if err := r.db.WithContext(ctx).Create(track).Error; err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}
	return nil
}

// ListParables returns a page of parables, newest first, with their tracks
func (r *GormRepository) ListParables(ctx context.Context, limit, offset int) ([]models.Parable, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Parable{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count parables: %w", err)
	}

	var parables []models.Parable
	err := r.db.WithContext(ctx).
		Preload("Tracks", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&parables).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list parables: %w", err)
	}
	return parables, total, nil
}

func (r *GormRepository) GetParable(ctx context.Context, id uint) (*models.Parable, error) {
	var parable models.Parable
	err := trackAssets(r.db.WithContext(ctx), "Tracks.").
		Preload("Tracks", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&parable, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParableNotFound
		}
		return nil, fmt.Errorf("failed to get parable: %w", err)
	}
	return &parable, nil
}

func (r *GormRepository) GetTrack(ctx context.Context, parableID uint, language models.Language) (*models.Track, error) {
	var track models.Track
	err := trackAssets(r.db.WithContext(ctx), "").
		Where("parable_id = ? AND language = ?", parableID, language).
		First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrackNotFound
		}
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return &track, nil
}

func (r *GormRepository) GetTrackByID(ctx context.Context, trackID uint) (*models.Track, error) {
	var track models.Track
	err := trackAssets(r.db.WithContext(ctx), "").First(&track, trackID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrackNotFound
		}
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return &track, nil
}

func (r *GormRepository) GetTitleVariants(ctx context.Context, trackID uint) ([]models.TitleVariant, error) {
	var variants []models.TitleVariant
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("position ASC").
		Find(&variants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get title variants: %w", err)
	}
	return variants, nil
}

// DeleteParable removes the parable and every row owned by its tracks in one
// transaction. The deleted track ids are returned so binaries can follow.
func (r *GormRepository) DeleteParable(ctx context.Context, id uint) ([]uint, error) {
	var trackIDs []uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parable models.Parable
		if err := tx.First(&parable, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParableNotFound
			}
			return err
		}

		if err := tx.Model(&models.Track{}).Where("parable_id = ?", id).Pluck("id", &trackIDs).Error; err != nil {
			return err
		}

		if len(trackIDs) > 0 {
			owned := []any{
				&models.TitleVariant{},
				&models.VideoFragment{},
				&models.GeneratedImage{},
				&models.ImagePrompt{},
				&models.AudioFile{},
			}
			for _, m := range owned {
				if err := tx.Where("track_id IN ?", trackIDs).Delete(m).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("parable_id = ?", id).Delete(&models.Track{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&parable).Error
	})
	if err != nil {
		if errors.Is(err, ErrParableNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete parable: %w", err)
	}
	return trackIDs, nil
}
