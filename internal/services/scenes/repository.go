package scenes

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/parable-studio/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPromptNotFound   = errors.New("image prompt not found")
	ErrImageNotFound    = errors.New("generated image not found")
	ErrFragmentNotFound = errors.New("video fragment not found")
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new scene repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	return &GormRepository{db: tx}
}

func (r *GormRepository) GetPrompts(ctx context.Context, trackID uint) ([]models.ImagePrompt, error) {
	var prompts []models.ImagePrompt
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("scene_order ASC").
		Find(&prompts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get prompts: %w", err)
	}
	return prompts, nil
}

func (r *GormRepository) GetPrompt(ctx context.Context, trackID uint, sceneOrder int) (*models.ImagePrompt, error) {
	var prompt models.ImagePrompt
	err := r.db.WithContext(ctx).
		Where("track_id = ? AND scene_order = ?", trackID, sceneOrder).
		First(&prompt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &prompt, nil
}

// ReplacePrompts swaps the prompt set in one transaction. Every image goes
// with the old prompts; fragments survive only for orders still present.
func (r *GormRepository) ReplacePrompts(ctx context.Context, trackID uint, prompts []models.ImagePrompt) ([]string, error) {
	var removed []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var images []models.GeneratedImage
		if err := tx.Where("track_id = ?", trackID).Find(&images).Error; err != nil {
			return err
		}
		for _, img := range images {
			removed = append(removed, img.ImagePath)
		}

		orders := make([]int, 0, len(prompts))
		for _, p := range prompts {
			orders = append(orders, p.SceneOrder)
		}
		var orphans []models.VideoFragment
		if err := tx.Where("track_id = ? AND scene_order NOT IN ?", trackID, orders).Find(&orphans).Error; err != nil {
			return err
		}
		for _, f := range orphans {
			removed = append(removed, f.VideoPath)
		}

		if len(orphans) > 0 {
			if err := tx.Delete(&orphans).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("track_id = ?", trackID).Delete(&models.GeneratedImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("track_id = ?", trackID).Delete(&models.ImagePrompt{}).Error; err != nil {
			return err
		}
		if len(prompts) == 0 {
			return nil
		}
		return tx.Create(&prompts).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace prompts: %w", err)
	}
	return removed, nil
}

func (r *GormRepository) GetImages(ctx context.Context, trackID uint) ([]models.GeneratedImage, error) {
	var images []models.GeneratedImage
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("scene_order ASC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}
	return images, nil
}

func (r *GormRepository) GetImage(ctx context.Context, trackID uint, sceneOrder int) (*models.GeneratedImage, error) {
	var image models.GeneratedImage
	err := r.db.WithContext(ctx).
		Where("track_id = ? AND scene_order = ?", trackID, sceneOrder).
		First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &image, nil
}

// ReplaceImage deletes the scene's current image row and inserts image, so
// the new row always gets a fresh id.
func (r *GormRepository) ReplaceImage(ctx context.Context, image *models.GeneratedImage) (*models.GeneratedImage, error) {
	var previous *models.GeneratedImage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.GeneratedImage
		err := tx.Where("track_id = ? AND scene_order = ?", image.TrackID, image.SceneOrder).First(&existing).Error
		switch {
		case err == nil:
			previous = &existing
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		image.ID = 0
		return tx.Create(image).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace image: %w", err)
	}
	return previous, nil
}

func (r *GormRepository) DeleteImages(ctx context.Context, trackID uint) ([]string, error) {
	var images []models.GeneratedImage
	db := r.db.WithContext(ctx)
	if err := db.Where("track_id = ?", trackID).Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	if len(images) == 0 {
		return nil, nil
	}
	if err := db.Delete(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to delete images: %w", err)
	}

	paths := make([]string, 0, len(images))
	for _, img := range images {
		paths = append(paths, img.ImagePath)
	}
	return paths, nil
}

func (r *GormRepository) GetFragments(ctx context.Context, trackID uint) ([]models.VideoFragment, error) {
	var fragments []models.VideoFragment
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("scene_order ASC").
		Find(&fragments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get fragments: %w", err)
	}
	return fragments, nil
}

func (r *GormRepository) GetFragmentByID(ctx context.Context, trackID, fragmentID uint) (*models.VideoFragment, error) {
	var fragment models.VideoFragment
	err := r.db.WithContext(ctx).
		Where("id = ? AND track_id = ?", fragmentID, trackID).
		First(&fragment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFragmentNotFound
		}
		return nil, fmt.Errorf("failed to get fragment: %w", err)
	}
	return &fragment, nil
}

// UpsertFragment updates the scene's fragment in place, keeping its id and
// target duration, or inserts a new one.
func (r *GormRepository) UpsertFragment(ctx context.Context, fragment *models.VideoFragment) (string, error) {
	var previousPath string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.VideoFragment
		err := tx.Where("track_id = ? AND scene_order = ?", fragment.TrackID, fragment.SceneOrder).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(fragment).Error
		}
		if err != nil {
			return err
		}

		previousPath = existing.VideoPath
		existing.ImageID = fragment.ImageID
		existing.VideoPath = fragment.VideoPath
		existing.Duration = fragment.Duration
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		*fragment = existing
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert fragment: %w", err)
	}
	return previousPath, nil
}

func (r *GormRepository) SetTargetDuration(ctx context.Context, fragmentID uint, target *float64) error {
	err := r.db.WithContext(ctx).
		Model(&models.VideoFragment{}).
		Where("id = ?", fragmentID).
		Update("target_duration", target).Error
	if err != nil {
		return fmt.Errorf("failed to set target duration: %w", err)
	}
	return nil
}
