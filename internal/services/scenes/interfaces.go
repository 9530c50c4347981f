package scenes

import (
	"context"

	"github.com/killallgit/parable-studio/internal/models"
	"gorm.io/gorm"
)

// SceneInput is one entry of a prompt set to register
type SceneInput struct {
	SceneOrder      int
	PromptText      string
	VideoPromptText string
}

// SceneState is the readiness of one scene slot
type SceneState struct {
	SceneOrder    int   `json:"scene_order"`
	PromptID      uint  `json:"prompt_id"`
	ImageID       *uint `json:"image_id,omitempty"`
	FragmentID    *uint `json:"fragment_id,omitempty"`
	HasImage      bool  `json:"has_image"`
	HasFragment   bool  `json:"has_fragment"`
	FragmentStale bool  `json:"fragment_stale"`
	Ready         bool  `json:"ready"`
}

// Report summarizes a track's scene index
type Report struct {
	Scenes    []SceneState `json:"scenes"`
	Total     int          `json:"total"`
	Images    int          `json:"images"`
	Fragments int          `json:"fragments"`
	Stale     int          `json:"stale"`
	Complete  bool         `json:"complete"`
}

// Repository defines data access for the scene index
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetPrompts(ctx context.Context, trackID uint) ([]models.ImagePrompt, error)
	GetPrompt(ctx context.Context, trackID uint, sceneOrder int) (*models.ImagePrompt, error)
	ReplacePrompts(ctx context.Context, trackID uint, prompts []models.ImagePrompt) (removedPaths []string, err error)

	GetImages(ctx context.Context, trackID uint) ([]models.GeneratedImage, error)
	GetImage(ctx context.Context, trackID uint, sceneOrder int) (*models.GeneratedImage, error)
	ReplaceImage(ctx context.Context, image *models.GeneratedImage) (previous *models.GeneratedImage, err error)
	DeleteImages(ctx context.Context, trackID uint) (removedPaths []string, err error)

	GetFragments(ctx context.Context, trackID uint) ([]models.VideoFragment, error)
	GetFragmentByID(ctx context.Context, trackID, fragmentID uint) (*models.VideoFragment, error)
	UpsertFragment(ctx context.Context, fragment *models.VideoFragment) (previousPath string, err error)
	SetTargetDuration(ctx context.Context, fragmentID uint, target *float64) error
}

// Service is the scene model of a track: prompts, images and fragments
// joined by scene order.
type Service interface {
	WithTx(tx *gorm.DB) Service

	// RegisterPrompts replaces the prompt set. Images are dropped and
	// fragments outside the new order range are removed; the returned keys
	// belong to binaries no longer referenced.
	RegisterPrompts(ctx context.Context, trackID uint, scenes []SceneInput) ([]string, error)

	// AttachImage replaces the image for a scene and returns the replaced key
	AttachImage(ctx context.Context, trackID uint, sceneOrder int, path string) (string, error)

	// ClearImages drops every image of the track and returns their keys.
	// Fragments stay and become stale.
	ClearImages(ctx context.Context, trackID uint) ([]string, error)

	// AttachVideo upserts the fragment for a scene and returns the replaced key
	AttachVideo(ctx context.Context, trackID uint, sceneOrder int, path string, duration float64) (*models.VideoFragment, string, error)

	// SetTargetDuration sets or clears a fragment's duration override
	SetTargetDuration(ctx context.Context, trackID, fragmentID uint, target *float64) (*models.VideoFragment, error)

	IsComplete(ctx context.Context, trackID uint) (bool, error)
	Status(ctx context.Context, trackID uint) (*Report, error)

	// OrderedFragments returns fragments in assembly order, hook first
	OrderedFragments(ctx context.Context, trackID uint) ([]models.VideoFragment, error)

	// PromptsWithoutImage lists prompts whose scene has no image yet
	PromptsWithoutImage(ctx context.Context, trackID uint) ([]models.ImagePrompt, error)
}
