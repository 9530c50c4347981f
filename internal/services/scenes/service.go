package scenes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/locks"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
	"gorm.io/gorm"
)

// ServiceImpl implements the Service interface
type ServiceImpl struct {
	repository Repository
	locker     locks.Locker
}

// NewService creates a new scene service. Writes to one scene slot are
// serialized through locker.
func NewService(repository Repository, locker locks.Locker) *ServiceImpl {
	if locker == nil {
		locker = locks.NewMemoryLocker()
	}
	return &ServiceImpl{
		repository: repository,
		locker:     locker,
	}
}

// WithTx returns a service whose reads and writes run inside tx
func (s *ServiceImpl) WithTx(tx *gorm.DB) Service {
	return &ServiceImpl{
		repository: s.repository.WithTx(tx),
		locker:     s.locker,
	}
}

func slotKey(trackID uint, sceneOrder int) string {
	return fmt.Sprintf("scene:%d:%d", trackID, sceneOrder)
}

// ValidateSceneSet checks that orders form {-1} ∪ {0..N-1} with N ≥ 1
func ValidateSceneSet(scenes []SceneInput) error {
	if len(scenes) == 0 {
		return apperrors.InvalidSceneSet("no scenes")
	}

	seen := make(map[int]bool, len(scenes))
	numbered := 0
	for _, sc := range scenes {
		if seen[sc.SceneOrder] {
			return apperrors.InvalidSceneSet(fmt.Sprintf("duplicate scene_order %d", sc.SceneOrder))
		}
		seen[sc.SceneOrder] = true
		if sc.SceneOrder != models.HookSceneOrder {
			numbered++
		}
	}

	if !seen[models.HookSceneOrder] {
		return apperrors.InvalidSceneSet("hook scene -1 is missing")
	}
	if numbered == 0 {
		return apperrors.InvalidSceneSet("at least one numbered scene is required")
	}
	for _, sc := range scenes {
		if sc.SceneOrder < models.HookSceneOrder || sc.SceneOrder >= numbered {
			return apperrors.InvalidSceneSet(
				fmt.Sprintf("scene_order %d outside -1..%d", sc.SceneOrder, numbered-1))
		}
	}
	return nil
}

// RegisterPrompts implements Service
func (s *ServiceImpl) RegisterPrompts(ctx context.Context, trackID uint, scenes []SceneInput) ([]string, error) {
	if err := ValidateSceneSet(scenes); err != nil {
		return nil, err
	}

	prompts := make([]models.ImagePrompt, 0, len(scenes))
	for _, sc := range scenes {
		text := strings.TrimSpace(sc.PromptText)
		if text == "" {
			return nil, apperrors.ValidationError("prompt_text", fmt.Sprintf("empty prompt for scene %d", sc.SceneOrder))
		}
		p := models.ImagePrompt{
			TrackID:    trackID,
			SceneOrder: sc.SceneOrder,
			PromptText: text,
		}
		if v := strings.TrimSpace(sc.VideoPromptText); v != "" {
			p.VideoPromptText = &v
		}
		prompts = append(prompts, p)
	}

	removed, err := s.repository.ReplacePrompts(ctx, trackID, prompts)
	if err != nil {
		return nil, apperrors.DatabaseError("register prompts", err)
	}
	return removed, nil
}

// AttachImage implements Service
func (s *ServiceImpl) AttachImage(ctx context.Context, trackID uint, sceneOrder int, path string) (string, error) {
	if path == "" {
		return "", apperrors.MissingFieldError("image_path")
	}

	unlock, err := s.locker.Lock(ctx, slotKey(trackID, sceneOrder))
	if err != nil {
		return "", err
	}
	defer unlock()

	prompt, err := s.repository.GetPrompt(ctx, trackID, sceneOrder)
	if err != nil {
		if errors.Is(err, ErrPromptNotFound) {
			return "", apperrors.UnknownScene(sceneOrder, "image prompt")
		}
		return "", apperrors.DatabaseError("get prompt", err)
	}

	previous, err := s.repository.ReplaceImage(ctx, &models.GeneratedImage{
		TrackID:    trackID,
		SceneOrder: sceneOrder,
		PromptID:   prompt.ID,
		ImagePath:  path,
	})
	if err != nil {
		return "", apperrors.DatabaseError("attach image", err)
	}
	if previous == nil {
		return "", nil
	}
	return previous.ImagePath, nil
}

// ClearImages implements Service
func (s *ServiceImpl) ClearImages(ctx context.Context, trackID uint) ([]string, error) {
	removed, err := s.repository.DeleteImages(ctx, trackID)
	if err != nil {
		return nil, apperrors.DatabaseError("clear images", err)
	}
	return removed, nil
}

// AttachVideo implements Service
func (s *ServiceImpl) AttachVideo(ctx context.Context, trackID uint, sceneOrder int, path string, duration float64) (*models.VideoFragment, string, error) {
	if path == "" {
		return nil, "", apperrors.MissingFieldError("video_path")
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, "", apperrors.ValidationError("duration", "must be a positive number of seconds")
	}

	unlock, err := s.locker.Lock(ctx, slotKey(trackID, sceneOrder))
	if err != nil {
		return nil, "", err
	}
	defer unlock()

	image, err := s.repository.GetImage(ctx, trackID, sceneOrder)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return nil, "", apperrors.UnknownScene(sceneOrder, "generated image")
		}
		return nil, "", apperrors.DatabaseError("get image", err)
	}

	fragment := &models.VideoFragment{
		TrackID:    trackID,
		SceneOrder: sceneOrder,
		ImageID:    image.ID,
		VideoPath:  path,
		Duration:   duration,
	}
	previous, err := s.repository.UpsertFragment(ctx, fragment)
	if err != nil {
		return nil, "", apperrors.DatabaseError("attach video", err)
	}
	return fragment, previous, nil
}

// SetTargetDuration implements Service
func (s *ServiceImpl) SetTargetDuration(ctx context.Context, trackID, fragmentID uint, target *float64) (*models.VideoFragment, error) {
	if target != nil && (*target <= 0 || math.IsNaN(*target) || math.IsInf(*target, 0)) {
		return nil, apperrors.ValidationError("target_duration", "must be a positive number of seconds or null")
	}

	fragment, err := s.repository.GetFragmentByID(ctx, trackID, fragmentID)
	if err != nil {
		if errors.Is(err, ErrFragmentNotFound) {
			return nil, apperrors.NotFound("video fragment", fragmentID)
		}
		return nil, apperrors.DatabaseError("get fragment", err)
	}

	unlock, err := s.locker.Lock(ctx, slotKey(trackID, fragment.SceneOrder))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.repository.SetTargetDuration(ctx, fragment.ID, target); err != nil {
		return nil, apperrors.DatabaseError("set target duration", err)
	}
	fragment.TargetDuration = target
	return fragment, nil
}

// Status builds the per-scene report from the three asset lists
func (s *ServiceImpl) Status(ctx context.Context, trackID uint) (*Report, error) {
	prompts, err := s.repository.GetPrompts(ctx, trackID)
	if err != nil {
		return nil, apperrors.DatabaseError("get prompts", err)
	}
	images, err := s.repository.GetImages(ctx, trackID)
	if err != nil {
		return nil, apperrors.DatabaseError("get images", err)
	}
	fragments, err := s.repository.GetFragments(ctx, trackID)
	if err != nil {
		return nil, apperrors.DatabaseError("get fragments", err)
	}
	return BuildReport(prompts, images, fragments), nil
}

// BuildReport joins prompts, images and fragments on scene order. A fragment
// bound to an image other than the scene's current one is stale.
func BuildReport(prompts []models.ImagePrompt, images []models.GeneratedImage, fragments []models.VideoFragment) *Report {
	imageByOrder := make(map[int]models.GeneratedImage, len(images))
	for _, img := range images {
		imageByOrder[img.SceneOrder] = img
	}
	fragmentByOrder := make(map[int]models.VideoFragment, len(fragments))
	for _, f := range fragments {
		fragmentByOrder[f.SceneOrder] = f
	}

	report := &Report{Scenes: make([]SceneState, 0, len(prompts)), Total: len(prompts)}
	ready := 0
	for _, p := range prompts {
		state := SceneState{SceneOrder: p.SceneOrder, PromptID: p.ID}

		img, hasImage := imageByOrder[p.SceneOrder]
		if hasImage {
			id := img.ID
			state.ImageID = &id
			state.HasImage = true
			report.Images++
		}
		if f, ok := fragmentByOrder[p.SceneOrder]; ok {
			id := f.ID
			state.FragmentID = &id
			state.HasFragment = true
			report.Fragments++
			if !hasImage || f.ImageID != img.ID {
				state.FragmentStale = true
				report.Stale++
			}
		}

		state.Ready = state.HasImage && state.HasFragment && !state.FragmentStale
		if state.Ready {
			ready++
		}
		report.Scenes = append(report.Scenes, state)
	}

	report.Complete = report.Total > 0 && ready == report.Total
	return report
}

// IsComplete implements Service
func (s *ServiceImpl) IsComplete(ctx context.Context, trackID uint) (bool, error) {
	report, err := s.Status(ctx, trackID)
	if err != nil {
		return false, err
	}
	return report.Complete, nil
}

// OrderedFragments implements Service
func (s *ServiceImpl) OrderedFragments(ctx context.Context, trackID uint) ([]models.VideoFragment, error) {
	fragments, err := s.repository.GetFragments(ctx, trackID)
	if err != nil {
		return nil, apperrors.DatabaseError("get fragments", err)
	}
	// The repository orders by scene_order, which puts the hook (-1) first
	return fragments, nil
}

// PromptsWithoutImage implements Service
func (s *ServiceImpl) PromptsWithoutImage(ctx context.Context, trackID uint) ([]models.ImagePrompt, error) {
	prompts, err := s.repository.GetPrompts(ctx, trackID)
	if err != nil {
		return nil, apperrors.DatabaseError("get prompts", err)
	}
	images, err := s.repository.GetImages(ctx, trackID)
	if err != nil {
		return nil, apperrors.DatabaseError("get images", err)
	}

	have := make(map[int]bool, len(images))
	for _, img := range images {
		have[img.SceneOrder] = true
	}
	missing := make([]models.ImagePrompt, 0, len(prompts))
	for _, p := range prompts {
		if !have[p.SceneOrder] {
			missing = append(missing, p)
		}
	}
	return missing, nil
}
