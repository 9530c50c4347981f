package scenes

import (
	"context"
	"sync"
	"testing"

	"github.com/killallgit/parable-studio/internal/database"
	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/locks"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*ServiceImpl, *gorm.DB, uint) {
	t.Helper()
	conn, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	parable := models.Parable{TitleOriginal: "The Lost Coin", TextOriginal: "A woman had ten coins."}
	require.NoError(t, conn.Create(&parable).Error)
	track := models.Track{ParableID: parable.ID, Language: models.LanguageOriginal}
	require.NoError(t, conn.Create(&track).Error)

	return NewService(NewRepository(conn.DB), locks.NewMemoryLocker()), conn.DB, track.ID
}

func sceneSet(n int) []SceneInput {
	scenes := []SceneInput{{SceneOrder: -1, PromptText: "hook"}}
	for i := 0; i < n; i++ {
		scenes = append(scenes, SceneInput{SceneOrder: i, PromptText: "scene", VideoPromptText: "slow zoom"})
	}
	return scenes
}

func TestValidateSceneSet(t *testing.T) {
	tests := []struct {
		name    string
		scenes  []SceneInput
		wantErr bool
	}{
		{name: "hook and contiguous", scenes: sceneSet(3)},
		{name: "unordered input", scenes: []SceneInput{{SceneOrder: 1}, {SceneOrder: -1}, {SceneOrder: 0}}},
		{name: "empty", scenes: nil, wantErr: true},
		{name: "missing hook", scenes: []SceneInput{{SceneOrder: 0}, {SceneOrder: 1}}, wantErr: true},
		{name: "hook only", scenes: []SceneInput{{SceneOrder: -1}}, wantErr: true},
		{name: "gap", scenes: []SceneInput{{SceneOrder: -1}, {SceneOrder: 0}, {SceneOrder: 2}}, wantErr: true},
		{name: "duplicate", scenes: []SceneInput{{SceneOrder: -1}, {SceneOrder: 0}, {SceneOrder: 0}}, wantErr: true},
		{name: "below hook", scenes: []SceneInput{{SceneOrder: -2}, {SceneOrder: -1}, {SceneOrder: 0}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSceneSet(tt.scenes)
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidSceneSet), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterPrompts(t *testing.T) {
	svc, db, trackID := setupService(t)
	ctx := context.Background()

	removed, err := svc.RegisterPrompts(ctx, trackID, sceneSet(3))
	require.NoError(t, err)
	assert.Empty(t, removed)

	var prompts []models.ImagePrompt
	require.NoError(t, db.Where("track_id = ?", trackID).Order("scene_order").Find(&prompts).Error)
	require.Len(t, prompts, 4)
	assert.Equal(t, -1, prompts[0].SceneOrder)
	assert.Nil(t, prompts[0].VideoPromptText)
	require.NotNil(t, prompts[1].VideoPromptText)
	assert.Equal(t, "slow zoom", *prompts[1].VideoPromptText)

	// An invalid set leaves the existing one untouched
	_, err = svc.RegisterPrompts(ctx, trackID, []SceneInput{{SceneOrder: 0, PromptText: "x"}})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidSceneSet))
	var count int64
	db.Model(&models.ImagePrompt{}).Where("track_id = ?", trackID).Count(&count)
	assert.Equal(t, int64(4), count)

	_, err = svc.RegisterPrompts(ctx, trackID, []SceneInput{{SceneOrder: -1, PromptText: "hook"}, {SceneOrder: 0, PromptText: "  "}})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

func TestRegisterPrompts_ReplacesSetAndReportsOrphans(t *testing.T) {
	svc, _, trackID := setupService(t)
	ctx := context.Background()

	_, err := svc.RegisterPrompts(ctx, trackID, sceneSet(3))
	require.NoError(t, err)
	for order := -1; order < 3; order++ {
		_, err := svc.AttachImage(ctx, trackID, order, "img.png")
		require.NoError(t, err)
	}
	_, _, err = svc.AttachVideo(ctx, trackID, 2, "scene2.mp4", 4)
	require.NoError(t, err)
	_, _, err = svc.AttachVideo(ctx, trackID, 0, "scene0.mp4", 4)
	require.NoError(t, err)

	removed, err := svc.RegisterPrompts(ctx, trackID, sceneSet(2))
	require.NoError(t, err)
	// four images plus the fragment of the dropped scene 2
	assert.Len(t, removed, 5)
	assert.Contains(t, removed, "scene2.mp4")

	report, err := svc.Status(ctx, trackID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 0, report.Images)
	assert.Equal(t, 1, report.Fragments)
	assert.Equal(t, 1, report.Stale)
}

func TestAttachImage(t *testing.T) {
	svc, db, trackID := setupService(t)
	ctx := context.Background()

	_, err := svc.AttachImage(ctx, trackID, 0, "a.png")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnknownScene))

	_, err = svc.RegisterPrompts(ctx, trackID, sceneSet(1))
	require.NoError(t, err)

	replaced, err := svc.AttachImage(ctx, trackID, 0, "a.png")
	require.NoError(t, err)
	assert.Empty(t, replaced)

	var first models.GeneratedImage
	require.NoError(t, db.Where("track_id = ? AND scene_order = 0", trackID).First(&first).Error)

	replaced, err = svc.AttachImage(ctx, trackID, 0, "b.png")
	require.NoError(t, err)
	assert.Equal(t, "a.png", replaced)

	var images []models.GeneratedImage
	require.NoError(t, db.Where("track_id = ?", trackID).Find(&images).Error)
	require.Len(t, images, 1, "regeneration replaces, never appends")
	assert.Equal(t, "b.png", images[0].ImagePath)
	assert.NotEqual(t, first.ID, images[0].ID)
}

func TestAttachVideo_UnknownSceneLeavesTrackUnchanged(t *testing.T) {
	svc, db, trackID := setupService(t)
	ctx := context.Background()

	_, err := svc.RegisterPrompts(ctx, trackID, sceneSet(2))
	require.NoError(t, err)
	_, err = svc.AttachImage(ctx, trackID, 0, "a.png")
	require.NoError(t, err)

	_, _, err = svc.AttachVideo(ctx, trackID, 1, "v.mp4", 3)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnknownScene))

	_, _, err = svc.AttachVideo(ctx, trackID, 0, "v.mp4", 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))

	var count int64
	db.Model(&models.VideoFragment{}).Where("track_id = ?", trackID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestAttachVideo_UpsertKeepsTargetDuration(t *testing.T) {
	svc, _, trackID := setupService(t)
	ctx := context.Background()

	_, err := svc.RegisterPrompts(ctx, trackID, sceneSet(1))
	require.NoError(t, err)
	_, err = svc.AttachImage(ctx, trackID, 0, "a.png")
	require.NoError(t, err)

	frag, replaced, err := svc.AttachVideo(ctx, trackID, 0, "v1.mp4", 5)
	require.NoError(t, err)
	assert.Empty(t, replaced)

	target := 3.5
	_, err = svc.SetTargetDuration(ctx, trackID, frag.ID, &target)
	require.NoError(t, err)

	again, replaced, err := svc.AttachVideo(ctx, trackID, 0, "v2.mp4", 6)
	require.NoError(t, err)
	assert.Equal(t, "v1.mp4", replaced)
	assert.Equal(t, frag.ID, again.ID)
	require.NotNil(t, again.TargetDuration)
	assert.Equal(t, 3.5, *again.TargetDuration)
	assert.Equal(t, 3.5, again.EffectiveDuration())
}

func TestSetTargetDuration(t *testing.T) {
	svc, _, trackID := setupService(t)
	ctx := context.Background()

	_, err := svc.RegisterPrompts(ctx, trackID, sceneSet(1))
	require.NoError(t, err)
	_, err = svc.AttachImage(ctx, trackID, 0, "a.png")
	require.NoError(t, err)
	frag, _, err := svc.AttachVideo(ctx, trackID, 0, "v.mp4", 5)
	require.NoError(t, err)

	bad := -1.0
	_, err = svc.SetTargetDuration(ctx, trackID, frag.ID, &bad)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))

	_, err = svc.SetTargetDuration(ctx, trackID, frag.ID+100, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	target := 2.0
	updated, err := svc.SetTargetDuration(ctx, trackID, frag.ID, &target)
	require.NoError(t, err)
	assert.Equal(t, 2.0, updated.EffectiveDuration())

	cleared, err := svc.SetTargetDuration(ctx, trackID, frag.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.TargetDuration)
	assert.Equal(t, 5.0, cleared.EffectiveDuration())

	ordered, err := svc.OrderedFragments(ctx, trackID)
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Nil(t, ordered[0].TargetDuration)
}

func TestIsComplete(t *testing.T) {
	svc, _, trackID := setupService(t)
	ctx := context.Background()

	complete, err := svc.IsComplete(ctx, trackID)
	require.NoError(t, err)
	assert.False(t, complete, "no prompts is never complete")

	_, err = svc.RegisterPrompts(ctx, trackID, sceneSet(2))
	require.NoError(t, err)
	for order := -1; order < 2; order++ {
		_, err := svc.AttachImage(ctx, trackID, order, "img.png")
		require.NoError(t, err)
	}

	for order := -1; order < 2; order++ {
		complete, err := svc.IsComplete(ctx, trackID)
		require.NoError(t, err)
		assert.False(t, complete)
		_, _, err = svc.AttachVideo(ctx, trackID, order, "v.mp4", 2)
		require.NoError(t, err)
	}

	complete, err = svc.IsComplete(ctx, trackID)
	require.NoError(t, err)
	assert.True(t, complete)

	// Regenerating one image makes its fragment stale
	_, err = svc.AttachImage(ctx, trackID, 1, "img2.png")
	require.NoError(t, err)
	report, err := svc.Status(ctx, trackID)
	require.NoError(t, err)
	assert.False(t, report.Complete)
	assert.Equal(t, 1, report.Stale)
	assert.True(t, report.Scenes[2].FragmentStale)

	_, _, err = svc.AttachVideo(ctx, trackID, 1, "v2.mp4", 2)
	require.NoError(t, err)
	complete, err = svc.IsComplete(ctx, trackID)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestOrderedFragments_HookFirst(t *testing.T) {
	svc, _, trackID := setupService(t)
	ctx := context.Background()

	_, err := svc.RegisterPrompts(ctx, trackID, sceneSet(3))
	require.NoError(t, err)
	for _, order := range []int{2, 0, -1, 1} {
		_, err := svc.AttachImage(ctx, trackID, order, "img.png")
		require.NoError(t, err)
		_, _, err = svc.AttachVideo(ctx, trackID, order, "v.mp4", 1)
		require.NoError(t, err)
	}

	ordered, err := svc.OrderedFragments(ctx, trackID)
	require.NoError(t, err)
	var orders []int
	for _, f := range ordered {
		orders = append(orders, f.SceneOrder)
	}
	assert.Equal(t, []int{-1, 0, 1, 2}, orders)
}

func TestPromptsWithoutImage(t *testing.T) {
	svc, _, trackID := setupService(t)
	ctx := context.Background()

	_, err := svc.RegisterPrompts(ctx, trackID, sceneSet(2))
	require.NoError(t, err)
	_, err = svc.AttachImage(ctx, trackID, 0, "a.png")
	require.NoError(t, err)

	missing, err := svc.PromptsWithoutImage(ctx, trackID)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, -1, missing[0].SceneOrder)
	assert.Equal(t, 1, missing[1].SceneOrder)
}

func TestAttachImage_ConcurrentSlots(t *testing.T) {
	svc, db, trackID := setupService(t)
	ctx := context.Background()

	_, err := svc.RegisterPrompts(ctx, trackID, sceneSet(4))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for round := 0; round < 3; round++ {
		for order := -1; order < 4; order++ {
			wg.Add(1)
			go func(order int) {
				defer wg.Done()
				_, err := svc.AttachImage(ctx, trackID, order, "img.png")
				assert.NoError(t, err)
			}(order)
		}
	}
	wg.Wait()

	var count int64
	db.Model(&models.GeneratedImage{}).Where("track_id = ?", trackID).Count(&count)
	assert.Equal(t, int64(5), count)
}

func TestWithTx_Rollback(t *testing.T) {
	svc, db, trackID := setupService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.WithTx(tx).RegisterPrompts(ctx, trackID, sceneSet(2)); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	var count int64
	db.Model(&models.ImagePrompt{}).Where("track_id = ?", trackID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestClearImages_LeavesFragmentsStale(t *testing.T) {
	svc, _, trackID := setupService(t)
	ctx := context.Background()

	_, err := svc.RegisterPrompts(ctx, trackID, sceneSet(1))
	require.NoError(t, err)
	_, err = svc.AttachImage(ctx, trackID, -1, "hook.png")
	require.NoError(t, err)
	_, err = svc.AttachImage(ctx, trackID, 0, "scene0.png")
	require.NoError(t, err)
	_, _, err = svc.AttachVideo(ctx, trackID, 0, "scene0.mp4", 4)
	require.NoError(t, err)

	removed, err := svc.ClearImages(ctx, trackID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hook.png", "scene0.png"}, removed)

	missing, err := svc.PromptsWithoutImage(ctx, trackID)
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	report, err := svc.Status(ctx, trackID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Images)
	assert.Equal(t, 1, report.Fragments)
	assert.False(t, report.Complete)
}
