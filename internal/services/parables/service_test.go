package parables

import (
	"bytes"
	"context"
	"testing"

	"github.com/killallgit/parable-studio/internal/database"
	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/assets"
	"github.com/killallgit/parable-studio/internal/services/jobs"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc   *ServiceImpl
	db    *gorm.DB
	store *assets.LocalStore
	jobs  jobs.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	conn, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	store, err := assets.NewLocalStore(t.TempDir(), "http://localhost/assets")
	require.NoError(t, err)
	jobService := jobs.NewService(jobs.NewRepository(conn.DB), nil)

	return &fixture{
		svc:   NewService(NewRepository(conn.DB), store, jobService, nil),
		db:    conn.DB,
		store: store,
		jobs:  jobService,
	}
}

func TestCreateParable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	parable, err := f.svc.CreateParable(ctx, "  The Sower ", "A sower went out to sow.")
	require.NoError(t, err)
	assert.Equal(t, "The Sower", parable.TitleOriginal)
	require.Len(t, parable.Tracks, 1)
	assert.Equal(t, models.LanguageOriginal, parable.Tracks[0].Language)
	assert.Equal(t, models.TrackStatusDraft, parable.Tracks[0].Status)
	assert.Equal(t, 0, parable.Tracks[0].CurrentStep)

	_, err = f.svc.CreateParable(ctx, "", "text")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeMissingField))
	_, err = f.svc.CreateParable(ctx, "title", "   ")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeMissingField))
}

func TestListParables_NewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := f.svc.CreateParable(ctx, title, "text")
		require.NoError(t, err)
	}

	list, total, err := f.svc.ListParables(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].TitleOriginal)
	assert.Equal(t, "second", list[1].TitleOriginal)
	assert.Len(t, list[0].Tracks, 1)

	list, _, err = f.svc.ListParables(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].TitleOriginal)
}

func TestGetTrack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	parable, err := f.svc.CreateParable(ctx, "T", "text")
	require.NoError(t, err)

	track, err := f.svc.GetTrack(ctx, parable.ID, models.LanguageOriginal)
	require.NoError(t, err)
	assert.Equal(t, parable.Tracks[0].ID, track.ID)

	_, err = f.svc.GetTrack(ctx, parable.ID, models.LanguageEnglish)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	_, err = f.svc.GetTrack(ctx, 999, models.LanguageOriginal)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	_, err = f.svc.GetTrack(ctx, parable.ID, models.Language("klingon"))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

func TestCreateEnglishTrack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	parable, err := f.svc.CreateParable(ctx, "T", "text")
	require.NoError(t, err)

	_, err = f.svc.CreateEnglishTrack(ctx, parable.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodePreconditionFailed), "got %v", err)

	require.NoError(t, f.db.Model(&models.Track{}).
		Where("id = ?", parable.Tracks[0].ID).
		Updates(map[string]any{"text_for_tts": "narration", "current_step": 1}).Error)

	track, err := f.svc.CreateEnglishTrack(ctx, parable.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageEnglish, track.Language)
	assert.Equal(t, models.TrackStatusDraft, track.Status)

	_, err = f.svc.CreateEnglishTrack(ctx, parable.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeAlreadyExists))

	_, err = f.svc.CreateEnglishTrack(ctx, 404)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestDeleteParable_Cascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	parable, err := f.svc.CreateParable(ctx, "T", "text")
	require.NoError(t, err)
	trackID := parable.Tracks[0].ID

	prompt := models.ImagePrompt{TrackID: trackID, SceneOrder: -1, PromptText: "hook"}
	require.NoError(t, f.db.Create(&prompt).Error)
	require.NoError(t, f.db.Create(&models.GeneratedImage{TrackID: trackID, SceneOrder: -1, PromptID: prompt.ID, ImagePath: "x.png"}).Error)
	require.NoError(t, f.db.Create(&models.AudioFile{TrackID: trackID, AudioPath: "a.mp3", Duration: 3}).Error)

	key := assets.ImageKey(trackID, -1, ".png")
	require.NoError(t, f.store.Save(ctx, key, bytes.NewReader([]byte("png")), 3))
	_, err = f.jobs.EnqueueJob(ctx, models.JobTypeTrackProcess, trackID, nil)
	require.NoError(t, err)

	// A second parable must survive
	other, err := f.svc.CreateParable(ctx, "Other", "text")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteParable(ctx, parable.ID))

	_, err = f.svc.GetParable(ctx, parable.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	var count int64
	for _, m := range []any{&models.Track{}, &models.ImagePrompt{}, &models.GeneratedImage{}, &models.AudioFile{}} {
		require.NoError(t, f.db.Model(m).Where("id > 0").Count(&count).Error)
		if _, isTrack := m.(*models.Track); isTrack {
			assert.Equal(t, int64(1), count, "only the other parable's track remains")
		} else {
			assert.Zero(t, count)
		}
	}

	exists, err := f.store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	active, err := f.jobs.HasActiveJob(ctx, trackID)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = f.svc.GetParable(ctx, other.ID)
	assert.NoError(t, err)

	assert.True(t, apperrors.Is(f.svc.DeleteParable(ctx, parable.ID), apperrors.ErrCodeNotFound))
}

func TestGetParable_SnapshotOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	parable, err := f.svc.CreateParable(ctx, "T", "text")
	require.NoError(t, err)
	trackID := parable.Tracks[0].ID

	for _, order := range []int{2, -1, 0, 1} {
		require.NoError(t, f.db.Create(&models.ImagePrompt{TrackID: trackID, SceneOrder: order, PromptText: "p"}).Error)
	}
	require.NoError(t, f.db.Create(&models.TitleVariant{TrackID: trackID, Position: 1, VariantType: models.VariantIntrigue, VariantText: "b"}).Error)
	require.NoError(t, f.db.Create(&models.TitleVariant{TrackID: trackID, Position: 0, VariantType: models.VariantQuestion, VariantText: "a", IsSelected: true}).Error)

	loaded, err := f.svc.GetParable(ctx, parable.ID)
	require.NoError(t, err)
	track := loaded.Track(models.LanguageOriginal)
	require.NotNil(t, track)
	require.Len(t, track.ImagePrompts, 4)
	assert.Equal(t, -1, track.ImagePrompts[0].SceneOrder)
	assert.Equal(t, 2, track.ImagePrompts[3].SceneOrder)
	require.Len(t, track.TitleVariants, 2)
	assert.Equal(t, models.VariantQuestion, track.TitleVariants[0].VariantType)

	variants, err := f.svc.GetTitleVariants(ctx, parable.ID, models.LanguageOriginal)
	require.NoError(t, err)
	assert.Len(t, variants, 2)
}
