package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestTrack_BeforeCreate(t *testing.T) {
	db := openDB(t)

	parable := Parable{TitleOriginal: "The Sower", TextOriginal: "A sower went out to sow."}
	require.NoError(t, db.Create(&parable).Error)

	track := Track{ParableID: parable.ID, Language: LanguageOriginal}
	require.NoError(t, db.Create(&track).Error)

	var loaded Track
	require.NoError(t, db.First(&loaded, track.ID).Error)
	assert.Equal(t, TrackStatusDraft, loaded.Status)
	assert.Equal(t, StepNone, loaded.CurrentStep)
	assert.Nil(t, loaded.ErrorMessage)
	assert.Equal(t, "", loaded.ErrorText())
}

func TestTrack_UniqueLanguagePerParable(t *testing.T) {
	db := openDB(t)

	parable := Parable{TitleOriginal: "t", TextOriginal: "x"}
	require.NoError(t, db.Create(&parable).Error)
	require.NoError(t, db.Create(&Track{ParableID: parable.ID, Language: LanguageEnglish}).Error)

	err := db.Create(&Track{ParableID: parable.ID, Language: LanguageEnglish}).Error
	assert.Error(t, err)
}

func TestTrack_HashtagsRoundTrip(t *testing.T) {
	db := openDB(t)

	parable := Parable{TitleOriginal: "t", TextOriginal: "x"}
	require.NoError(t, db.Create(&parable).Error)
	track := Track{
		ParableID:       parable.ID,
		Language:        LanguageOriginal,
		YouTubeHashtags: datatypes.NewJSONSlice([]string{"#parable", "#wisdom"}),
	}
	require.NoError(t, db.Create(&track).Error)

	var loaded Track
	require.NoError(t, db.First(&loaded, track.ID).Error)
	assert.Equal(t, []string{"#parable", "#wisdom"}, []string(loaded.YouTubeHashtags))
}

func TestTrackStatus_IsBusy(t *testing.T) {
	busy := map[TrackStatus]bool{
		TrackStatusDraft:           false,
		TrackStatusProcessing:      true,
		TrackStatusAwaitingAudio:   false,
		TrackStatusAwaitingVideos:  false,
		TrackStatusGeneratingFinal: true,
		TrackStatusCompleted:       false,
		TrackStatusError:           false,
	}
	for status, want := range busy {
		assert.Equal(t, want, status.IsBusy(), string(status))
	}
}

func TestVideoFragment_EffectiveDuration(t *testing.T) {
	target := 3.5
	withTarget := VideoFragment{Duration: 6.2, TargetDuration: &target}
	natural := VideoFragment{Duration: 6.2}

	assert.Equal(t, 3.5, withTarget.EffectiveDuration())
	assert.Equal(t, 6.2, natural.EffectiveDuration())
}

func TestNormalizeMood(t *testing.T) {
	assert.Equal(t, "calm", NormalizeMood(" Calm\n"))
	assert.Equal(t, "dramatic", NormalizeMood("furious"))
}

func TestVariantType_Valid(t *testing.T) {
	assert.Len(t, VariantTypes, 5)
	assert.True(t, VariantNumbers.Valid())
	assert.False(t, VariantType("clickbait").Valid())
}

func TestMusicTrack_DefaultVolume(t *testing.T) {
	db := openDB(t)
	track := MusicTrack{Name: "Calm bed", Mood: "calm", FilePath: "music/calm.mp3"}
	require.NoError(t, db.Create(&track).Error)
	assert.Equal(t, DefaultMusicVolumeDB, track.VolumeDB)
}

func TestJob_PayloadAccessors(t *testing.T) {
	db := openDB(t)
	job := Job{Type: JobTypeTrackProcess, TrackID: 7, Payload: datatypes.JSONMap{"track_id": 7, "language": "english"}}
	require.NoError(t, db.Create(&job).Error)

	var loaded Job
	require.NoError(t, db.First(&loaded, job.ID).Error)

	id, ok := loaded.GetPayloadInt("track_id")
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	lang, ok := loaded.GetPayloadString("language")
	assert.True(t, ok)
	assert.Equal(t, "english", lang)

	_, ok = loaded.GetPayloadString("missing")
	assert.False(t, ok)

	scanned := Job{Payload: datatypes.JSONMap{"track_id": json.Number("12"), "ratio": json.Number("2.5"), "bad": json.Number("x")}}
	id, ok = scanned.GetPayloadInt("track_id")
	assert.True(t, ok)
	assert.Equal(t, 12, id)
	id, ok = scanned.GetPayloadInt("ratio")
	assert.True(t, ok)
	assert.Equal(t, 2, id)
	_, ok = scanned.GetPayloadInt("bad")
	assert.False(t, ok)
}

func TestTrack_MetadataColumns(t *testing.T) {
	db := openDB(t)

	parable := Parable{TitleOriginal: "The Sower", TextOriginal: "A sower went out to sow."}
	require.NoError(t, db.Create(&parable).Error)
	track := Track{ParableID: parable.ID, Language: LanguageOriginal}
	require.NoError(t, db.Create(&track).Error)

	require.NoError(t, db.Model(&Track{}).Where("id = ?", track.ID).Updates(map[string]interface{}{
		"youtube_title":       "Why the seed waits",
		"youtube_description": "A story about patience.",
		"youtube_hashtags":    datatypes.JSONSlice[string]{"#parable"},
	}).Error)

	var loaded Track
	require.NoError(t, db.First(&loaded, track.ID).Error)
	assert.Equal(t, "Why the seed waits", loaded.YouTubeTitle)
	assert.Equal(t, "A story about patience.", loaded.YouTubeDescription)
	assert.Equal(t, []string{"#parable"}, []string(loaded.YouTubeHashtags))
}

func TestStructuredJobError_Unwrap(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := NewGenerationError("image_synthesis", "2 of 5 scenes failed", "", cause)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "2 of 5 scenes failed", err.Error())
}
