package types

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/internal/models"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prefixURLs string

func (p prefixURLs) URL(key string) string { return string(p) + key }

func TestSendError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"not found", apperrors.NotFound("parable", 3), http.StatusNotFound, "NOT_FOUND"},
		{"already exists", apperrors.AlreadyExists("english track", 3), http.StatusConflict, "ALREADY_EXISTS"},
		{"precondition", apperrors.PreconditionFailed("track is busy"), http.StatusConflict, "PRECONDITION_FAILED"},
		{"validation", apperrors.ValidationError("language", "bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown scene", apperrors.UnknownScene(2, "generated image"), http.StatusUnprocessableEntity, "UNKNOWN_SCENE"},
		{"generation", apperrors.GenerationFailed("image synthesis", errors.New("quota")), http.StatusBadGateway, "GENERATION_FAILED"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			SendError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.NotContains(t, resp.Message, "boom")
		})
	}
}

func TestFromTrack(t *testing.T) {
	msg := "Step 2: metadata synthesis timeout"
	target := 3.5
	track := &models.Track{
		ID:             4,
		Language:       models.LanguageOriginal,
		Status:         models.TrackStatusError,
		CurrentStep:    1,
		ErrorMessage:   &msg,
		FinalVideoPath: "",
		GeneratedImages: []models.GeneratedImage{
			{SceneOrder: -1, ImagePath: "tracks/4/images/scene_-1.png"},
		},
		VideoFragments: []models.VideoFragment{
			{SceneOrder: -1, VideoPath: "tracks/4/videos/scene_-1.mp4", Duration: 5, TargetDuration: &target},
		},
		Audio: &models.AudioFile{AudioPath: "tracks/4/audio/narration.mp3"},
	}

	resp := FromTrack(track, prefixURLs("http://cdn/"), nil)

	assert.Equal(t, &msg, resp.ErrorMessage)
	assert.Empty(t, resp.FinalVideoURL, "no final video yet")
	require.Len(t, resp.GeneratedImages, 1)
	assert.Equal(t, "http://cdn/tracks/4/images/scene_-1.png", resp.GeneratedImages[0].ImageURL)
	require.Len(t, resp.VideoFragments, 1)
	assert.Equal(t, 3.5, resp.VideoFragments[0].EffectiveDuration)
	require.NotNil(t, resp.Audio)
	assert.Equal(t, "http://cdn/tracks/4/audio/narration.mp3", resp.Audio.AudioURL)
	assert.NotNil(t, resp.YouTubeHashtags)
	assert.NotNil(t, resp.TitleVariants)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	images := decoded["generated_images"].([]interface{})
	assert.Equal(t, float64(-1), images[0].(map[string]interface{})["scene_order"], "embedded fields are flattened")
}

func TestSelectedVariant(t *testing.T) {
	variants := []models.TitleVariant{
		{VariantType: models.VariantQuestion, VariantText: "Where did it go?"},
		{VariantType: models.VariantEmotion, VariantText: "Joy found", IsSelected: true},
	}
	selected := SelectedVariant(variants)
	require.NotNil(t, selected)
	assert.Equal(t, "Joy found", selected.VariantText)
	assert.Nil(t, SelectedVariant(nil))
}
