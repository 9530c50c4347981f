package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
	"github.com/killallgit/parable-studio/internal/database"
	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/assets"
	"github.com/killallgit/parable-studio/internal/services/generation"
	"github.com/killallgit/parable-studio/internal/services/jobs"
	"github.com/killallgit/parable-studio/internal/services/locks"
	"github.com/killallgit/parable-studio/internal/services/music"
	"github.com/killallgit/parable-studio/internal/services/parables"
	"github.com/killallgit/parable-studio/internal/services/pipeline"
	"github.com/killallgit/parable-studio/internal/services/scenes"
	"github.com/killallgit/parable-studio/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constDuration float64

func (p constDuration) ReadDuration(ctx context.Context, path string) (float64, error) {
	return float64(p), nil
}

type testEnv struct {
	engine *gin.Engine
	ctrl   *pipeline.Controller
	jobs   jobs.Service
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	store, err := assets.NewLocalStore(t.TempDir(), "http://localhost:8080/assets")
	require.NoError(t, err)

	locker := locks.NewMemoryLocker()
	jobService := jobs.NewService(jobs.NewRepository(conn.DB), nil)
	sceneService := scenes.NewService(scenes.NewRepository(conn.DB), locker)
	library := music.NewService(conn.DB, store, constDuration(90), nil)

	cfg := pipeline.DefaultConfig()
	cfg.MusicEnabled = false
	cfg.TempDir = t.TempDir()
	ctrl := pipeline.New(pipeline.Deps{
		DB:        conn.DB,
		Scenes:    sceneService,
		Jobs:      jobService,
		Store:     store,
		Provider:  generation.NewStub(),
		Durations: constDuration(5),
		Music:     library,
		Locker:    locker,
	}, cfg)

	server := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0})
	server.SetDependencies(&types.Dependencies{
		DB:             conn,
		Parables:       parables.NewService(parables.NewRepository(conn.DB), store, jobService, nil),
		Scenes:         sceneService,
		Pipeline:       ctrl,
		Music:          library,
		JobService:     jobService,
		Assets:         store,
		MaxUploadBytes: 1 << 20,
		Version:        "test",
	})
	server.ServeAssets(store.Root())
	require.NoError(t, server.Initialize())
	t.Cleanup(func() { server.Shutdown(context.Background()) })

	return &testEnv{engine: server.Engine(), ctrl: ctrl, jobs: jobService}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, path, filename string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("media bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestParableLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	w := env.do(t, http.MethodPost, "/api/v1/parables", types.CreateParableRequest{
		Title: "The Lost Coin",
		Text:  "A woman had ten coins. One coin went missing. She swept the house until she found it.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[types.ParableResponse](t, w)
	require.Len(t, created.Tracks, 1)
	assert.Equal(t, models.TrackStatusDraft, created.Tracks[0].Status)

	base := fmt.Sprintf("/api/v1/parables/%d", created.ID)
	trackPath := base + "/tracks/original"

	// The english track needs the original narration first
	w = env.do(t, http.MethodPost, base+"/english", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PRECONDITION_FAILED", decode[types.ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodPost, trackPath+"/process", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	trigger := decode[types.TriggerResponse](t, w)
	assert.Equal(t, models.TrackStatusProcessing, trigger.Status)
	assert.False(t, trigger.Coalesced)
	require.NotZero(t, trigger.JobID)

	w = env.do(t, http.MethodPost, trackPath+"/process", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	again := decode[types.TriggerResponse](t, w)
	assert.True(t, again.Coalesced)
	assert.Equal(t, trigger.JobID, again.JobID)

	jobPath := fmt.Sprintf("/api/v1/jobs/%d", trigger.JobID)
	w = env.do(t, http.MethodGet, jobPath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	queued := decode[types.JobResponse](t, w)
	assert.Equal(t, models.JobTypeTrackProcess, queued.Type)
	assert.Equal(t, models.JobStatusPending, queued.Status)
	assert.Equal(t, trigger.TrackID, queued.TrackID)

	// Run the queued job the way a worker would
	claimed, err := env.jobs.ClaimNextJob(ctx, "test-worker", nil)
	require.NoError(t, err)
	require.Equal(t, trigger.JobID, claimed.ID)
	require.NoError(t, env.ctrl.RunProcess(ctx, trigger.TrackID, nil))
	require.NoError(t, env.jobs.CompleteJob(ctx, trigger.JobID, nil))

	w = env.do(t, http.MethodGet, jobPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	done := decode[types.JobResponse](t, w)
	assert.Equal(t, models.JobStatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)

	w = env.do(t, http.MethodGet, "/api/v1/jobs/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[types.ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodGet, trackPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	track := decode[types.TrackResponse](t, w)
	assert.Equal(t, models.TrackStatusAwaitingAudio, track.Status)
	assert.Equal(t, models.StepImages, track.CurrentStep)
	assert.NotEmpty(t, track.HookText)
	assert.NotEmpty(t, track.YouTubeTitle)
	require.NotNil(t, track.Scenes)
	assert.Equal(t, len(track.ImagePrompts), len(track.GeneratedImages))
	assert.Equal(t, track.Scenes.Total, len(track.GeneratedImages))
	for _, img := range track.GeneratedImages {
		assert.True(t, strings.HasPrefix(img.ImageURL, "http://localhost:8080/assets/"), img.ImageURL)
	}

	// Local assets are served statically
	w = env.do(t, http.MethodGet, "/assets/"+track.GeneratedImages[0].ImagePath, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, trackPath+"/title-variants", nil)
	require.Equal(t, http.StatusOK, w.Code)
	variants := decode[types.TitleVariantsResponse](t, w)
	assert.Len(t, variants.Variants, len(models.VariantTypes))
	require.NotNil(t, variants.Selected)
	assert.Equal(t, track.YouTubeTitle, variants.Selected.VariantText)

	w = env.do(t, http.MethodPost, trackPath+"/generate-final", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.upload(t, trackPath+"/videos", "clip.mp4", map[string]string{"scene_order": "99"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "UNKNOWN_SCENE", decode[types.ErrorResponse](t, w).Code)

	w = env.upload(t, trackPath+"/audio", "narration.ogg", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.upload(t, trackPath+"/audio", "narration.mp3", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	audio := decode[types.AudioResponse](t, w)
	assert.Equal(t, 5.0, audio.Duration)

	var fragmentID uint
	for _, scene := range track.Scenes.Scenes {
		w = env.upload(t, trackPath+"/videos", "clip.mp4", map[string]string{"scene_order": fmt.Sprint(scene.SceneOrder)})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		fragmentID = decode[types.FragmentResponse](t, w).ID
	}

	w = env.do(t, http.MethodPatch, fmt.Sprintf("%s/videos/%d", trackPath, fragmentID), map[string]interface{}{"target_duration": 3.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3.5, decode[types.FragmentResponse](t, w).EffectiveDuration)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("%s/videos/%d", trackPath, fragmentID), map[string]interface{}{"target_duration": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, trackPath+"/generate-final", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, models.TrackStatusGeneratingFinal, decode[types.TriggerResponse](t, w).Status)

	w = env.do(t, http.MethodPost, base+"/english", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, base+"/english", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_EXISTS", decode[types.ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[types.ParableResponse](t, w).Tracks, 2)

	w = env.do(t, http.MethodGet, "/api/v1/parables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[types.ParableListResponse](t, w)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Parables, 1)
	assert.Len(t, list.Parables[0].Tracks, 2)

	w = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestValidation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{"missing text", http.MethodPost, "/api/v1/parables", map[string]string{"title": "Only a title"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"blank title", http.MethodPost, "/api/v1/parables", types.CreateParableRequest{Title: "   ", Text: "Text"}, http.StatusBadRequest, "MISSING_FIELD"},
		{"bad parable id", http.MethodGet, "/api/v1/parables/abc", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown parable", http.MethodGet, "/api/v1/parables/999", nil, http.StatusNotFound, "NOT_FOUND"},
		{"unknown language", http.MethodGet, "/api/v1/parables/1/tracks/klingon", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"track of unknown parable", http.MethodPost, "/api/v1/parables/999/tracks/original/process", nil, http.StatusNotFound, "NOT_FOUND"},
		{"bad pagination", http.MethodGet, "/api/v1/parables?limit=ten", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, decode[types.ErrorResponse](t, w).Code)
		})
	}
}

func TestMusicRoutes(t *testing.T) {
	env := setupTestEnv(t)

	w := env.upload(t, "/api/v1/music", "storm.mp3", map[string]string{"mood": "dramatic", "volume_db": "-12"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	track := decode[types.MusicTrackResponse](t, w)
	assert.Equal(t, "storm", track.Name)
	assert.Equal(t, -12.0, track.VolumeDB)
	assert.Equal(t, 90.0, track.Duration)
	assert.NotEmpty(t, track.FileURL)

	w = env.upload(t, "/api/v1/music", "storm.mp3", map[string]string{"mood": "angry"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.upload(t, "/api/v1/music", "storm.mp3", map[string]string{"mood": "calm", "volume_db": "loud"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/music?mood=dramatic", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[types.MusicListResponse](t, w).Count)

	w = env.do(t, http.MethodGet, "/api/v1/music?mood=calm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[types.MusicListResponse](t, w).Count)
}

func TestPublicRoutes(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/version", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", decode[map[string]interface{}](t, w)["version"])

	w = env.do(t, http.MethodGet, "/docs", nil)
	assert.Equal(t, http.StatusMovedPermanently, w.Code)

	w = env.do(t, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/parables/{id}/tracks/{language}/process")

	w = env.do(t, http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadTooLarge(t *testing.T) {
	env := setupTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "storm.mp3")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), 2<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/music", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
