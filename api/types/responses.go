package types

import (
	"time"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/pipeline"
	"github.com/killallgit/parable-studio/internal/services/scenes"
)

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`    // Error taxonomy code
	Details interface{} `json:"details,omitempty"` // Additional error details
}

// ParableResponse is a parable with both of its tracks
type ParableResponse struct {
	ID            uint            `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	TitleOriginal string          `json:"title_original"`
	TextOriginal  string          `json:"text_original"`
	Tracks        []TrackResponse `json:"tracks"`
}

// ParableSummary is one row of the parable list
type ParableSummary struct {
	ID            uint           `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	TitleOriginal string         `json:"title_original"`
	Tracks        []TrackSummary `json:"tracks"`
}

// TrackSummary is the list view of a track
type TrackSummary struct {
	ID          uint               `json:"id"`
	Language    models.Language    `json:"language"`
	Status      models.TrackStatus `json:"status"`
	CurrentStep int                `json:"current_step"`
}

// ParableListResponse is one page of parables, newest first
type ParableListResponse struct {
	Parables []ParableSummary `json:"parables"`
	Count    int              `json:"count"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ImageResponse is a generated image with its resolved URL
type ImageResponse struct {
	models.GeneratedImage
	ImageURL string `json:"image_url"`
}

// FragmentResponse is an uploaded fragment with its resolved URL
type FragmentResponse struct {
	models.VideoFragment
	VideoURL          string  `json:"video_url"`
	EffectiveDuration float64 `json:"effective_duration"`
}

// AudioResponse is the narration file with its resolved URL
type AudioResponse struct {
	models.AudioFile
	AudioURL string `json:"audio_url"`
}

// TrackResponse is the full snapshot of one track
type TrackResponse struct {
	ID           uint               `json:"id"`
	ParableID    uint               `json:"parable_id"`
	Language     models.Language    `json:"language"`
	Status       models.TrackStatus `json:"status"`
	CurrentStep  int                `json:"current_step"`
	ErrorMessage *string            `json:"error_message"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`

	TitleTranslated string `json:"title_translated,omitempty"`
	TextTranslated  string `json:"text_translated,omitempty"`

	HookText           string   `json:"hook_text"`
	TextForTTS         string   `json:"text_for_tts"`
	YouTubeTitle       string   `json:"youtube_title"`
	YouTubeDescription string   `json:"youtube_description"`
	YouTubeHashtags    []string `json:"youtube_hashtags"`
	Mood               string   `json:"mood,omitempty"`
	MusicTrackID       *uint    `json:"music_track_id,omitempty"`

	FinalVideoPath     string     `json:"final_video_path"`
	FinalVideoURL      string     `json:"final_video_url,omitempty"`
	FinalVideoDuration *float64   `json:"final_video_duration"`
	ProcessedAt        *time.Time `json:"processed_at"`
	CompletedAt        *time.Time `json:"completed_at"`

	TitleVariants   []models.TitleVariant `json:"title_variants"`
	ImagePrompts    []models.ImagePrompt  `json:"image_prompts"`
	GeneratedImages []ImageResponse       `json:"generated_images"`
	VideoFragments  []FragmentResponse    `json:"video_fragments"`
	Audio           *AudioResponse        `json:"audio"`
	Scenes          *scenes.Report        `json:"scenes,omitempty"`
}

// JobResponse is the worker-side view of a triggered step
type JobResponse struct {
	ID          uint             `json:"id"`
	Type        models.JobType   `json:"type"`
	Status      models.JobStatus `json:"status"`
	TrackID     uint             `json:"track_id"`
	Progress    int              `json:"progress"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at"`
	Error       string           `json:"error,omitempty"`
	ErrorType   string           `json:"error_type,omitempty"`
}

// TriggerResponse acknowledges a pipeline request
type TriggerResponse struct {
	pipeline.Trigger
	Message string `json:"message"`
}

// TitleVariantsResponse is the lightweight A/B title listing
type TitleVariantsResponse struct {
	TrackID  uint                  `json:"track_id"`
	Variants []models.TitleVariant `json:"variants"`
	Selected *models.TitleVariant  `json:"selected"`
}

// MusicTrackResponse is a library entry with its resolved URL
type MusicTrackResponse struct {
	models.MusicTrack
	FileURL string `json:"file_url"`
}

// MusicListResponse lists the music library
type MusicListResponse struct {
	Tracks []MusicTrackResponse `json:"tracks"`
	Count  int                  `json:"count"`
}

// HealthResponse for health check endpoint
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Services  map[string]string `json:"services"`
}
