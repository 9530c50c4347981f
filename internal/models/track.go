package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Language tags a localized production track
type Language string

const (
	LanguageOriginal Language = "original"
	LanguageEnglish  Language = "english"
)

// Valid reports whether l is a known track language
func (l Language) Valid() bool {
	return l == LanguageOriginal || l == LanguageEnglish
}

// TrackStatus is the pipeline state of a track
type TrackStatus string

const (
	TrackStatusDraft           TrackStatus = "draft"
	TrackStatusProcessing      TrackStatus = "processing"
	TrackStatusAwaitingAudio   TrackStatus = "awaiting_audio"
	TrackStatusAwaitingVideos  TrackStatus = "awaiting_videos"
	TrackStatusGeneratingFinal TrackStatus = "generating_final"
	TrackStatusCompleted       TrackStatus = "completed"
	TrackStatusError           TrackStatus = "error"
)

// BusyStatuses are the states in which an automated step is in flight.
var BusyStatuses = []TrackStatus{TrackStatusProcessing, TrackStatusGeneratingFinal}

// IsBusy reports whether an automated step is running
func (s TrackStatus) IsBusy() bool {
	return s == TrackStatusProcessing || s == TrackStatusGeneratingFinal
}

// Pipeline step numbers persisted in Track.CurrentStep
const (
	StepNone     = 0
	StepRewrite  = 1
	StepMetadata = 2
	StepImages   = 3
	StepAudio    = 4
	StepFinal    = 5
)

// Track is one localized production run of a parable through the pipeline.
type Track struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ParableID uint     `json:"parable_id" gorm:"not null;uniqueIndex:idx_tracks_parable_language"`
	Language  Language `json:"language" gorm:"size:20;not null;uniqueIndex:idx_tracks_parable_language"`

	Status       TrackStatus `json:"status" gorm:"size:30;not null;default:draft;index"`
	CurrentStep  int         `json:"current_step" gorm:"not null;default:0"`
	ErrorMessage *string     `json:"error_message,omitempty" gorm:"type:text"`

	// English track only
	TitleTranslated string `json:"title_translated,omitempty" gorm:"size:500"`
	TextTranslated  string `json:"text_translated,omitempty" gorm:"type:text"`

	// Step 1
	HookText   string `json:"hook_text" gorm:"type:text"`
	TextForTTS string `json:"text_for_tts" gorm:"type:text"`

	// Step 2
	YouTubeTitle       string                      `json:"youtube_title" gorm:"column:youtube_title;size:500"`
	YouTubeDescription string                      `json:"youtube_description" gorm:"column:youtube_description;type:text"`
	YouTubeHashtags    datatypes.JSONSlice[string] `json:"youtube_hashtags" gorm:"column:youtube_hashtags"`
	Mood               string                      `json:"mood,omitempty" gorm:"size:50"`
	MusicTrackID       *uint                       `json:"music_track_id,omitempty"`

	// Step 5
	FinalVideoPath     string     `json:"final_video_path" gorm:"size:500"`
	FinalVideoDuration *float64   `json:"final_video_duration"`
	ProcessedAt        *time.Time `json:"processed_at"`
	CompletedAt        *time.Time `json:"completed_at"`

	TitleVariants   []TitleVariant   `json:"title_variants,omitempty" gorm:"foreignKey:TrackID"`
	ImagePrompts    []ImagePrompt    `json:"image_prompts,omitempty" gorm:"foreignKey:TrackID"`
	GeneratedImages []GeneratedImage `json:"generated_images,omitempty" gorm:"foreignKey:TrackID"`
	VideoFragments  []VideoFragment  `json:"video_fragments,omitempty" gorm:"foreignKey:TrackID"`
	Audio           *AudioFile       `json:"audio,omitempty" gorm:"foreignKey:TrackID"`
}

// TableName returns the table name for the Track model
func (Track) TableName() string {
	return "tracks"
}

// BeforeCreate sets the initial pipeline state
func (t *Track) BeforeCreate(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TrackStatusDraft
	}
	return nil
}

// ErrorText returns the persisted error message, or "" outside the error state.
func (t *Track) ErrorText() string {
	if t.ErrorMessage == nil {
		return ""
	}
	return *t.ErrorMessage
}

// AssetPrefix is the asset store key prefix owning every binary of the track.
func (t *Track) AssetPrefix() string {
	return TrackAssetPrefix(t.ID)
}
