package models

import (
	"fmt"
	"time"
)

// HookSceneOrder is the reserved scene order of the opening hook.
const HookSceneOrder = -1

// ImagePrompt is the image-generation instruction for one scene
type ImagePrompt struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	CreatedAt       time.Time `json:"created_at"`
	TrackID         uint      `json:"track_id" gorm:"not null;uniqueIndex:idx_prompts_track_scene"`
	SceneOrder      int       `json:"scene_order" gorm:"not null;uniqueIndex:idx_prompts_track_scene"`
	PromptText      string    `json:"prompt_text" gorm:"type:text;not null"`
	VideoPromptText *string   `json:"video_prompt_text,omitempty" gorm:"type:text"`
}

// TableName returns the table name for the ImagePrompt model
func (ImagePrompt) TableName() string {
	return "image_prompts"
}

// GeneratedImage is the synthesized still for one scene
type GeneratedImage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time `json:"created_at"`
	TrackID    uint      `json:"track_id" gorm:"not null;uniqueIndex:idx_images_track_scene"`
	SceneOrder int       `json:"scene_order" gorm:"not null;uniqueIndex:idx_images_track_scene"`
	PromptID   uint      `json:"prompt_id" gorm:"not null"`
	ImagePath  string    `json:"image_path" gorm:"not null;size:500"`
}

// TableName returns the table name for the GeneratedImage model
func (GeneratedImage) TableName() string {
	return "generated_images"
}

// VideoFragment is the uploaded motion clip for one scene
type VideoFragment struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	TrackID        uint      `json:"track_id" gorm:"not null;uniqueIndex:idx_fragments_track_scene"`
	SceneOrder     int       `json:"scene_order" gorm:"not null;uniqueIndex:idx_fragments_track_scene"`
	ImageID        uint      `json:"image_id" gorm:"not null"`
	VideoPath      string    `json:"video_path" gorm:"not null;size:500"`
	Duration       float64   `json:"duration"`
	TargetDuration *float64  `json:"target_duration"`
}

// TableName returns the table name for the VideoFragment model
func (VideoFragment) TableName() string {
	return "video_fragments"
}

// EffectiveDuration is the length the fragment occupies in the final video.
func (v *VideoFragment) EffectiveDuration() float64 {
	if v.TargetDuration != nil {
		return *v.TargetDuration
	}
	return v.Duration
}

// AudioFile is the narration track. A track keeps at most one.
type AudioFile struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time `json:"created_at"`
	TrackID          uint      `json:"track_id" gorm:"not null;uniqueIndex"`
	AudioPath        string    `json:"audio_path" gorm:"not null;size:500"`
	Duration         float64   `json:"duration"`
	OriginalFilename string    `json:"original_filename,omitempty" gorm:"size:255"`
}

// TableName returns the table name for the AudioFile model
func (AudioFile) TableName() string {
	return "audio_files"
}

// TrackAssetPrefix is the key prefix under which a track's binaries live.
func TrackAssetPrefix(trackID uint) string {
	return fmt.Sprintf("tracks/%d/", trackID)
}
