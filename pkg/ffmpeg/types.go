package ffmpeg

import "time"

// MediaMetadata represents metadata extracted from an audio or video file
type MediaMetadata struct {
	Duration   float64 `json:"duration"` // seconds
	Format     string  `json:"format"`   // container format name
	Size       int64   `json:"size"`
	Bitrate    int     `json:"bitrate"`
	HasVideo   bool    `json:"has_video"`
	HasAudio   bool    `json:"has_audio"`
	VideoCodec string  `json:"video_codec,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
}

// Segment is one video clip placed on the final timeline.
type Segment struct {
	Path           string
	SourceDuration float64 // measured length of the clip
	TargetDuration float64 // length on the timeline; the clip is retimed to fit
	Fixed          bool    // TargetDuration is a user override and is never refitted
}

// AssembleOptions describes a final render: segments in playback order, a
// narration track and an optional looped music bed.
type AssembleOptions struct {
	Segments      []Segment
	AudioPath     string
	AudioDuration float64
	MusicPath     string
	MusicVolumeDB float64
	OutputPath    string
	Width         int
	Height        int
	FPS           int
	MaxDuration   time.Duration
}

// AssembleResult describes the rendered file
type AssembleResult struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
}

// DefaultAssembleOptions returns the vertical short-video defaults
func DefaultAssembleOptions() AssembleOptions {
	return AssembleOptions{
		Width:         1080,
		Height:        1920,
		FPS:           30,
		MaxDuration:   60 * time.Second,
		MusicVolumeDB: -18,
	}
}
