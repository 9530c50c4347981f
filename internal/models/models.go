package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Parable is the top-level content item: a source text and its productions.
type Parable struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	TitleOriginal string    `json:"title_original" gorm:"not null;size:500"`
	TextOriginal  string    `json:"text_original" gorm:"type:text;not null"`
	Tracks        []Track   `json:"tracks,omitempty" gorm:"foreignKey:ParableID"`
}

// TableName returns the table name for the Parable model
func (Parable) TableName() string {
	return "parables"
}

// Track returns the parable's track for a language, if loaded.
func (p *Parable) Track(lang Language) *Track {
	for i := range p.Tracks {
		if p.Tracks[i].Language == lang {
			return &p.Tracks[i]
		}
	}
	return nil
}

// MusicTrack is a background bed in the music library, chosen by mood.
type MusicTrack struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Mood      string    `json:"mood" gorm:"not null;size:50;index"`
	FilePath  string    `json:"file_path" gorm:"not null;size:500"`
	Duration  float64   `json:"duration"`
	VolumeDB  float64   `json:"volume_db" gorm:"default:-18"`
}

// TableName returns the table name for the MusicTrack model
func (MusicTrack) TableName() string {
	return "music_tracks"
}

// BeforeCreate applies the default mix level
func (m *MusicTrack) BeforeCreate(tx *gorm.DB) error {
	if m.VolumeDB == 0 {
		m.VolumeDB = DefaultMusicVolumeDB
	}
	return nil
}

// DefaultMusicVolumeDB keeps the bed well under the narration.
const DefaultMusicVolumeDB = -18.0

// Moods recognised by the mood detector and the music library.
var Moods = []string{"dramatic", "calm", "motivational", "mystical", "inspiring", "sad", "joyful"}

// NormalizeMood maps free-form detector output onto a known mood.
func NormalizeMood(mood string) string {
	mood = strings.ToLower(strings.TrimSpace(mood))
	for _, m := range Moods {
		if m == mood {
			return m
		}
	}
	return "dramatic"
}

// All returns every model managed by AutoMigrate.
func All() []any {
	return []any{
		&Parable{},
		&Track{},
		&ImagePrompt{},
		&GeneratedImage{},
		&VideoFragment{},
		&AudioFile{},
		&TitleVariant{},
		&MusicTrack{},
		&Job{},
	}
}
