package models

import "time"

// VariantType is the rhetorical angle of an A/B title candidate
type VariantType string

const (
	VariantQuestion    VariantType = "question"
	VariantIntrigue    VariantType = "intrigue"
	VariantEmotion     VariantType = "emotion"
	VariantNumbers     VariantType = "numbers"
	VariantProvocation VariantType = "provocation"
)

// VariantTypes lists every variant type in generation order.
var VariantTypes = []VariantType{
	VariantQuestion,
	VariantIntrigue,
	VariantEmotion,
	VariantNumbers,
	VariantProvocation,
}

// Valid reports whether v is a known variant type
func (v VariantType) Valid() bool {
	for _, t := range VariantTypes {
		if t == v {
			return true
		}
	}
	return false
}

// TitleVariant is one A/B title candidate for a track
type TitleVariant struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time   `json:"created_at"`
	TrackID     uint        `json:"track_id" gorm:"not null;index"`
	Position    int         `json:"position" gorm:"not null;default:0"`
	VariantType VariantType `json:"variant_type" gorm:"size:50;not null"`
	VariantText string      `json:"variant_text" gorm:"type:text;not null"`
	IsSelected  bool        `json:"is_selected" gorm:"not null;default:false"`
}

// TableName returns the table name for the TitleVariant model
func (TitleVariant) TableName() string {
	return "title_variants"
}
