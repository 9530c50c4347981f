package generation

import (
	"context"

	"github.com/killallgit/parable-studio/internal/models"
)

// RewriteRequest is the input of the narration rewrite step
type RewriteRequest struct {
	Title    string
	Text     string
	Language models.Language
}

// Narration is the output of the rewrite step. The translated fields are
// set only for the English track.
type Narration struct {
	HookText        string
	TTSText         string
	TranslatedTitle string
	TranslatedText  string
}

// ScenePrompt is one scene instruction produced by metadata synthesis
type ScenePrompt struct {
	SceneOrder      int
	PromptText      string
	VideoPromptText string
}

// Metadata is the YouTube metadata and scene prompt set for a track
type Metadata struct {
	Title       string
	Description string
	Hashtags    []string
	Scenes      []ScenePrompt
}

// TitleContext is what the title generator sees
type TitleContext struct {
	Title    string
	Text     string
	HookText string
}

// TitleDraft is one generated title candidate
type TitleDraft struct {
	Type models.VariantType
	Text string
}

// ImageRequest asks for the still of one scene
type ImageRequest struct {
	SceneOrder int
	Total      int
	Prompt     string
}

// Image is raw image bytes plus their MIME type
type Image struct {
	Data        []byte
	ContentType string
}

// FragmentInput is one clip on the final timeline
type FragmentInput struct {
	SceneOrder     int
	Path           string
	Duration       float64
	TargetDuration *float64
}

// AssemblyInput is everything the final render consumes. Paths are local files.
type AssemblyInput struct {
	AudioPath     string
	AudioDuration float64
	Fragments     []FragmentInput
	MusicPath     string
	MusicVolumeDB float64
	OutputPath    string
}

// AssemblyResult describes the rendered file
type AssemblyResult struct {
	Path     string
	Duration float64
}

// Rewriter turns source text into narration
type Rewriter interface {
	RewriteForNarration(ctx context.Context, req RewriteRequest) (*Narration, error)
}

// MetadataSynthesizer produces YouTube metadata and the scene prompt set
type MetadataSynthesizer interface {
	SynthesizeMetadata(ctx context.Context, sourceText, ttsText string) (*Metadata, error)
}

// TitleGenerator produces one title per variant type and picks the best
type TitleGenerator interface {
	GenerateTitleVariants(ctx context.Context, tc TitleContext) ([]TitleDraft, error)
	SelectBest(ctx context.Context, tc TitleContext, variants []TitleDraft) (int, error)
}

// MoodDetector classifies narration into one of models.Moods
type MoodDetector interface {
	DetectMood(ctx context.Context, text string) (string, error)
}

// ImageSynthesizer renders one scene still
type ImageSynthesizer interface {
	SynthesizeImage(ctx context.Context, req ImageRequest) (*Image, error)
}

// DurationReader measures media length in seconds
type DurationReader interface {
	ReadDuration(ctx context.Context, path string) (float64, error)
}

// VideoAssembler renders the final video
type VideoAssembler interface {
	AssembleFinalVideo(ctx context.Context, in AssemblyInput) (*AssemblyResult, error)
}

// Provider bundles every text and image capability of one backend
type Provider interface {
	Rewriter
	MetadataSynthesizer
	TitleGenerator
	MoodDetector
	ImageSynthesizer
}
