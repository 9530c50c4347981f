package generation

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/killallgit/parable-studio/internal/models"
)

// Stub is an offline Provider producing deterministic output. It lets the
// pipeline run end to end without network access.
type Stub struct{}

// NewStub creates the offline provider
func NewStub() *Stub {
	return &Stub{}
}

func sentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// RewriteForNarration implements Rewriter
func (s *Stub) RewriteForNarration(ctx context.Context, req RewriteRequest) (*Narration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("nothing to rewrite: %w", ErrEmptyResponse)
	}

	n := &Narration{
		HookText: firstWords(text, 8) + "...",
		TTSText:  "[softly] " + text,
	}
	if req.Language == models.LanguageEnglish {
		n.TranslatedTitle = strings.TrimSpace(req.Title)
		n.TranslatedText = text
	}
	return n, nil
}

// SynthesizeMetadata implements MetadataSynthesizer
func (s *Stub) SynthesizeMetadata(ctx context.Context, sourceText, ttsText string) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	beats := sentences(ttsText)
	count := len(beats)
	if count < MinScenes {
		count = MinScenes
	}
	if count > MaxScenes {
		count = MaxScenes
	}

	md := &Metadata{
		Title:       firstWords(sourceText, 6),
		Description: firstWords(ttsText, 30),
		Hashtags:    []string{"#parable", "#wisdom", "#shorts"},
	}
	md.Scenes = append(md.Scenes, ScenePrompt{
		SceneOrder:      models.HookSceneOrder,
		PromptText:      "Opening hook, cinematic, vertical 9:16",
		VideoPromptText: "slow push in",
	})
	for i := 0; i < count; i++ {
		beat := "continuation of the story"
		if i < len(beats) {
			beat = beats[i]
		}
		md.Scenes = append(md.Scenes, ScenePrompt{
			SceneOrder:      i,
			PromptText:      fmt.Sprintf("Scene %d: %s, cinematic, vertical 9:16", i+1, beat),
			VideoPromptText: "gentle pan",
		})
	}
	return md, nil
}

// GenerateTitleVariants implements TitleGenerator
func (s *Stub) GenerateTitleVariants(ctx context.Context, tc TitleContext) ([]TitleDraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subject := tc.Title
	if subject == "" {
		subject = firstWords(tc.Text, 5)
	}
	return []TitleDraft{
		{Type: models.VariantQuestion, Text: fmt.Sprintf("What does %s teach us?", subject)},
		{Type: models.VariantIntrigue, Text: fmt.Sprintf("Nobody expected how %s ends", subject)},
		{Type: models.VariantEmotion, Text: fmt.Sprintf("%s will move you", subject)},
		{Type: models.VariantNumbers, Text: fmt.Sprintf("1 parable, 60 seconds: %s", subject)},
		{Type: models.VariantProvocation, Text: fmt.Sprintf("You have misunderstood %s", subject)},
	}, nil
}

// SelectBest implements TitleGenerator by picking the longest candidate
func (s *Stub) SelectBest(ctx context.Context, tc TitleContext, variants []TitleDraft) (int, error) {
	if len(variants) == 0 {
		return 0, ErrEmptyResponse
	}
	best := 0
	for i, v := range variants {
		if len(v.Text) > len(variants[best].Text) {
			best = i
		}
	}
	return best, nil
}

// DetectMood implements MoodDetector with a keyword match
func (s *Stub) DetectMood(ctx context.Context, text string) (string, error) {
	lower := strings.ToLower(text)
	keywords := map[string][]string{
		"sad":          {"grief", "tears", "lost", "death"},
		"joyful":       {"joy", "celebrat", "laugh", "feast"},
		"calm":         {"peace", "quiet", "still"},
		"mystical":     {"mystery", "spirit", "dream"},
		"motivational": {"work", "strive", "effort"},
		"inspiring":    {"hope", "light", "rise"},
	}
	for _, mood := range models.Moods {
		for _, kw := range keywords[mood] {
			if strings.Contains(lower, kw) {
				return mood, nil
			}
		}
	}
	return "dramatic", nil
}

// SynthesizeImage implements ImageSynthesizer with a flat-colored PNG
func (s *Stub) SynthesizeImage(ctx context.Context, req ImageRequest) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.IndexFunc(req.Prompt, func(r rune) bool { return !unicode.IsSpace(r) }) < 0 {
		return nil, fmt.Errorf("empty prompt for scene %d", req.SceneOrder)
	}

	const w, h = 108, 192
	shade := uint8(40 + (req.SceneOrder+1)*25%200)
	dc := gg.NewContext(w, h)
	dc.SetColor(color.RGBA{R: shade, G: 60, B: 255 - shade, A: 255})
	dc.Clear()

	// Lighter band marks the scene so adjacent placeholders differ
	dc.SetRGBA255(255, 255, 255, 48)
	dc.DrawRectangle(0, float64(h)*0.6, float64(w), float64(h)*0.15)
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding placeholder: %w", err)
	}
	return &Image{Data: buf.Bytes(), ContentType: "image/png"}, nil
}
