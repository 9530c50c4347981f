package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/pkg/logger"
)

// GeminiConfig holds configuration for the Gemini REST client
type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

// GeminiClient implements Provider against the Generative Language REST API
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	textModel  string
	imageModel string
	log        *logger.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(cfg GeminiConfig, log *logger.Logger) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-2.0-flash"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gemini-2.0-flash-exp"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}

	return &GeminiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		log:        log.With("service", "GeminiClient"),
	}
}

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// generate posts one generateContent call and returns the first candidate's parts
func (c *GeminiClient) generate(ctx context.Context, model string, prompt string, cfg *generationConfig) ([]geminiPart, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorBody
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("gemini %s: %s (%d)", model, apiErr.Error.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("gemini %s returned status %d", model, resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("gemini blocked prompt: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	c.log.Debug("gemini call finished", "model", model, "elapsed", time.Since(start).String())
	return out.Candidates[0].Content.Parts, nil
}

func (c *GeminiClient) generateText(ctx context.Context, prompt string, jsonReply bool) (string, error) {
	var cfg *generationConfig
	if jsonReply {
		cfg = &generationConfig{ResponseMimeType: "application/json"}
	}
	parts, err := c.generate(ctx, c.textModel, prompt, cfg)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// RewriteForNarration implements Rewriter
func (c *GeminiClient) RewriteForNarration(ctx context.Context, req RewriteRequest) (*Narration, error) {
	var prompt string
	if req.Language == models.LanguageEnglish {
		prompt = fmt.Sprintf(englishRewritePrompt, req.Title, req.Text)
	} else {
		prompt = fmt.Sprintf(rewritePrompt, req.Text)
	}
	text, err := c.generateText(ctx, prompt, true)
	if err != nil {
		return nil, err
	}
	return parseRewrite(text, req.Language)
}

// SynthesizeMetadata implements MetadataSynthesizer
func (c *GeminiClient) SynthesizeMetadata(ctx context.Context, sourceText, ttsText string) (*Metadata, error) {
	text, err := c.generateText(ctx, fmt.Sprintf(metadataPrompt, sourceText, ttsText, MinScenes, MaxScenes), true)
	if err != nil {
		return nil, err
	}
	return parseMetadata(text)
}

// GenerateTitleVariants implements TitleGenerator
func (c *GeminiClient) GenerateTitleVariants(ctx context.Context, tc TitleContext) ([]TitleDraft, error) {
	text, err := c.generateText(ctx, fmt.Sprintf(titleVariantsPrompt, tc.Title, tc.HookText, tc.Text), true)
	if err != nil {
		return nil, err
	}
	return parseTitleVariants(text)
}

// SelectBest implements TitleGenerator
func (c *GeminiClient) SelectBest(ctx context.Context, tc TitleContext, variants []TitleDraft) (int, error) {
	var list strings.Builder
	for i, v := range variants {
		fmt.Fprintf(&list, "%d. [%s] %s\n", i, v.Type, v.Text)
	}
	text, err := c.generateText(ctx, fmt.Sprintf(selectTitlePrompt, tc.Text, list.String()), true)
	if err != nil {
		return 0, err
	}
	return parseSelection(text, len(variants))
}

// DetectMood implements MoodDetector. Unrecognized replies map to the default mood.
func (c *GeminiClient) DetectMood(ctx context.Context, text string) (string, error) {
	if len(text) > 500 {
		text = text[:500]
	}
	reply, err := c.generateText(ctx, fmt.Sprintf(moodPrompt, strings.Join(models.Moods, ", "), text), false)
	if err != nil {
		return "", err
	}
	return models.NormalizeMood(strings.Trim(reply, " .\n\"'")), nil
}

// SynthesizeImage implements ImageSynthesizer
func (c *GeminiClient) SynthesizeImage(ctx context.Context, req ImageRequest) (*Image, error) {
	prompt := fmt.Sprintf(imagePrompt, sceneLabel(req.SceneOrder), req.Total, req.Prompt)
	parts, err := c.generate(ctx, c.imageModel, prompt, &generationConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, err
	}

	for _, p := range parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding image data: %w", err)
		}
		mime := p.InlineData.MimeType
		if mime == "" {
			mime = "image/png"
		}
		return &Image{Data: data, ContentType: mime}, nil
	}
	return nil, fmt.Errorf("no image in response for scene %d: %w", req.SceneOrder, ErrEmptyResponse)
}

func sceneLabel(order int) string {
	if order == models.HookSceneOrder {
		return "the opening hook"
	}
	return fmt.Sprintf("scene %d", order+1)
}

const rewritePrompt = `You are a scriptwriter for short narrated videos.
Rewrite the parable below for a voice synthesizer. Keep the original language, use short sentences,
keep it under 60 seconds when read aloud, and add expressive tags such as [pause], [softly] or [dramatically] where they help.
Also write a one or two sentence hook that grabs attention before the story starts.

Reply with JSON only: {"hook": "...", "text_for_tts": "..."}

PARABLE:
%s`

const englishRewritePrompt = `You are a scriptwriter for short narrated videos.
Translate the parable below into natural English, then rewrite the translation for a voice synthesizer:
short sentences, under 60 seconds when read aloud, expressive tags such as [pause] or [softly] where they help.
Also write a one or two sentence English hook that grabs attention before the story starts.

Reply with JSON only:
{"title_translated": "...", "text_translated": "...", "hook": "...", "text_for_tts": "..."}

TITLE:
%s

PARABLE:
%s`

const metadataPrompt = `You create YouTube Shorts from parables.

ORIGINAL PARABLE:
%s

NARRATION:
%s

Produce a catchy title (at most 100 characters), a 2-3 sentence description, 5-10 hashtags,
one image prompt for the opening hook and %d to %d image prompts for consecutive story scenes.
Image prompts are in English, describe characters in enough detail to stay consistent across scenes,
and end with a style such as "cinematic, dramatic lighting, detailed, vertical 9:16".
Each scene also gets a short camera-motion prompt for turning the still into video.

Reply with JSON only:
{"youtube_title": "...", "youtube_description": "...", "youtube_hashtags": ["#..."],
 "hook_scene": {"prompt": "...", "video_prompt": "..."},
 "scenes": [{"prompt": "...", "video_prompt": "..."}]}`

const titleVariantsPrompt = `Write five alternative YouTube Shorts titles for the video below, one per angle:
question, intrigue, emotion, numbers, provocation. Each at most 100 characters.

CURRENT TITLE: %s
HOOK: %s
NARRATION:
%s

Reply with JSON only: [{"type": "question", "text": "..."}, ...]`

const selectTitlePrompt = `Pick the title most likely to get the highest click-through rate for this short video.

NARRATION:
%s

CANDIDATES:
%s
Reply with JSON only: {"index": <number>}`

const moodPrompt = `Classify the mood of this text. Reply with exactly one word from: %s.

TEXT:
%s`

const imagePrompt = `Create %s of a %d-scene vertical (9:16) visual story.
Cinematic composition, one consistent art style, rich colors, atmospheric lighting, high detail.

SCENE DESCRIPTION:
%s`
