package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/killallgit/parable-studio/internal/models"
)

// Scene count bounds for a metadata round
const (
	MinScenes = 3
	MaxScenes = 7
)

var ErrEmptyResponse = errors.New("empty model response")

// ExtractJSON strips markdown code fences and any prose around the first
// JSON object or array in a model reply.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end < start {
		return text[start:]
	}
	return text[start : end+1]
}

type rewriteReply struct {
	Hook  string `json:"hook"`
	Text  string `json:"text_for_tts"`
	Title string `json:"title_translated"`
	Trans string `json:"text_translated"`
}

func parseRewrite(raw string, lang models.Language) (*Narration, error) {
	var reply rewriteReply
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &reply); err != nil {
		return nil, fmt.Errorf("decoding rewrite reply: %w", err)
	}
	n := &Narration{
		HookText: strings.TrimSpace(reply.Hook),
		TTSText:  strings.TrimSpace(reply.Text),
	}
	if n.TTSText == "" {
		return nil, fmt.Errorf("rewrite reply has no text_for_tts: %w", ErrEmptyResponse)
	}
	if lang == models.LanguageEnglish {
		n.TranslatedTitle = strings.TrimSpace(reply.Title)
		n.TranslatedText = strings.TrimSpace(reply.Trans)
		if n.TranslatedText == "" {
			return nil, fmt.Errorf("rewrite reply has no text_translated: %w", ErrEmptyResponse)
		}
	}
	return n, nil
}

type sceneReply struct {
	Prompt      string `json:"prompt"`
	VideoPrompt string `json:"video_prompt"`
}

type metadataReply struct {
	Title       string          `json:"youtube_title"`
	Description string          `json:"youtube_description"`
	Hashtags    json.RawMessage `json:"youtube_hashtags"`
	Hook        sceneReply      `json:"hook_scene"`
	Scenes      []sceneReply    `json:"scenes"`
}

func parseMetadata(raw string) (*Metadata, error) {
	var reply metadataReply
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &reply); err != nil {
		return nil, fmt.Errorf("decoding metadata reply: %w", err)
	}
	if strings.TrimSpace(reply.Hook.Prompt) == "" {
		return nil, fmt.Errorf("metadata reply has no hook_scene prompt: %w", ErrEmptyResponse)
	}
	if len(reply.Scenes) < MinScenes {
		return nil, fmt.Errorf("metadata reply has %d scenes, want at least %d", len(reply.Scenes), MinScenes)
	}
	if len(reply.Scenes) > MaxScenes {
		reply.Scenes = reply.Scenes[:MaxScenes]
	}

	md := &Metadata{
		Title:       strings.TrimSpace(reply.Title),
		Description: strings.TrimSpace(reply.Description),
		Hashtags:    parseHashtags(reply.Hashtags),
	}
	md.Scenes = append(md.Scenes, ScenePrompt{
		SceneOrder:      models.HookSceneOrder,
		PromptText:      strings.TrimSpace(reply.Hook.Prompt),
		VideoPromptText: strings.TrimSpace(reply.Hook.VideoPrompt),
	})
	for i, sc := range reply.Scenes {
		md.Scenes = append(md.Scenes, ScenePrompt{
			SceneOrder:      i,
			PromptText:      strings.TrimSpace(sc.Prompt),
			VideoPromptText: strings.TrimSpace(sc.VideoPrompt),
		})
	}
	return md, nil
}

// parseHashtags accepts either a JSON list or one space-separated string
func parseHashtags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var joined string
		if err := json.Unmarshal(raw, &joined); err != nil {
			return nil
		}
		list = strings.Fields(joined)
	}
	return NormalizeHashtags(list)
}

// NormalizeHashtags trims, prefixes '#' and drops duplicates and blanks
func NormalizeHashtags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimRight(tag, ","))
		if tag == "" || tag == "#" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

type titleReply struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// parseTitleVariants requires exactly one title per variant type and
// returns them in models.VariantTypes order.
func parseTitleVariants(raw string) ([]TitleDraft, error) {
	var reply []titleReply
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &reply); err != nil {
		return nil, fmt.Errorf("decoding title variants: %w", err)
	}

	byType := make(map[models.VariantType]string, len(reply))
	for _, r := range reply {
		vt := models.VariantType(strings.ToLower(strings.TrimSpace(r.Type)))
		text := strings.TrimSpace(r.Text)
		if vt.Valid() && text != "" {
			if _, dup := byType[vt]; !dup {
				byType[vt] = text
			}
		}
	}

	drafts := make([]TitleDraft, 0, len(models.VariantTypes))
	for _, vt := range models.VariantTypes {
		text, ok := byType[vt]
		if !ok {
			return nil, fmt.Errorf("title variants missing type %q", vt)
		}
		drafts = append(drafts, TitleDraft{Type: vt, Text: text})
	}
	return drafts, nil
}

func parseSelection(raw string, count int) (int, error) {
	var reply struct {
		Index *int `json:"index"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &reply); err != nil {
		return 0, fmt.Errorf("decoding selection: %w", err)
	}
	if reply.Index == nil || *reply.Index < 0 || *reply.Index >= count {
		return 0, fmt.Errorf("selection index out of range 0..%d", count-1)
	}
	return *reply.Index, nil
}
