package assets

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/killallgit/parable-studio/internal/models"
)

// Each write gets a fresh revision suffix so replaced assets never collide
// with cached copies of the previous object.
func revision() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ImageKey is the key for a scene's generated still
func ImageKey(trackID uint, sceneOrder int, ext string) string {
	return fmt.Sprintf("%simages/scene_%d_%s%s", models.TrackAssetPrefix(trackID), sceneOrder, revision(), normalizeExt(ext, ".png"))
}

// VideoKey is the key for a scene's uploaded fragment
func VideoKey(trackID uint, sceneOrder int, ext string) string {
	return fmt.Sprintf("%svideos/scene_%d_%s%s", models.TrackAssetPrefix(trackID), sceneOrder, revision(), normalizeExt(ext, ".mp4"))
}

// AudioKey is the key for a track's narration
func AudioKey(trackID uint, ext string) string {
	return fmt.Sprintf("%saudio/narration_%s%s", models.TrackAssetPrefix(trackID), revision(), normalizeExt(ext, ".mp3"))
}

// FinalKey is the key for a track's rendered video
func FinalKey(trackID uint) string {
	return fmt.Sprintf("%sfinal/final_%s.mp4", models.TrackAssetPrefix(trackID), revision())
}

// MusicKey is the key for a music library bed
func MusicKey(mood, filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return fmt.Sprintf("music/%s/%s_%s%s", sanitizeSegment(mood), sanitizeSegment(base), revision(), normalizeExt(filepath.Ext(filename), ".mp3"))
}

// ContentTypeFor returns the MIME type implied by the key's extension
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

// ExtensionForContentType is the inverse of ContentTypeFor for generated images
func ExtensionForContentType(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func normalizeExt(ext, fallback string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return fallback
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// cleanKey validates a key and returns its canonical form
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// sanitizeSegment makes a label safe for use as one key segment
func sanitizeSegment(label string) string {
	label = strings.ReplaceAll(label, " ", "_")
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
		".", "_",
	)
	label = strings.ToLower(replacer.Replace(label))
	label = strings.Trim(label, " -_")
	if label == "" {
		label = "unknown"
	}
	return label
}

// Upload extensions accepted per media kind
var (
	AudioExtensions = []string{".mp3", ".wav", ".m4a"}
	VideoExtensions = []string{".mp4", ".mov", ".webm"}
)

// UploadExtension returns the lowercased extension of filename when it is
// one of allowed.
func UploadExtension(filename string, allowed []string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == a {
			return ext, true
		}
	}
	return ext, false
}
