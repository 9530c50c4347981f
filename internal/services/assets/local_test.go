package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "/assets/")
	require.NoError(t, err)
	return store
}

func TestLocalStore_SaveOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := "tracks/1/images/scene_0_abc.png"
	require.NoError(t, store.Save(ctx, key, strings.NewReader("png-bytes"), 9))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := "tracks/1/audio/narration.mp3"
	require.NoError(t, store.Save(ctx, key, strings.NewReader("first"), 5))
	require.NoError(t, store.Save(ctx, key, strings.NewReader("second"), 6))

	path, release, err := store.LocalPath(ctx, key)
	require.NoError(t, err)
	defer release()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStore_CancelledSaveLeavesNothing(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	key := "tracks/2/videos/scene_1_x.mp4"
	err := store.Save(ctx, key, bytes.NewReader(make([]byte, 1024)), 1024)
	require.Error(t, err)

	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStore_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Open(ctx, "tracks/9/missing.png")
	assert.True(t, errors.Is(err, ErrAssetNotFound))

	_, _, err = store.LocalPath(ctx, "tracks/9/missing.png")
	assert.True(t, errors.Is(err, ErrAssetNotFound))

	// Deleting a missing key is fine
	assert.NoError(t, store.Delete(ctx, "tracks/9/missing.png"))
}

func TestLocalStore_InvalidKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../outside", "tracks/../../outside", "."} {
		t.Run(key, func(t *testing.T) {
			err := store.Save(ctx, key, strings.NewReader("x"), 1)
			assert.True(t, errors.Is(err, ErrInvalidKey), "key %q", key)
		})
	}
}

func TestLocalStore_DeletePrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tracks/3/images/a.png", strings.NewReader("a"), 1))
	require.NoError(t, store.Save(ctx, "tracks/3/final/b.mp4", strings.NewReader("b"), 1))
	require.NoError(t, store.Save(ctx, "tracks/4/images/c.png", strings.NewReader("c"), 1))

	require.NoError(t, store.DeletePrefix(ctx, "tracks/3/"))

	exists, _ := store.Exists(ctx, "tracks/3/images/a.png")
	assert.False(t, exists)
	exists, _ = store.Exists(ctx, "tracks/3/final/b.mp4")
	assert.False(t, exists)
	exists, _ = store.Exists(ctx, "tracks/4/images/c.png")
	assert.True(t, exists)
}

func TestLocalStore_URL(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, "/assets/tracks/1/final/f.mp4", store.URL("tracks/1/final/f.mp4"))
	assert.Equal(t, "", store.URL(""))
}

func TestKeys(t *testing.T) {
	img := ImageKey(7, -1, ".png")
	assert.True(t, strings.HasPrefix(img, "tracks/7/images/scene_-1_"), img)
	assert.True(t, strings.HasSuffix(img, ".png"))
	assert.NotEqual(t, img, ImageKey(7, -1, ".png"), "each write gets a new revision")

	assert.True(t, strings.HasSuffix(VideoKey(7, 2, "MOV"), ".mov"))
	assert.True(t, strings.HasPrefix(AudioKey(7, ".wav"), "tracks/7/audio/narration_"))
	assert.True(t, strings.HasPrefix(FinalKey(7), "tracks/7/final/final_"))

	music := MusicKey("Calm", "Soft Piano.v2.mp3")
	assert.True(t, strings.HasPrefix(music, "music/calm/soft_piano_v2_"), music)
}

func TestContentTypes(t *testing.T) {
	tests := map[string]string{
		"a.png":  "image/png",
		"a.JPG":  "image/jpeg",
		"a.mp4":  "video/mp4",
		"a.mov":  "video/quicktime",
		"a.webm": "video/webm",
		"a.mp3":  "audio/mpeg",
		"a.wav":  "audio/wav",
		"a.m4a":  "audio/mp4",
		"a.bin":  "application/octet-stream",
	}
	for key, want := range tests {
		assert.Equal(t, want, ContentTypeFor(key), key)
	}

	assert.Equal(t, ".jpg", ExtensionForContentType("image/jpeg"))
	assert.Equal(t, ".webp", ExtensionForContentType("image/webp; q=1"))
	assert.Equal(t, ".png", ExtensionForContentType(""))
}

func TestUploadExtension(t *testing.T) {
	ext, ok := UploadExtension("Narration.MP3", AudioExtensions)
	assert.True(t, ok)
	assert.Equal(t, ".mp3", ext)

	_, ok = UploadExtension("clip.mp4", AudioExtensions)
	assert.False(t, ok)
	_, ok = UploadExtension("clip.webm", VideoExtensions)
	assert.True(t, ok)
	_, ok = UploadExtension("noext", VideoExtensions)
	assert.False(t, ok)
}
