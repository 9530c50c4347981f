package music

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
	"github.com/killallgit/parable-studio/internal/services/music"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
)

// List returns the music library
// @Summary      List background music
// @Tags         music
// @Produce      json
// @Param        mood query string false "Filter by mood"
// @Success      200 {object} types.MusicListResponse "Library"
// @Router       /api/v1/music [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracks, err := deps.Music.List(c.Request.Context(), c.Query("mood"))
		if err != nil {
			types.SendError(c, err)
			return
		}

		resp := types.MusicListResponse{
			Tracks: make([]types.MusicTrackResponse, 0, len(tracks)),
			Count:  len(tracks),
		}
		for i := range tracks {
			resp.Tracks = append(resp.Tracks, types.FromMusicTrack(&tracks[i], deps.Assets))
		}
		types.SendSuccess(c, resp)
	}
}

// Upload adds a background track to the library
// @Summary      Upload background music
// @Description  The track is measured on upload and mixed under narrations of the same mood
// @Tags         music
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData file   true  "Audio file (.mp3, .wav, .m4a)"
// @Param        mood      formData string true  "Mood" Enums(dramatic, calm, motivational, mystical, inspiring, sad, joyful)
// @Param        name      formData string false "Display name"
// @Param        volume_db formData number false "Mix level in dB" default(-18)
// @Success      201 {object} types.MusicTrackResponse "Stored track"
// @Failure      400 {object} types.ErrorResponse "Invalid field"
// @Router       /api/v1/music [post]
func Upload(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, file, ok := types.FormFile(c, "file")
		if !ok {
			return
		}
		defer file.Close()

		in := music.UploadInput{
			Name:     c.PostForm("name"),
			Mood:     c.PostForm("mood"),
			Filename: header.Filename,
			Data:     file,
			Size:     header.Size,
		}
		if raw := strings.TrimSpace(c.PostForm("volume_db")); raw != "" {
			volume, err := strconv.ParseFloat(raw, 64)
			if err != nil || volume > 0 {
				types.SendError(c, apperrors.ValidationError("volume_db", "must be a number of decibels at or below 0"))
				return
			}
			in.VolumeDB = &volume
		}

		track, err := deps.Music.Upload(c.Request.Context(), in)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendCreated(c, types.FromMusicTrack(track, deps.Assets))
	}
}
