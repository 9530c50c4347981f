package tracks

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
)

// UploadAudio stores the narration for a track
// @Summary      Upload narration audio
// @Description  Replaces any previous narration. Accepts .mp3, .wav and .m4a.
// @Tags         tracks
// @Accept       multipart/form-data
// @Produce      json
// @Param        id       path     int    true "Parable ID"
// @Param        language path     string true "Track language" Enums(original, english)
// @Param        file     formData file   true "Audio file"
// @Success      201 {object} types.AudioResponse "Stored narration"
// @Failure      400 {object} types.ErrorResponse "Missing file or unsupported format"
// @Failure      409 {object} types.ErrorResponse "Images not generated yet or track busy"
// @Failure      413 {object} types.ErrorResponse "Upload too large"
// @Router       /api/v1/parables/{id}/tracks/{language}/audio [post]
func UploadAudio(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		track, ok := resolveTrack(c, deps)
		if !ok {
			return
		}
		header, file, ok := types.FormFile(c, "file")
		if !ok {
			return
		}
		defer file.Close()

		audio, err := deps.Pipeline.UploadAudio(c.Request.Context(), track.ID, header.Filename, file, header.Size)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendCreated(c, types.FromAudio(audio, deps.Assets))
	}
}

// UploadVideo stores the motion clip for one scene
// @Summary      Upload a scene fragment
// @Description  The scene must already have a generated image. Accepts .mp4, .mov and .webm.
// @Tags         tracks
// @Accept       multipart/form-data
// @Produce      json
// @Param        id          path     int    true "Parable ID"
// @Param        language    path     string true "Track language" Enums(original, english)
// @Param        scene_order formData int    true "Scene order (-1 is the hook)"
// @Param        file        formData file   true "Video file"
// @Success      201 {object} types.FragmentResponse "Stored fragment"
// @Failure      400 {object} types.ErrorResponse "Missing field or unsupported format"
// @Failure      409 {object} types.ErrorResponse "Track busy"
// @Failure      422 {object} types.ErrorResponse "Scene has no generated image"
// @Router       /api/v1/parables/{id}/tracks/{language}/videos [post]
func UploadVideo(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		track, ok := resolveTrack(c, deps)
		if !ok {
			return
		}

		header, file, ok := types.FormFile(c, "file")
		if !ok {
			return
		}
		defer file.Close()

		raw, present := c.GetPostForm("scene_order")
		if !present {
			types.SendError(c, apperrors.MissingFieldError("scene_order"))
			return
		}
		sceneOrder, err := strconv.Atoi(raw)
		if err != nil {
			types.SendError(c, apperrors.ValidationError("scene_order", "must be an integer"))
			return
		}

		fragment, err := deps.Pipeline.UploadVideo(c.Request.Context(), track.ID, sceneOrder, header.Filename, file, header.Size)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendCreated(c, types.FromFragment(fragment, deps.Assets))
	}
}

// SetTargetDuration overrides a fragment's length in the final video
// @Summary      Set fragment target duration
// @Description  A null target restores the measured duration
// @Tags         tracks
// @Accept       json
// @Produce      json
// @Param        id         path int    true "Parable ID"
// @Param        language   path string true "Track language" Enums(original, english)
// @Param        fragmentId path int    true "Fragment ID"
// @Param        request    body types.TargetDurationRequest true "Target duration in seconds"
// @Success      200 {object} types.FragmentResponse "Updated fragment"
// @Failure      400 {object} types.ErrorResponse "Invalid duration"
// @Failure      404 {object} types.ErrorResponse "Fragment not found"
// @Failure      409 {object} types.ErrorResponse "Final assembly in progress"
// @Router       /api/v1/parables/{id}/tracks/{language}/videos/{fragmentId} [patch]
func SetTargetDuration(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		track, ok := resolveTrack(c, deps)
		if !ok {
			return
		}
		fragmentID, ok := types.ParseUintParam(c, "fragmentId")
		if !ok {
			return
		}

		var req types.TargetDurationRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		fragment, err := deps.Pipeline.SetTargetDuration(c.Request.Context(), track.ID, fragmentID, req.TargetDuration)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.FromFragment(fragment, deps.Assets))
	}
}
