package tracks

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
	"github.com/killallgit/parable-studio/internal/models"
)

// resolveTrack loads the track addressed by the :id and :language params
func resolveTrack(c *gin.Context, deps *types.Dependencies) (*models.Track, bool) {
	parableID, ok := types.ParseUintParam(c, "id")
	if !ok {
		return nil, false
	}
	lang, ok := types.ParseLanguageParam(c)
	if !ok {
		return nil, false
	}

	track, err := deps.Parables.GetTrack(c.Request.Context(), parableID, lang)
	if err != nil {
		types.SendError(c, err)
		return nil, false
	}
	return track, true
}

// Get returns the track snapshot
// @Summary      Get a track
// @Description  Status, step, error message, generated metadata, scene assets and readiness
// @Tags         tracks
// @Produce      json
// @Param        id       path int    true "Parable ID"
// @Param        language path string true "Track language" Enums(original, english)
// @Success      200 {object} types.TrackResponse "Track snapshot"
// @Failure      400 {object} types.ErrorResponse "Invalid ID or language"
// @Failure      404 {object} types.ErrorResponse "Parable or track not found"
// @Router       /api/v1/parables/{id}/tracks/{language} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		track, ok := resolveTrack(c, deps)
		if !ok {
			return
		}

		report, err := deps.Scenes.Status(c.Request.Context(), track.ID)
		if err != nil {
			types.SendError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.FromTrack(track, deps.Assets, report))
	}
}

// GetTitleVariants returns the A/B title candidates
// @Summary      Get title variants
// @Description  The candidates of the latest metadata round and the selected one
// @Tags         tracks
// @Produce      json
// @Param        id       path int    true "Parable ID"
// @Param        language path string true "Track language" Enums(original, english)
// @Success      200 {object} types.TitleVariantsResponse "Title variants"
// @Failure      404 {object} types.ErrorResponse "Parable or track not found"
// @Router       /api/v1/parables/{id}/tracks/{language}/title-variants [get]
func GetTitleVariants(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		track, ok := resolveTrack(c, deps)
		if !ok {
			return
		}

		variants := track.TitleVariants
		if variants == nil {
			variants = []models.TitleVariant{}
		}
		types.SendSuccess(c, types.TitleVariantsResponse{
			TrackID:  track.ID,
			Variants: variants,
			Selected: types.SelectedVariant(variants),
		})
	}
}
