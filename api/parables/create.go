package parables

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
)

// Create handles parable submission
// @Summary      Create a parable
// @Description  Stores the source text and creates its original track in draft
// @Tags         parables
// @Accept       json
// @Produce      json
// @Param        request body types.CreateParableRequest true "Parable title and text"
// @Success      201 {object} types.ParableResponse "Created parable"
// @Failure      400 {object} types.ErrorResponse "Missing or invalid field"
// @Failure      500 {object} types.ErrorResponse "Internal server error"
// @Router       /api/v1/parables [post]
func Create(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CreateParableRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		parable, err := deps.Parables.CreateParable(c.Request.Context(), req.Title, req.Text)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendCreated(c, types.FromParable(parable, deps.Assets, nil))
	}
}

// CreateEnglish adds the english track to a parable
// @Summary      Create the english track
// @Description  Requires the original track to have finished its narration rewrite
// @Tags         parables
// @Produce      json
// @Param        id path int true "Parable ID"
// @Success      201 {object} types.TrackResponse "Created track"
// @Failure      404 {object} types.ErrorResponse "Parable not found"
// @Failure      409 {object} types.ErrorResponse "Track exists or original not ready"
// @Router       /api/v1/parables/{id}/english [post]
func CreateEnglish(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		parableID, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		track, err := deps.Parables.CreateEnglishTrack(c.Request.Context(), parableID)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendCreated(c, types.FromTrack(track, deps.Assets, nil))
	}
}
