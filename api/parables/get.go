package parables

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
	"github.com/killallgit/parable-studio/internal/services/scenes"
)

// Get returns the parable snapshot
// @Summary      Get a parable
// @Description  Both tracks with every scene asset and the scene readiness report
// @Tags         parables
// @Produce      json
// @Param        id path int true "Parable ID"
// @Success      200 {object} types.ParableResponse "Parable snapshot"
// @Failure      400 {object} types.ErrorResponse "Invalid ID"
// @Failure      404 {object} types.ErrorResponse "Parable not found"
// @Router       /api/v1/parables/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		parableID, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		parable, err := deps.Parables.GetParable(c.Request.Context(), parableID)
		if err != nil {
			types.SendError(c, err)
			return
		}

		reports := make(map[uint]*scenes.Report, len(parable.Tracks))
		if deps.Scenes != nil {
			for _, track := range parable.Tracks {
				report, err := deps.Scenes.Status(c.Request.Context(), track.ID)
				if err != nil {
					types.SendError(c, err)
					return
				}
				reports[track.ID] = report
			}
		}

		types.SendSuccess(c, types.FromParable(parable, deps.Assets, reports))
	}
}

// Delete removes a parable
// @Summary      Delete a parable
// @Description  Removes the parable, its tracks, their scene records and every stored asset
// @Tags         parables
// @Param        id path int true "Parable ID"
// @Success      204 "Deleted"
// @Failure      404 {object} types.ErrorResponse "Parable not found"
// @Router       /api/v1/parables/{id} [delete]
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		parableID, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		if err := deps.Parables.DeleteParable(c.Request.Context(), parableID); err != nil {
			types.SendError(c, err)
			return
		}

		deps.Logger().Info("parable deleted via api", "parable_id", parableID)
		c.Status(http.StatusNoContent)
	}
}
