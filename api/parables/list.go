package parables

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
	"github.com/killallgit/parable-studio/internal/services/parables"
)

// List returns one page of parables
// @Summary      List parables
// @Description  Newest first, with the status of each track
// @Tags         parables
// @Produce      json
// @Param        limit  query int false "Page size (max 100)" default(20)
// @Param        offset query int false "Rows to skip" default(0)
// @Success      200 {object} types.ParableListResponse "Parables"
// @Failure      400 {object} types.ErrorResponse "Invalid pagination"
// @Router       /api/v1/parables [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query types.ListParablesQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			types.SendBadRequest(c, "limit and offset must be integers")
			return
		}
		if query.Limit <= 0 {
			query.Limit = parables.DefaultPageSize
		}
		if query.Limit > parables.MaxPageSize {
			query.Limit = parables.MaxPageSize
		}
		if query.Offset < 0 {
			query.Offset = 0
		}

		items, total, err := deps.Parables.ListParables(c.Request.Context(), query.Limit, query.Offset)
		if err != nil {
			types.SendError(c, err)
			return
		}

		resp := types.ParableListResponse{
			Parables: make([]types.ParableSummary, 0, len(items)),
			Count:    len(items),
			Total:    total,
			Limit:    query.Limit,
			Offset:   query.Offset,
		}
		for i := range items {
			resp.Parables = append(resp.Parables, types.FromParableSummary(&items[i]))
		}
		c.JSON(http.StatusOK, resp)
	}
}
