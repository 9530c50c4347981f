package parables

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
)

// RegisterRoutes registers parable routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// POST /api/v1/parables - Create a parable and its original track
	router.POST("", Create(deps))

	// GET /api/v1/parables - List parables, newest first
	router.GET("", List(deps))

	// GET /api/v1/parables/:id - Full snapshot with both tracks
	router.GET("/:id", Get(deps))

	// DELETE /api/v1/parables/:id - Delete the parable and every asset
	router.DELETE("/:id", Delete(deps))

	// POST /api/v1/parables/:id/english - Add the english track
	router.POST("/:id/english", CreateEnglish(deps))
}
