package music

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
)

// RegisterRoutes registers music library routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET  /api/v1/music?mood= - List the library
	router.GET("", List(deps))

	// POST /api/v1/music - Add a background track
	router.POST("", Upload(deps))
}
