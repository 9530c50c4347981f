package jobs

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
)

// RegisterRoutes registers job status routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET /api/v1/jobs/:id - Progress of a queued or running step
	router.GET("/:id", Get(deps))
}
