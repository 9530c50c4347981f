package tracks

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
)

// RegisterRoutes registers track routes on a group mounted at
// /parables/:id/tracks/:language
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET  .../tracks/:language - Track snapshot
	router.GET("", Get(deps))

	// GET  .../tracks/:language/title-variants - A/B titles only
	router.GET("/title-variants", GetTitleVariants(deps))

	// POST .../tracks/:language/process - Run or resume the automated steps
	router.POST("/process", Process(deps))

	// POST .../tracks/:language/regenerate-images - Re-run image synthesis
	router.POST("/regenerate-images", RegenerateImages(deps))

	// POST .../tracks/:language/generate-final - Assemble the final video
	router.POST("/generate-final", GenerateFinal(deps))

	// POST .../tracks/:language/audio - Upload the narration
	router.POST("/audio", UploadAudio(deps))

	// POST .../tracks/:language/videos - Upload a scene fragment
	router.POST("/videos", UploadVideo(deps))

	// PATCH .../tracks/:language/videos/:fragmentId - Override fragment length
	router.PATCH("/videos/:fragmentId", SetTargetDuration(deps))
}
