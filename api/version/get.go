package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Get handles version requests
// @Summary      Service version
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string "Version information"
// @Router       /version [get]
func Get(version string) gin.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Parable Studio API",
			"version":     version,
			"description": "Turns parables into short vertical videos",
			"status":      "running",
		})
	}
}
