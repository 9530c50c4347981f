package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
)

// Get handles health check requests
// @Summary      Health check
// @Description  Reports service and database status
// @Tags         health
// @Produce      json
// @Success      200 {object} types.HealthResponse "Healthy"
// @Failure      503 {object} types.HealthResponse "Database unavailable"
// @Router       /health [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := types.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Services:  map[string]string{},
		}
		if deps != nil {
			response.Version = deps.Version
		}

		code := http.StatusOK
		response.Services["database"] = getDatabaseStatus(deps)
		if response.Services["database"] == "unhealthy" {
			response.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, response)
	}
}

// getDatabaseStatus returns the database connection status
func getDatabaseStatus(deps *types.Dependencies) string {
	if deps == nil || deps.DB == nil || deps.DB.DB == nil {
		return "not configured"
	}

	if err := deps.DB.HealthCheck(); err != nil {
		deps.Logger().Warn("database health check failed", "error", err)
		return "unhealthy"
	}

	return "healthy"
}
