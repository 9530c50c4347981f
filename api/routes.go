package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/parable-studio/api/health"
	"github.com/killallgit/parable-studio/api/jobs"
	"github.com/killallgit/parable-studio/api/music"
	"github.com/killallgit/parable-studio/api/parables"
	"github.com/killallgit/parable-studio/api/tracks"
	"github.com/killallgit/parable-studio/api/types"
	"github.com/killallgit/parable-studio/api/version"
	_ "github.com/killallgit/parable-studio/docs/swagger"
)

// RouteOptions carries the settings route registration depends on
type RouteOptions struct {
	RateLimit float64
	RateBurst int
	// AssetRoot is served under /assets when the local backend is in use
	AssetRoot string
}

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, opts RouteOptions, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil || deps.Parables == nil || deps.Pipeline == nil || deps.Scenes == nil {
		return fmt.Errorf("parable, scene and pipeline services are required")
	}

	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Register Swagger documentation route
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if opts.AssetRoot != "" {
		engine.Static("/assets", opts.AssetRoot)
	}

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	// API v1 routes
	v1 := engine.Group("/api/v1")
	v1.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, opts.RateLimit, opts.RateBurst))

	parableGroup := v1.Group("/parables")
	parables.RegisterRoutes(parableGroup, deps)
	tracks.RegisterRoutes(parableGroup.Group("/:id/tracks/:language"), deps)

	if deps.JobService != nil {
		jobs.RegisterRoutes(v1.Group("/jobs"), deps)
	}

	if deps.Music != nil {
		music.RegisterRoutes(v1.Group("/music"), deps)
	}

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  types.StatusError,
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
