package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tablevox/agent/internal/infrastructure/cache"
	"github.com/tablevox/agent/internal/infrastructure/http/middleware"
	"github.com/tablevox/agent/pkg/config"
	"github.com/tablevox/agent/pkg/identity"
)

// Router holds all handlers
type Router struct {
	cfg               *config.Config
	identityManager   *identity.Manager
	tokenCache        *cache.TokenCache
	captureHandler    *Capture
	recordingsHandler *Recordings
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, identityManager *identity.Manager, tokenCache *cache.TokenCache, captureHandler *Capture, recordingsHandler *Recordings) *Router {
	return &Router{
		cfg:               cfg,
		identityManager:   identityManager,
		tokenCache:        tokenCache,
		captureHandler:    captureHandler,
		recordingsHandler: recordingsHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group, operator token required
	v1 := e.Group("/v1", middleware.EchoAuth(rt.identityManager, rt.tokenCache))

	rt.setupCaptureRoutes(v1)
	rt.setupRecordingRoutes(v1)
}

// setupCaptureRoutes configures capture session routes
func (rt *Router) setupCaptureRoutes(g *echo.Group) {
	captureGroup := g.Group("/capture")

	captureGroup.POST("/start", rt.captureHandler.Start)
	captureGroup.POST("/pause", rt.captureHandler.Pause)
	captureGroup.POST("/resume", rt.captureHandler.Resume)
	captureGroup.POST("/stop", rt.captureHandler.Stop)
	captureGroup.POST("/reset", rt.captureHandler.Reset)
	captureGroup.GET("/state", rt.captureHandler.State)
	captureGroup.GET("/levels", rt.captureHandler.Levels)
}

// setupRecordingRoutes configures recording collection routes
func (rt *Router) setupRecordingRoutes(g *echo.Group) {
	recordingsGroup := g.Group("/recordings")

	recordingsGroup.GET("", rt.recordingsHandler.List)
	recordingsGroup.GET("/:id", rt.recordingsHandler.Get)
	recordingsGroup.DELETE("/:id", rt.recordingsHandler.Delete)
	recordingsGroup.POST("/:id/retry", rt.recordingsHandler.Retry)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "tablevox-agent",
	})
}
