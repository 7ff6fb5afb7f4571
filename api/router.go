package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mudassirfayaz/Kings-Properties/api/handler"
	"github.com/mudassirfayaz/Kings-Properties/api/middleware"
	"github.com/mudassirfayaz/Kings-Properties/browser"
	"github.com/mudassirfayaz/Kings-Properties/cache"
	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(orc *scraper.Orchestrator, session *browser.Session, cfg *config.Config, cc *cache.Cache, sinks *handler.Sinks, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health stays outside auth.
	v1.GET("/health", handler.Health(session, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Runs
	protected.POST("/runs", handler.PostRun(orc, cfg, cc, sinks))
	protected.GET("/runs/:id", handler.GetRun())
	protected.GET("/runs/:id/records", handler.GetRunRecords(cfg))

	return r
}
