package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/scout/api/handler"
	"github.com/use-agent/scout/api/middleware"
	"github.com/use-agent/scout/cache"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/models"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Searcher  handler.Searcher
	Cache     *cache.Cache
	Jobs      *handler.JobStore
	LLMReady  func() bool
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestLogger → Metrics → CORS
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so probes and scrapers always work.
// Background sweepers started here stop when ctx is done; a job store
// passed in deps stays owned by the caller.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	if deps.Jobs == nil {
		jobs := handler.NewJobStore()
		context.AfterFunc(ctx, jobs.Close)
		deps.Jobs = jobs
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("panic in handler", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternal, "internal server error",
		))
	}))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(deps.LLMReady, deps.Cache, deps.Jobs, deps.StartTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.POST("/search", handler.Search(deps.Searcher, deps.Cache))
	protected.POST("/search/async", handler.PostSearchAsync(deps.Searcher, deps.Jobs, deps.Cache))
	protected.GET("/search/:id", handler.GetSearch(deps.Jobs))

	return r
}
