package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/cache"
	"github.com/use-agent/scout/models"
)

// Version is reported by the health endpoint; overridden at build time.
var Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when the completion backend has no credentials: every
// search would then fall back to the canned answer.
func Health(llmReady func() bool, cc *cache.Cache, store *JobStore, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready := llmReady == nil || llmReady()

		status := "healthy"
		if !ready {
			status = "degraded"
		}

		resp := models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Version:  Version,
			LLMReady: ready,
		}
		if cc != nil {
			resp.CacheSize = cc.Len()
		}
		if store != nil {
			resp.ActiveJobs = store.Active()
		}
		c.JSON(http.StatusOK, resp)
	}
}
