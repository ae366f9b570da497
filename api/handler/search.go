package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/cache"
	"github.com/use-agent/scout/models"
)

// Searcher answers one query. search.Aggregator implements it; Run never
// fails, a broken search comes back with Failed set.
type Searcher interface {
	Run(ctx context.Context, query string) *models.SearchResult
}

// Search returns a handler for POST /api/v1/search.
//
// Orchestration flow:
//  1. Parse & validate the request.
//  2. Cache lookup when max_age is set.
//  3. Run the search pipeline.
//  4. Cache store (successful results only) and respond.
func Search(s Searcher, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		req, ok := bindSearchRequest(c)
		if !ok {
			return
		}
		slog.Info("search request", "query", req.Query, "user_id", req.UserID)

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.Query)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				resp := models.NewSearchResponse(cached)
				resp.CacheStatus = "hit"
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 3. Search ───────────────────────────────────────────────
		result := s.Run(c.Request.Context(), req.Query)
		resp := models.NewSearchResponse(result)

		// ── 4. Cache store ──────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, result)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// bindSearchRequest parses the body and writes a 400 on failure.
func bindSearchRequest(c *gin.Context) (models.SearchRequest, bool) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewSearchError(models.ErrCodeInvalidInput, err.Error(), err))
		return req, false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		respondError(c, models.NewSearchError(models.ErrCodeInvalidInput, "query must not be blank", nil))
		return req, false
	}
	return req, true
}
