package models

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"` // "healthy" or "degraded"
	Uptime     string `json:"uptime"`
	Version    string `json:"version"`
	LLMReady   bool   `json:"llm_ready"`
	CacheSize  int    `json:"cache_size"`
	ActiveJobs int    `json:"active_jobs"`
}
