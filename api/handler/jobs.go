package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/scout/cache"
	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/webhook"
)

// Job statuses.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobStore holds in-flight and finished background searches. Jobs older
// than one hour are expired by a background goroutine.
type JobStore struct {
	mu       sync.RWMutex
	jobs     map[string]*models.SearchJob
	notifier *webhook.Notifier

	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewJobStore creates an empty store and starts its expiry loop. Call
// Close to stop the loop.
func NewJobStore() *JobStore {
	s := &JobStore{
		jobs:     make(map[string]*models.SearchJob),
		notifier: webhook.NewNotifier(10 * time.Second),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.expireLoop(5*time.Minute, time.Hour)
	return s
}

func (s *JobStore) expireLoop(every, maxAge time.Duration) {
	defer close(s.stopped)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.expire(now.Add(-maxAge).Unix())
		}
	}
}

// Close stops the expiry loop and waits for it to exit. It is safe to call
// more than once.
func (s *JobStore) Close() {
	s.closeOnce.Do(func() { close(s.stop) })
	<-s.stopped
}

func (s *JobStore) put(job *models.SearchJob) {
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
}

// get returns a copy so readers never race with finish.
func (s *JobStore) get(id string) (models.SearchJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.SearchJob{}, false
	}
	return *job, true
}

func (s *JobStore) finish(id string, result *models.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.Result = result
	job.Status = JobCompleted
	if result.Failed {
		job.Status = JobFailed
	}
}

func (s *JobStore) expire(cutoff int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.CreatedAt < cutoff {
			delete(s.jobs, id)
		}
	}
}

// Active returns how many jobs are still processing.
func (s *JobStore) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, job := range s.jobs {
		if job.Status == JobProcessing {
			n++
		}
	}
	return n
}

// PostSearchAsync returns a handler for POST /api/v1/search/async.
// The search runs in the background; its outcome is available through
// GET /api/v1/search/:id and, when webhook_url is set, delivered as a
// search.completed (or search.failed) event.
func PostSearchAsync(s Searcher, store *JobStore, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindSearchRequest(c)
		if !ok {
			return
		}

		job := &models.SearchJob{
			ID:        "search-" + uuid.NewString(),
			Status:    JobProcessing,
			Query:     req.Query,
			CreatedAt: time.Now().Unix(),
		}
		store.put(job)
		slog.Info("async search accepted", "job_id", job.ID, "query", req.Query, "user_id", req.UserID)

		go runJob(s, store, cc, job.ID, req)

		c.JSON(http.StatusAccepted, models.AsyncSearchResponse{ID: job.ID, Status: JobProcessing})
	}
}

func runJob(s Searcher, store *JobStore, cc *cache.Cache, jobID string, req models.SearchRequest) {
	var result *models.SearchResult
	if cc != nil && req.MaxAge > 0 {
		result, _ = cc.Get(cache.Key(req.Query), req.MaxAge)
	}
	if result == nil {
		result = s.Run(context.Background(), req.Query)
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cache.Key(req.Query), result)
		}
	}
	store.finish(jobID, result)

	if req.WebhookURL == "" {
		return
	}
	eventType := webhook.EventSearchCompleted
	if result.Failed {
		eventType = webhook.EventSearchFailed
	}
	store.notifier.Notify(context.Background(),
		webhook.Target{URL: req.WebhookURL, Secret: req.WebhookSecret},
		webhook.NewEvent(eventType, jobID, models.NewSearchResponse(result)),
	)
}

// GetSearch returns a handler for GET /api/v1/search/:id.
func GetSearch(store *JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := store.get(c.Param("id"))
		if !ok {
			respondError(c, models.NewSearchError(models.ErrCodeNotFound, "search job not found", nil))
			return
		}

		resp := models.SearchJobResponse{ID: job.ID, Status: job.Status, Query: job.Query}
		if job.Result != nil {
			r := models.NewSearchResponse(job.Result)
			resp.Result = &r
		}
		c.JSON(http.StatusOK, resp)
	}
}
