package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/scout/cache"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/models"
)

type fakeSearcher struct {
	calls  atomic.Int32
	result func(query string) *models.SearchResult
}

func (f *fakeSearcher) Run(_ context.Context, query string) *models.SearchResult {
	f.calls.Add(1)
	return f.result(query)
}

func weatherResult(query string) *models.SearchResult {
	return &models.SearchResult{
		Query:   query,
		Answer:  "Sunny, 22 degrees.",
		RawData: []models.SourceOutcome{{Source: "http://a.test", Summary: "sunny"}},
		Sources: []string{"http://a.test", "http://b.test"},
		BrowserStates: []models.BrowserState{
			{URL: "http://a.test", Title: "Weather A", Status: models.StateSuccess},
			{URL: "http://b.test", Title: "b.test", Status: models.StateError},
		},
		Timestamp: "2026-03-01T12:00:00Z",
	}
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{"key-1"}
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, s *fakeSearcher) http.Handler {
	t.Helper()
	cc := cache.New(10)
	t.Cleanup(cc.Close)
	return NewRouter(t.Context(), cfg, Deps{
		Searcher:  s,
		Cache:     cc,
		LLMReady:  func() bool { return true },
		StartTime: time.Now(),
	})
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

var authed = map[string]string{"X-API-Key": "key-1"}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth_NoAuth(t *testing.T) {
	h := newTestServer(t, testConfig(), &fakeSearcher{result: weatherResult})
	w := do(h, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[models.HealthResponse](t, w)
	if resp.Status != "healthy" || !resp.LLMReady {
		t.Errorf("health = %+v", resp)
	}
}

func TestSearch_Success(t *testing.T) {
	s := &fakeSearcher{result: weatherResult}
	h := newTestServer(t, testConfig(), s)

	w := do(h, http.MethodPost, "/api/v1/search", `{"query":"weather today","user_id":"u1"}`, authed)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"status", "data", "sources", "timestamp", "browser_state"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("response lacks %q: %s", key, w.Body.String())
		}
	}

	resp := decode[models.SearchResponse](t, w)
	if resp.Status != "success" || resp.Data.Answer != "Sunny, 22 degrees." {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.BrowserState.States) != len(resp.Sources) {
		t.Errorf("states %d != sources %d", len(resp.BrowserState.States), len(resp.Sources))
	}
	if len(resp.Data.RawData) != 1 || resp.Data.RawData[0].Summary != "sunny" {
		t.Errorf("raw data = %+v", resp.Data.RawData)
	}
	if resp.CacheStatus != "" {
		t.Errorf("cache status should be empty without max_age, got %q", resp.CacheStatus)
	}
}

func TestSearch_FailedResultIsStatusError(t *testing.T) {
	s := &fakeSearcher{result: func(q string) *models.SearchResult {
		return &models.SearchResult{Query: q, Answer: "Sorry, an error occurred", Failed: true, Timestamp: "2026-03-01T12:00:00Z"}
	}}
	h := newTestServer(t, testConfig(), s)

	w := do(h, http.MethodPost, "/api/v1/search", `{"query":"q"}`, authed)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[models.SearchResponse](t, w)
	if resp.Status != "error" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 || len(resp.BrowserState.States) != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearch_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		headers  map[string]string
		wantCode int
		wantErr  string
	}{
		{"missing key", `{"query":"q"}`, nil, http.StatusUnauthorized, models.ErrCodeUnauthorized},
		{"wrong key", `{"query":"q"}`, map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized, models.ErrCodeUnauthorized},
		{"bearer ok but bad body", `{`, map[string]string{"Authorization": "Bearer key-1"}, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"missing query", `{"user_id":"u"}`, authed, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"blank query", `{"query":"   "}`, authed, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"bad webhook", `{"query":"q","webhook_url":"not a url"}`, authed, http.StatusBadRequest, models.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{result: weatherResult}
			h := newTestServer(t, testConfig(), s)

			w := do(h, http.MethodPost, "/api/v1/search", tt.body, tt.headers)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			resp := decode[models.ErrorResponse](t, w)
			if resp.Status != "error" || resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("resp = %s", w.Body.String())
			}
			if s.calls.Load() != 0 {
				t.Error("searcher should not run for rejected requests")
			}
		})
	}
}

func TestSearch_PanicMapsToServerError(t *testing.T) {
	s := &fakeSearcher{result: func(string) *models.SearchResult { panic("core blew up") }}
	h := newTestServer(t, testConfig(), s)

	w := do(h, http.MethodPost, "/api/v1/search", `{"query":"q"}`, authed)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[models.ErrorResponse](t, w)
	if resp.Error == nil || resp.Error.Code != models.ErrCodeInternal {
		t.Errorf("resp = %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "core blew up") {
		t.Error("panic detail should not leak to the client")
	}
}

func TestSearch_Cache(t *testing.T) {
	s := &fakeSearcher{result: weatherResult}
	h := newTestServer(t, testConfig(), s)

	first := decode[models.SearchResponse](t, do(h, http.MethodPost, "/api/v1/search", `{"query":"Weather today","max_age":60000}`, authed))
	second := decode[models.SearchResponse](t, do(h, http.MethodPost, "/api/v1/search", `{"query":"weather  today","max_age":60000}`, authed))

	if first.CacheStatus != "miss" || second.CacheStatus != "hit" {
		t.Errorf("cache statuses = %q, %q", first.CacheStatus, second.CacheStatus)
	}
	if s.calls.Load() != 1 {
		t.Errorf("searcher ran %d times, want 1", s.calls.Load())
	}
	if second.Data.Answer != first.Data.Answer {
		t.Error("cached answer differs")
	}
}

func TestSearch_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RequestsPerSecond = 0.001
	cfg.RateLimit.Burst = 1
	h := newTestServer(t, cfg, &fakeSearcher{result: weatherResult})

	if w := do(h, http.MethodPost, "/api/v1/search", `{"query":"q"}`, authed); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	w := do(h, http.MethodPost, "/api/v1/search", `{"query":"q"}`, authed)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestSearchAsync(t *testing.T) {
	s := &fakeSearcher{result: weatherResult}
	h := newTestServer(t, testConfig(), s)

	w := do(h, http.MethodPost, "/api/v1/search/async", `{"query":"weather today"}`, authed)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	accepted := decode[models.AsyncSearchResponse](t, w)
	if !strings.HasPrefix(accepted.ID, "search-") || accepted.Status != "processing" {
		t.Fatalf("accepted = %+v", accepted)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		job := decode[models.SearchJobResponse](t, do(h, http.MethodGet, "/api/v1/search/"+accepted.ID, "", authed))
		if job.Status == "completed" {
			if job.Result == nil || job.Result.Data.Answer != "Sunny, 22 degrees." || job.Query != "weather today" {
				t.Errorf("job = %+v", job)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %q", job.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSearchAsync_Webhook(t *testing.T) {
	got := make(chan []byte, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		got <- buf.Bytes()
	}))
	defer hook.Close()

	h := newTestServer(t, testConfig(), &fakeSearcher{result: weatherResult})
	body := `{"query":"weather today","webhook_url":"` + hook.URL + `"}`
	if w := do(h, http.MethodPost, "/api/v1/search/async", body, authed); w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}

	select {
	case payload := <-got:
		var event struct {
			Type string                `json:"type"`
			Data models.SearchResponse `json:"data"`
		}
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatal(err)
		}
		if event.Type != "search.completed" || event.Data.Data.Answer == "" {
			t.Errorf("event = %s", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not delivered")
	}
}

func TestGetSearch_NotFound(t *testing.T) {
	h := newTestServer(t, testConfig(), &fakeSearcher{result: weatherResult})
	w := do(h, http.MethodGet, "/api/v1/search/search-missing", "", authed)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decode[models.ErrorResponse](t, w); resp.Error.Code != models.ErrCodeNotFound {
		t.Errorf("code = %s", resp.Error.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, testConfig(), &fakeSearcher{result: weatherResult})
	do(h, http.MethodGet, "/api/v1/health", "", nil)

	w := do(h, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "scout_http_requests_total") {
		t.Error("HTTP request counter not exported")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		wantOrigin string
	}{
		{"any origin", []string{"*"}, "*"},
		{"listed origin", []string{"https://ui.example.com"}, "https://ui.example.com"},
		{"disabled", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.CORS.AllowOrigins = tt.origins
			h := newTestServer(t, cfg, &fakeSearcher{result: weatherResult})

			w := do(h, http.MethodOptions, "/api/v1/search", "", map[string]string{
				"Origin":                         "https://ui.example.com",
				"Access-Control-Request-Method":  "POST",
				"Access-Control-Request-Headers": "Content-Type, X-API-Key",
			})
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.wantOrigin != "" && w.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want 204", w.Code)
			}
		})
	}
}

func TestCORS_ActualRequest(t *testing.T) {
	h := newTestServer(t, testConfig(), &fakeSearcher{result: weatherResult})
	headers := map[string]string{"X-API-Key": "key-1", "Origin": "https://ui.example.com"}
	w := do(h, http.MethodPost, "/api/v1/search", `{"query":"weather today"}`, headers)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
