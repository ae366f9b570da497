package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/scout/config"
)

func TestHTTPEngine_Success(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><head><title>Hi</title></head><body>ok</body></html>"))
	}))
	defer srv.Close()

	e := NewHTTPEngine(config.FetchConfig{Timeout: 2 * time.Second})
	res := e.Fetch(context.Background(), srv.URL)

	if !res.TransportOK() {
		t.Fatalf("unexpected transport error: %v", res.Err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", res.StatusCode)
	}
	if !strings.Contains(res.Body, "<title>Hi</title>") {
		t.Errorf("Body = %q", res.Body)
	}
	if !strings.HasPrefix(res.Headers["Content-Type"], "text/html") {
		t.Errorf("Content-Type header = %q", res.Headers["Content-Type"])
	}
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Errorf("User-Agent = %q, want browser-like", gotUA)
	}
}

func TestHTTPEngine_NonSuccessStatusIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	defer srv.Close()

	res := NewHTTPEngine(config.FetchConfig{}).Fetch(context.Background(), srv.URL)

	if !res.TransportOK() {
		t.Fatalf("404 is not a transport failure: %v", res.Err)
	}
	if res.StatusCode != http.StatusNotFound || res.Body != "missing" {
		t.Errorf("got %d %q, want 404 \"missing\"", res.StatusCode, res.Body)
	}
}

func TestHTTPEngine_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := NewHTTPEngine(config.FetchConfig{}).Fetch(context.Background(), srv.URL+"/old")

	if res.FinalURL != srv.URL+"/new" {
		t.Errorf("FinalURL = %q, want %q", res.FinalURL, srv.URL+"/new")
	}
}

func TestHTTPEngine_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	e := NewHTTPEngine(config.FetchConfig{Timeout: 50 * time.Millisecond})
	res := e.Fetch(context.Background(), srv.URL)

	if res.TransportOK() {
		t.Fatal("expected a transport failure")
	}
	if res.StatusCode != StatusTransportFailure {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, StatusTransportFailure)
	}
	if !strings.Contains(res.Body, "timed out") {
		t.Errorf("Body should describe the timeout, got %q", res.Body)
	}
}

func TestHTTPEngine_TransportFailures(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"connection refused", "http://127.0.0.1:1/"},
		{"malformed url", "http://[::1"},
		{"unsupported scheme", "ftp://example.com/file"},
	}

	e := NewHTTPEngine(config.FetchConfig{Timeout: time.Second})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Fetch(context.Background(), tt.url)
			if res == nil {
				t.Fatal("Fetch returned nil")
			}
			if res.TransportOK() {
				t.Fatal("expected transport failure")
			}
			if res.StatusCode != StatusTransportFailure {
				t.Errorf("StatusCode = %d", res.StatusCode)
			}
			if res.Body == "" {
				t.Error("Body should describe the failure")
			}
		})
	}
}
