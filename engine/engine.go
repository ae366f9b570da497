package engine

import (
	"context"
	"net/http"
)

// StatusTransportFailure is the status recorded when the request never got
// an HTTP response (DNS, refused connection, timeout, TLS, bad URL).
const StatusTransportFailure = http.StatusInternalServerError

// Fetcher retrieves a single URL. Implementations never return a nil
// result and never surface transport errors any other way.
type Fetcher interface {
	Fetch(ctx context.Context, url string) *FetchResult
}

// FetchResult is the uniform outcome of one fetch, successful or not.
type FetchResult struct {
	StatusCode int
	Body       string
	FinalURL   string
	Headers    map[string]string

	// Err holds the transport failure, nil when a response was received.
	Err error
}

// TransportOK reports whether an HTTP response was received at all.
func (r *FetchResult) TransportOK() bool { return r.Err == nil }
