// Package webhook notifies callers when a background search finishes.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	EventSearchCompleted = "search.completed"
	EventSearchFailed    = "search.failed"
)

// SignatureHeader carries "sha256=<hex>" of the request body when the
// target has a secret.
const SignatureHeader = "X-Scout-Signature"

// Event is the JSON body posted to a target.
type Event struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, jobID string, data any) *Event {
	return &Event{Type: eventType, JobID: jobID, Timestamp: time.Now().Unix(), Data: data}
}

// Target is a caller-supplied endpoint.
type Target struct {
	URL    string
	Secret string
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Notifier posts events over one shared client.
type Notifier struct {
	client  *http.Client
	backoff []time.Duration // wait before each attempt; len is the attempt count
}

// NewNotifier returns a Notifier whose individual attempts are bounded by
// timeout. Failed deliveries are retried after 1s, 5s and 30s.
func NewNotifier(timeout time.Duration) *Notifier {
	return &Notifier{
		client:  &http.Client{Timeout: timeout},
		backoff: []time.Duration{0, time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Send makes a single delivery attempt. Any status >= 400 is an error.
func (n *Notifier) Send(ctx context.Context, t Target, ev *Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook: encode %s: %w", ev.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Scout-Webhook/1.0")
	if t.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(t.Secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post %s: %w", t.URL, err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: %s answered %d", t.URL, resp.StatusCode)
	}
	return nil
}

// Notify delivers ev in the background, retrying on failure until the
// backoff schedule runs out or ctx ends. The returned channel closes when
// it gives up or succeeds.
func (n *Notifier) Notify(ctx context.Context, t Target, ev *Event) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		log := slog.With("url", t.URL, "event", ev.Type, "job_id", ev.JobID)

		for i, wait := range n.backoff {
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					log.Warn("webhook abandoned", "attempt", i+1, "error", ctx.Err())
					return
				}
			}

			err := n.Send(ctx, t, ev)
			if err == nil {
				log.Info("webhook delivered", "attempt", i+1)
				return
			}
			log.Warn("webhook attempt failed", "attempt", i+1, "error", err)
		}
		log.Error("webhook undeliverable", "attempts", len(n.backoff))
	}()
	return done
}
