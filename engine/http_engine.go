package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/metrics"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPEngine fetches pages with plain net/http and browser-like headers.
// It owns one pooled client that is safe for concurrent use; per-call
// behaviour never changes its configuration.
type HTTPEngine struct {
	client  *http.Client
	timeout time.Duration
	maxBody int64
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var (
	chromeH1Spec   tls.ClientHelloSpec
	chromeH1SpecOK bool
)

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
	chromeH1SpecOK = true
}

// NewHTTPEngine creates an HTTPEngine from the fetch configuration.
func NewHTTPEngine(cfg config.FetchConfig) *HTTPEngine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   false,
	}
	if cfg.TLSFingerprint && chromeH1SpecOK {
		transport.DialTLSContext = dialChromeTLS
	}

	return &HTTPEngine{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		timeout: timeout,
		maxBody: maxBody,
	}
}

// NewHTTPEngineWithClient wraps an existing client, e.g. httptest's.
func NewHTTPEngineWithClient(client *http.Client, timeout time.Duration) *HTTPEngine {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPEngine{client: client, timeout: timeout, maxBody: 10 << 20}
}

func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// Fetch performs a single GET bounded by the engine timeout. Any HTTP
// status is returned as received; transport failures are folded into the
// result with StatusTransportFailure.
func (e *HTTPEngine) Fetch(ctx context.Context, targetURL string) *FetchResult {
	start := time.Now()
	result := e.fetch(ctx, targetURL)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if result.Err != nil {
		metrics.FetchTotal.WithLabelValues("transport_error").Inc()
		slog.Warn("fetch failed", "url", targetURL, "error", result.Err)
	} else {
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		slog.Debug("fetch done", "url", targetURL, "status", result.StatusCode, "finalURL", result.FinalURL)
	}
	return result
}

func (e *HTTPEngine) fetch(ctx context.Context, targetURL string) *FetchResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return transportFailure(targetURL, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,fr;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return transportFailure(targetURL, describe(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return transportFailure(targetURL, fmt.Errorf("read body: %w", describe(err)))
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &FetchResult{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		FinalURL:   resp.Request.URL.String(),
		Headers:    headers,
	}
}

func transportFailure(targetURL string, err error) *FetchResult {
	return &FetchResult{
		StatusCode: StatusTransportFailure,
		Body:       fmt.Sprintf("could not retrieve %s: %v", targetURL, err),
		FinalURL:   targetURL,
		Headers:    map[string]string{},
		Err:        err,
	}
}

// describe labels timeouts explicitly so the snapshot text is readable.
func describe(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out: %w", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("timed out: %w", err)
	}
	return err
}
