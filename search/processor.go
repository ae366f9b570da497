package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/scout/cleaner"
	"github.com/use-agent/scout/engine"
	"github.com/use-agent/scout/metrics"
	"github.com/use-agent/scout/models"
)

// ErrorTitle is the snapshot title of a source whose pipeline broke down
// unexpectedly.
const ErrorTitle = "Erreur"

// SourceProcessor runs fetch, extraction and summarization for one source.
// It holds no per-call state and is safe for concurrent use.
type SourceProcessor struct {
	fetcher          engine.Fetcher
	cleaner          *cleaner.Cleaner
	completer        Completer
	maxContentTokens int
	now              func() time.Time
}

// NewSourceProcessor creates a processor. maxContentTokens bounds the page
// content handed to summarization; 0 disables truncation.
func NewSourceProcessor(fetcher engine.Fetcher, c *cleaner.Cleaner, completer Completer, maxContentTokens int) *SourceProcessor {
	return &SourceProcessor{
		fetcher:          fetcher,
		cleaner:          c,
		completer:        completer,
		maxContentTokens: maxContentTokens,
		now:              time.Now,
	}
}

// Process produces the source's outcome and its snapshot. It never panics
// and never returns an error: a fetch, extraction or summarization failure
// marks the BrowserState as an error and leaves the outcome's summary empty.
func (p *SourceProcessor) Process(ctx context.Context, sourceURL, query string) (outcome models.SourceOutcome, state models.BrowserState) {
	outcome = models.SourceOutcome{Source: sourceURL}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("source pipeline panicked", "url", sourceURL, "panic", r)
			metrics.SourcesTotal.WithLabelValues(models.StateError).Inc()
			outcome = models.SourceOutcome{Source: sourceURL}
			state = models.BrowserState{
				URL:       sourceURL,
				Title:     ErrorTitle,
				Content:   fmt.Sprintf("error while loading: %v", r),
				HTML:      "",
				Timestamp: p.timestamp(),
				Status:    models.StateError,
			}
		}
	}()

	res := p.fetcher.Fetch(ctx, sourceURL)
	if res == nil {
		panic("fetcher returned no result")
	}

	content, contentErr := p.cleaner.Content(res)
	sanitized, sanitizeErr := p.cleaner.Sanitize(res)

	state = models.BrowserState{
		URL:       sourceURL,
		Title:     cleaner.Title(res.Body, sourceURL),
		Content:   content,
		HTML:      sanitized,
		Timestamp: p.timestamp(),
		Status:    models.StateSuccess,
	}

	if err := firstErr(contentErr, sanitizeErr); err != nil {
		state.Status = models.StateError
		metrics.SourcesTotal.WithLabelValues(models.StateError).Inc()
		slog.Warn("source extraction failed", "url", sourceURL, "status", res.StatusCode, "error", err)
		return outcome, state
	}

	outcome.Summary = p.summarize(ctx, sourceURL, content, query)
	if !outcome.HasSummary() {
		state.Status = models.StateError
	}
	metrics.SourcesTotal.WithLabelValues(state.Status).Inc()
	return outcome, state
}

// summarize asks for a short excerpt of content relevant to query. Any
// failure, or an empty answer, yields "" and the source counts as failed.
func (p *SourceProcessor) summarize(ctx context.Context, sourceURL, content, query string) string {
	content = cleaner.TruncateTokens(content, p.maxContentTokens)

	summary, err := p.completer.Complete(ctx, summaryPrompt(sourceURL, content, query))
	observeCompletion(siteSummarize, err)
	if err != nil {
		slog.Warn("summarization failed", "url", sourceURL, "error", err)
		return ""
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		slog.Warn("summarization returned nothing", "url", sourceURL)
	}
	return summary
}

func (p *SourceProcessor) timestamp() string {
	return p.now().UTC().Format(time.RFC3339)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
