package search

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultMaxSources is the selection cap when none is configured.
const DefaultMaxSources = 3

// SourceSelector asks the completion capability which URLs to consult.
type SourceSelector struct {
	completer  Completer
	maxSources int
}

// NewSourceSelector creates a selector keeping at most maxSources URLs.
func NewSourceSelector(completer Completer, maxSources int) *SourceSelector {
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}
	return &SourceSelector{completer: completer, maxSources: maxSources}
}

// Select returns up to maxSources candidate URLs in the order the
// completion ranked them. A completion failure yields an empty slice.
func (s *SourceSelector) Select(ctx context.Context, query string) []string {
	text, err := s.completer.Complete(ctx, selectionPrompt(query, s.maxSources))
	observeCompletion(siteSelect, err)
	if err != nil {
		slog.Warn("source selection failed", "query", query, "error", err)
		return []string{}
	}
	return parseURLLines(text, s.maxSources)
}

// parseURLLines keeps every trimmed, non-empty line starting with "http",
// in order, up to limit. Nothing else is validated; malformed URLs fail
// later at fetch time.
func parseURLLines(text string, limit int) []string {
	urls := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "http") {
			continue
		}
		urls = append(urls, line)
		if len(urls) == limit {
			break
		}
	}
	return urls
}
