// Package search answers a natural-language query from several web sources.
//
// A SourceSelector asks the completion capability which URLs to consult, an
// Aggregator fans the URLs out to a SourceProcessor each, and the per-source
// summaries are synthesized into one answer. Per-source failures are
// recorded in that source's BrowserState and never abort the query.
package search

import (
	"context"

	"github.com/use-agent/scout/metrics"
)

// Completer is the text-completion capability: one prompt in, free text out.
// llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Completion call sites, used as metric labels.
const (
	siteSelect     = "select"
	siteSummarize  = "summarize"
	siteSynthesize = "synthesize"
)

func observeCompletion(site string, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.CompletionTotal.WithLabelValues(site, outcome).Inc()
}
