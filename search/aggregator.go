package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/use-agent/scout/cleaner"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/engine"
	"github.com/use-agent/scout/metrics"
	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/simhash"
)

// FallbackAnswer is returned when no source produced a summary.
const FallbackAnswer = "Sorry, I could not reach the sources right now. Try rephrasing your question or retry later."

// SynthesisFailedAnswer is returned when sources were summarized but no
// final answer could be written from them.
const SynthesisFailedAnswer = "Sorry, I found sources but could not write an answer from them right now. Please retry later."

// Aggregator runs the whole pipeline for one query.
type Aggregator struct {
	selector       *SourceSelector
	processor      *SourceProcessor
	completer      Completer
	maxConcurrency int
	fallbackURL    string
	dedupeDistance int
	timeout        time.Duration
	now            func() time.Time
}

// NewAggregator wires a selector and a processor around fetcher and
// completer according to cfg.
func NewAggregator(cfg config.SearchConfig, fetcher engine.Fetcher, completer Completer) *Aggregator {
	fallback := cfg.FallbackSearchURL
	if fallback == "" {
		fallback = config.DefaultFallbackSearchURL
	}
	return &Aggregator{
		selector:       NewSourceSelector(completer, cfg.MaxSources),
		processor:      NewSourceProcessor(fetcher, cleaner.NewCleaner(cfg.ContentFormat), completer, cfg.MaxContentTokens),
		completer:      completer,
		maxConcurrency: cfg.MaxConcurrency,
		fallbackURL:    fallback,
		dedupeDistance: cfg.DedupeDistance,
		timeout:        cfg.Timeout,
		now:            time.Now,
	}
}

// FallbackURL builds the single search-engine URL used when selection
// yields nothing. It is a pure function of the query.
func (a *Aggregator) FallbackURL(query string) string {
	escaped := url.QueryEscape(query)
	if !strings.Contains(a.fallbackURL, "%s") {
		return a.fallbackURL + escaped
	}
	return fmt.Sprintf(a.fallbackURL, escaped)
}

// Run answers query. It always returns a well-formed result: per-source
// failures show up as error snapshots, and a breakdown of the orchestration
// itself yields a result with Failed set and no sources.
func (a *Aggregator) Run(ctx context.Context, query string) (result *models.SearchResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := models.NewSearchError(models.ErrCodeAggregate, "search failed", fmt.Errorf("%v", r))
			slog.Error("search failed", "query", query, "error", err)
			result = a.failed(query, r)
		}
		outcome := metrics.OutcomeOK
		if result.Failed {
			outcome = metrics.OutcomeError
		}
		metrics.SearchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	urls := a.selector.Select(ctx, query)
	if len(urls) == 0 {
		urls = []string{a.FallbackURL(query)}
		slog.Info("no sources selected, using fallback", "query", query, "url", urls[0])
	}

	outcomes, states := a.processAll(ctx, urls, query)

	present := make([]models.SourceOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.HasSummary() {
			present = append(present, o)
		}
	}

	answer := FallbackAnswer
	if len(present) > 0 {
		answer = a.synthesize(ctx, query, present)
	}

	slog.Info("search completed",
		"query", query,
		"sources", len(urls),
		"summaries", len(present),
		"duration", time.Since(start).String(),
	)

	return &models.SearchResult{
		Query:         query,
		Answer:        answer,
		RawData:       present,
		Sources:       urls,
		BrowserStates: states,
		Timestamp:     a.timestamp(),
	}
}

// processAll runs the processor for every URL concurrently. Results are
// stored by index, so output order equals input order.
func (a *Aggregator) processAll(ctx context.Context, urls []string, query string) ([]models.SourceOutcome, []models.BrowserState) {
	outcomes := make([]models.SourceOutcome, len(urls))
	states := make([]models.BrowserState, len(urls))

	var g errgroup.Group
	if a.maxConcurrency > 0 {
		g.SetLimit(a.maxConcurrency)
	}
	for i, u := range urls {
		g.Go(func() error {
			outcomes[i], states[i] = a.processor.Process(ctx, u, query)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, states
}

// synthesize asks for one conversational sentence built from the
// summaries. Near-duplicate summaries are sent once. A failed or blank
// completion yields SynthesisFailedAnswer.
func (a *Aggregator) synthesize(ctx context.Context, query string, present []models.SourceOutcome) string {
	seen := simhash.NewSet(a.dedupeDistance)
	unique := make([]models.SourceOutcome, 0, len(present))
	for _, o := range present {
		if seen.Add(o.Summary) {
			unique = append(unique, o)
		}
	}
	if len(unique) < len(present) {
		slog.Debug("dropped duplicate summaries", "query", query, "dropped", len(present)-len(unique))
	}

	data, err := json.Marshal(unique)
	if err != nil {
		slog.Error("encode summaries", "query", query, "error", err)
		return SynthesisFailedAnswer
	}

	answer, err := a.completer.Complete(ctx, synthesisPrompt(string(data), query))
	observeCompletion(siteSynthesize, err)
	if err != nil {
		slog.Warn("answer synthesis failed", "query", query, "error", err)
		return SynthesisFailedAnswer
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		slog.Warn("answer synthesis returned nothing", "query", query)
		return SynthesisFailedAnswer
	}
	return answer
}

func (a *Aggregator) failed(query string, cause any) *models.SearchResult {
	return &models.SearchResult{
		Query:         query,
		Answer:        fmt.Sprintf("Sorry, an error occurred during the search: %v", cause),
		RawData:       []models.SourceOutcome{},
		Sources:       []string{},
		BrowserStates: []models.BrowserState{},
		Timestamp:     a.timestamp(),
		Failed:        true,
	}
}

func (a *Aggregator) timestamp() string {
	return a.now().UTC().Format(time.RFC3339)
}
