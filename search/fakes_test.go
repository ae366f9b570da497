package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/scout/engine"
)

// fakeCompleter answers each kind of prompt with a configurable function
// and records every prompt it sees.
type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string

	selectFn     func(prompt string) (string, error)
	summarizeFn  func(prompt string) (string, error)
	synthesizeFn func(prompt string) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	var fn func(string) (string, error)
	switch {
	case strings.HasPrefix(prompt, "For this query"):
		fn = f.selectFn
	case strings.HasPrefix(prompt, "Analyze this content"):
		fn = f.summarizeFn
	case strings.HasPrefix(prompt, "Using this information"):
		fn = f.synthesizeFn
	}
	if fn == nil {
		return "", errors.New("unexpected prompt")
	}
	return fn(prompt)
}

func (f *fakeCompleter) promptsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.prompts {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

func returns(text string) func(string) (string, error) {
	return func(string) (string, error) { return text, nil }
}

func fails(msg string) func(string) (string, error) {
	return func(string) (string, error) { return "", errors.New(msg) }
}

// summaryOf returns a summary naming the source found in the prompt.
func summaryOf(prompt string) (string, error) {
	rest := strings.TrimPrefix(prompt, "Analyze this content from ")
	src, _, _ := strings.Cut(rest, ": ")
	return "summary of " + src, nil
}

// fakeFetcher serves canned results per URL, optionally after a delay.
type fakeFetcher struct {
	pages  map[string]*engine.FetchResult
	delays map[string]time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) *engine.FetchResult {
	if d := f.delays[url]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return &engine.FetchResult{
				StatusCode: engine.StatusTransportFailure,
				Body:       fmt.Sprintf("could not retrieve %s: %v", url, ctx.Err()),
				FinalURL:   url,
				Err:        ctx.Err(),
			}
		}
	}
	if res, ok := f.pages[url]; ok {
		return res
	}
	return &engine.FetchResult{
		StatusCode: engine.StatusTransportFailure,
		Body:       "could not retrieve " + url + ": no such host",
		FinalURL:   url,
		Err:        errors.New("no such host"),
	}
}

func okPage(url, title, text string) *engine.FetchResult {
	body := fmt.Sprintf(`<html><head><title>%s</title></head><body><article><p>%s</p></article></body></html>`, title, text)
	return &engine.FetchResult{StatusCode: 200, Body: body, FinalURL: url, Headers: map[string]string{}}
}

type panicFetcher struct{}

func (panicFetcher) Fetch(context.Context, string) *engine.FetchResult {
	panic("boom")
}
