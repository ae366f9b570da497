package cleaner

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/scout/engine"
)

// Content extracts the readable content of a fetched page:
//
//  1. Non-200 responses short-circuit to an error marker.
//  2. Executable elements are stripped.
//  3. Readability locates the main content; pruning is the fallback.
//  4. The result is rendered as plain text or Markdown.
func (c *Cleaner) Content(res *engine.FetchResult) (out string, err error) {
	if res.StatusCode != http.StatusOK {
		return statusFailure(res.StatusCode, res.Err)
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = extractionFailure(fmt.Sprintf("content extraction panicked: %v", r), nil)
		}
	}()

	stripped, err := StripExecutable(res.Body)
	if err != nil {
		return extractionFailure("parse HTML", err)
	}

	mainHTML, ok := extractArticle(stripped, res.FinalURL)
	if !ok {
		mainHTML, err = pruneBoilerplate(stripped)
		if err != nil {
			return extractionFailure("prune boilerplate", err)
		}
	}

	if c.format == FormatMarkdown {
		md, err := c.toMarkdown(mainHTML, res.FinalURL)
		if err != nil {
			return extractionFailure("markdown conversion", err)
		}
		return md, nil
	}

	text, err := plainText(mainHTML)
	if err != nil {
		return extractionFailure("text extraction", err)
	}
	return text, nil
}

// plainText returns the visible text of an HTML fragment with whitespace
// collapsed per line and blank lines dropped.
func plainText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	doc.Find("style, template").Remove()
	// Block boundaries become line breaks so paragraphs don't run together.
	doc.Find("p, div, li, br, h1, h2, h3, h4, h5, h6, tr, section, article").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if collapsed := strings.Join(strings.Fields(line), " "); collapsed != "" {
			kept = append(kept, collapsed)
		}
	}
	return strings.Join(kept, "\n"), nil
}
