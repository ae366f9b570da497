package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minArticleLength is the minimum TextContent length (in characters) for a
// readability result to count as the page's main content.
const minArticleLength = 50

// extractArticle runs the Mozilla Readability algorithm on rawHTML and
// returns its main-content HTML. ok is false when readability could not
// find substantial content; the caller then falls back to pruning.
func extractArticle(rawHTML, pageURL string) (content string, ok bool) {
	parsedURL, err := nurl.Parse(pageURL)
	if err != nil {
		slog.Debug("readability: invalid page URL", "url", pageURL, "error", err)
		return "", false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability: extraction failed", "url", pageURL, "error", err)
		return "", false
	}

	if len(strings.TrimSpace(article.TextContent)) < minArticleLength {
		slog.Debug("readability: content too short, pruning instead",
			"url", pageURL, "length", len(article.TextContent),
		)
		return "", false
	}

	return article.Content, true
}
