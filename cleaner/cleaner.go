package cleaner

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/scout/models"
	"golang.org/x/net/html"
)

// Content formats accepted by NewCleaner.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// errorMarkerPrefix starts every string returned in place of content when
// extraction fails.
const errorMarkerPrefix = "[extraction error] "

// Cleaner turns fetched pages into the two artifacts a source snapshot
// needs: a sanitized standalone document and the page's readable content.
//
// The converter is created once and reused across all requests
// (goroutine-safe); a Cleaner holds no other state, so every method is a
// pure function of its input.
type Cleaner struct {
	mdConverter *converter.Converter
	format      string
}

// NewCleaner creates a Cleaner producing content in the given format.
// Unknown formats fall back to plain text.
func NewCleaner(format string) *Cleaner {
	if format != FormatMarkdown {
		format = FormatText
	}
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
		format:      format,
	}
}

// ErrorMarker builds the string returned in place of content on failure.
func ErrorMarker(detail string) string {
	return errorMarkerPrefix + detail
}

// IsErrorMarker reports whether s was produced by ErrorMarker.
func IsErrorMarker(s string) bool {
	return strings.HasPrefix(s, errorMarkerPrefix)
}

func statusFailure(status int, cause error) (string, error) {
	msg := fmt.Sprintf("source answered with HTTP status %d", status)
	return ErrorMarker(msg), models.NewSearchError(models.ErrCodeHTTPStatus, msg, cause)
}

func extractionFailure(msg string, cause error) (string, error) {
	detail := msg
	if cause != nil {
		detail = fmt.Sprintf("%s: %v", msg, cause)
	}
	// Causes may quote page input verbatim.
	return ErrorMarker(html.EscapeString(detail)), models.NewSearchError(models.ErrCodeExtraction, msg, cause)
}
