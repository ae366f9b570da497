package cleaner

import (
	"strings"
	"testing"

	"github.com/use-agent/scout/engine"
)

const articlePage = `<!DOCTYPE html>
<html><head><title>Weather A</title><script>track()</script></head>
<body>
<nav class="menu"><a href="/">Home</a> <a href="/news">News</a> <a href="/about">About</a></nav>
<article class="post-content">
<h1>Forecast for today</h1>
<p>Skies will stay mostly sunny through the afternoon with a light breeze from the west.
Temperatures climb to a pleasant twenty-two degrees before cooling in the evening.</p>
<p>Tomorrow brings scattered showers in the morning, clearing by noon. Pack an umbrella
if you commute early, and expect the wind to pick up slightly after dark.</p>
<script>alert("inline")</script>
</article>
<footer class="footer">Copyright 2026</footer>
</body></html>`

func TestContent_TextFormat(t *testing.T) {
	c := NewCleaner(FormatText)
	out, err := c.Content(page("http://a.test/", articlePage))
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if !strings.Contains(out, "mostly sunny") || !strings.Contains(out, "scattered showers") {
		t.Errorf("main text missing:\n%s", out)
	}
	for _, banned := range []string{"track()", "alert(", "<p>", "<script"} {
		if strings.Contains(out, banned) {
			t.Errorf("output should not contain %q:\n%s", banned, out)
		}
	}
}

func TestContent_MarkdownFormat(t *testing.T) {
	c := NewCleaner(FormatMarkdown)
	out, err := c.Content(page("http://a.test/", articlePage))
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if !strings.Contains(out, "mostly sunny") {
		t.Errorf("main text missing:\n%s", out)
	}
	if strings.Contains(out, "<p>") || strings.Contains(out, "alert(") {
		t.Errorf("markdown output should contain no markup or scripts:\n%s", out)
	}
}

func TestContent_ShortPageFallsBackToPruning(t *testing.T) {
	body := `<html><body><div class="content"><p>Short note.</p></div></body></html>`
	out, err := NewCleaner(FormatText).Content(page("http://example.com/", body))
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if !strings.Contains(out, "Short note.") {
		t.Errorf("got %q", out)
	}
}

func TestContent_NonOKStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{404, "404"},
		{503, "503"},
		{engine.StatusTransportFailure, "500"},
	}
	c := NewCleaner(FormatText)
	for _, tt := range tests {
		res := &engine.FetchResult{StatusCode: tt.status, Body: articlePage, FinalURL: "http://a.test/"}
		out, err := c.Content(res)
		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
		}
		if !IsErrorMarker(out) || !strings.Contains(out, tt.want) {
			t.Errorf("status %d: got %q", tt.status, out)
		}
		if strings.Contains(out, "sunny") {
			t.Errorf("status %d: body should not be processed", tt.status)
		}
	}
}

func TestPlainText(t *testing.T) {
	got, err := plainText(`<div><h2>Title</h2><p>  one   two </p><style>.x{}</style><ul><li>a</li><li>b</li></ul></div>`)
	if err != nil {
		t.Fatal(err)
	}
	want := "Title\none two\na\nb"
	if got != want {
		t.Errorf("plainText = %q, want %q", got, want)
	}
}

func TestStripExecutable(t *testing.T) {
	out, err := StripExecutable(`<p>keep</p><script>x()</script><iframe src="y"></iframe><object></object>`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<p>keep</p>") {
		t.Errorf("content lost: %s", out)
	}
	for _, banned := range []string{"script", "iframe", "object"} {
		if strings.Contains(out, banned) {
			t.Errorf("%s survived: %s", banned, out)
		}
	}
}
