package main

import (
	"strings"
	"testing"
)

func TestFormatSearch(t *testing.T) {
	var resp searchResponse
	resp.Data.Answer = "Sunny today."
	resp.Data.RawData = append(resp.Data.RawData, struct {
		Source  string `json:"source"`
		Content string `json:"content"`
	}{Source: "http://a.test", Content: "sunny"})

	out := formatSearch(&resp)
	if !strings.HasPrefix(out, "Sunny today.") {
		t.Errorf("answer should come first: %q", out)
	}
	if !strings.Contains(out, "- http://a.test: sunny") {
		t.Errorf("missing finding: %q", out)
	}
	if strings.Contains(out, "Sources:") {
		t.Errorf("no states, no sources section: %q", out)
	}
}
