package cleaner

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Signal weights for block scoring. A block is kept when its weighted
// score is strictly positive.
const (
	wTextDensity = 3.0
	wLinkDensity = -2.0
	wTag         = 1.5
	wClassID     = 1.0
	wTextLength  = 0.5
)

var (
	contentHints = []string{
		"content", "article", "post", "entry", "body", "main", "text", "forecast", "result",
	}
	boilerplateHints = []string{
		"sidebar", "ad", "widget", "nav", "menu", "comment", "footer",
		"header", "banner", "popup", "modal", "cookie", "social", "share",
		"related", "recommend", "promo", "consent",
	}
)

// pruneBoilerplate keeps the top-level <body> blocks that look like main
// content. When no block qualifies, the whole body is returned so the
// pipeline never ends up with nothing.
func pruneBoilerplate(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return rawHTML, nil
	}

	var kept []string
	body.Children().Each(func(_ int, block *goquery.Selection) {
		if blockScore(block) <= 0 {
			return
		}
		if h, err := goquery.OuterHtml(block); err == nil {
			kept = append(kept, h)
		}
	})

	if len(kept) == 0 {
		return body.Html()
	}
	return strings.Join(kept, "\n"), nil
}

func blockScore(block *goquery.Selection) float64 {
	outer, err := goquery.OuterHtml(block)
	if err != nil || len(outer) == 0 {
		return 0
	}

	text := strings.TrimSpace(block.Text())
	textLen := len(text)

	linkTextLen := 0
	block.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkTextLen += len(strings.TrimSpace(a.Text()))
	})

	textDensity := float64(textLen) / float64(len(outer))
	linkDensity := 0.0
	if textLen > 0 {
		linkDensity = float64(linkTextLen) / float64(textLen)
	}

	return textDensity*wTextDensity +
		linkDensity*wLinkDensity +
		tagBias(goquery.NodeName(block))*wTag +
		classIDBias(block)*wClassID +
		math.Log10(float64(textLen)+1)*wTextLength
}

func tagBias(tag string) float64 {
	switch tag {
	case "article", "main", "section":
		return 5
	case "nav", "footer", "aside", "header", "form":
		return -5
	}
	return 0
}

// classIDBias counts at most one hint in each direction.
func classIDBias(block *goquery.Selection) float64 {
	class, _ := block.Attr("class")
	id, _ := block.Attr("id")
	attrs := strings.ToLower(class + " " + id)

	bias := 0.0
	if containsAny(attrs, contentHints) {
		bias += 3
	}
	if containsAny(attrs, boilerplateHints) {
		bias -= 3
	}
	return bias
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
