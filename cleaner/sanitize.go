package cleaner

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/scout/engine"
	"golang.org/x/net/html"
)

// Sanitize rebuilds a fetched page as a minimal standalone document that is
// safe to render passively:
//
//  1. Non-200 responses short-circuit to an error marker (no parsing).
//  2. The body is parsed tolerantly.
//  3. Inline <style> text is concatenated in document order.
//  4. Stylesheet links are rewritten to absolute URLs.
//  5. Executable and embedding elements, comments and on* handlers go.
//  6. A new document is assembled: charset, <base href>, the links, one
//     <style> block, then the original body subtree.
//
// On failure the returned string is an error marker and err is non-nil.
// Identical input always yields byte-identical output.
func (c *Cleaner) Sanitize(res *engine.FetchResult) (out string, err error) {
	if res.StatusCode != http.StatusOK {
		return statusFailure(res.StatusCode, res.Err)
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = extractionFailure(fmt.Sprintf("sanitize panicked: %v", r), nil)
		}
	}()

	pageURL, err := url.Parse(res.FinalURL)
	if err != nil || pageURL.Host == "" {
		return extractionFailure("invalid page URL "+res.FinalURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
	if err != nil {
		return extractionFailure("parse HTML", err)
	}

	// ── Inline CSS ──────────────────────────────────────────────────
	var styles []string
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		styles = append(styles, s.Text())
	})

	// ── Stylesheet links ────────────────────────────────────────────
	var links []string
	doc.Find("link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		if !hasToken(rel, "stylesheet") {
			return
		}
		href, _ := s.Attr("href")
		if abs, ok := resolveStylesheet(pageURL, href); ok {
			links = append(links, abs)
		}
	})

	// ── Strip ───────────────────────────────────────────────────────
	doc.FindMatcher(executableSelector).Remove()
	// Already hoisted into <head>.
	doc.Find("body style, body link").Remove()
	for _, n := range doc.Nodes {
		scrubNode(n)
	}

	// ── Body ────────────────────────────────────────────────────────
	var bodyHTML string
	if body := doc.Find("body").First(); body.Length() > 0 {
		bodyHTML, err = body.Html()
	} else {
		bodyHTML, err = doc.Html()
	}
	if err != nil {
		return extractionFailure("render body", err)
	}

	// ── Assemble ────────────────────────────────────────────────────
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<base href=\"%s\">\n", html.EscapeString(res.FinalURL))
	for _, href := range links {
		fmt.Fprintf(&b, "<link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(href))
	}
	fmt.Fprintf(&b, "<style>\n%s\n</style>\n", escapeCSS(strings.Join(styles, "\n")))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(bodyHTML)
	b.WriteString("\n</body>\n</html>")

	return b.String(), nil
}

// resolveStylesheet turns a stylesheet href into an absolute URL.
// Protocol-relative hrefs get https:, relative ones resolve against the
// scheme and host of the page, absolute http(s) hrefs pass through.
// Anything else (javascript:, data:, unparsable) is dropped.
func resolveStylesheet(pageURL *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href, true
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if ref.IsAbs() {
		if ref.Scheme == "http" || ref.Scheme == "https" {
			return href, true
		}
		return "", false
	}

	origin := &url.URL{Scheme: pageURL.Scheme, Host: pageURL.Host, Path: "/"}
	return origin.ResolveReference(ref).String(), true
}

// scrubNode removes comments, malformed elements and attributes,
// event-handler attributes and javascript: URLs from the subtree rooted at n.
func scrubNode(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		switch child.Type {
		case html.CommentNode:
			n.RemoveChild(child)
		case html.ElementNode:
			// Malformed names like "scr<script" render verbatim.
			if strings.ContainsAny(child.Data, "<>") {
				n.RemoveChild(child)
				break
			}
			child.Attr = scrubAttrs(child.Attr)
			scrubNode(child)
		default:
			scrubNode(child)
		}
		child = next
	}
}

func scrubAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		// Keys are rendered unescaped, so "<div <script>" would leak a tag.
		if strings.ContainsAny(key, "<>\"'/= \t\n\f\r") {
			continue
		}
		if strings.HasPrefix(key, "on") {
			continue
		}
		if (key == "href" || key == "src" || key == "action" || key == "formaction") &&
			strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// escapeCSS keeps stylesheet text from closing the <style> element or
// smuggling markup.
func escapeCSS(css string) string {
	return strings.ReplaceAll(css, "<", `\3c `)
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
