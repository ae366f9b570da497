package cleaner

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Title returns the page's <title> text, or host+path of pageURL when the
// document has none. The path is omitted when it is just "/".
func Title(rawHTML, pageURL string) string {
	if t := documentTitle(rawHTML); t != "" {
		return t
	}

	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return pageURL
	}
	if u.Path == "/" {
		return u.Host
	}
	return u.Host + u.Path
}

// documentTitle uses the HTML tokenizer to find the first <title> element.
func documentTitle(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	inTitle := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.Join(strings.Fields(string(tokenizer.Text())), " ")
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
