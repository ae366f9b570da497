package cleaner

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// executableSelector matches elements whose content is executed, embedded,
// or rendered as raw text. None of them may survive cleaning.
var executableSelector = cascadia.MustCompile(
	"script, iframe, noscript, frame, frameset, object, embed, noembed, noframes, xmp, plaintext",
)

// StripExecutable parses rawHTML, removes every element matched by
// executableSelector (with its subtree), and renders the document back.
func StripExecutable(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	for _, node := range executableSelector.MatchAll(doc) {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
