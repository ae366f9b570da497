package cleaner

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var blankRun = regexp.MustCompile(`\n{3,}`)

// newMarkdownConverter builds the shared converter. It is safe for
// concurrent use.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal)),
		),
	)
}

// toMarkdown renders a main-content fragment as Markdown with links made
// absolute against pageURL. Runs of blank lines are squeezed to one.
func (c *Cleaner) toMarkdown(fragment, pageURL string) (string, error) {
	md, err := c.mdConverter.ConvertString(fragment, converter.WithDomain(pageURL))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(blankRun.ReplaceAllString(md, "\n\n")), nil
}
