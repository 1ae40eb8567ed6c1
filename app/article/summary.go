package article

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	SummaryLength = 150
	UnknownAuthor = "Unknown"
)

var (
	authorPattern = regexp.MustCompile(`(?i)author[:\s]+([^<\n]+)`)
	stripPolicy   = newStripPolicy()
)

func newStripPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}

// PlainText strips every tag from the body and collapses whitespace.
func PlainText(content string) string {
	text := stripPolicy.Sanitize(content)
	return strings.Join(strings.Fields(html.UnescapeString(text)), " ")
}

// Summary returns the first SummaryLength characters of the plain-text body,
// followed by "..." when the body is longer.
func Summary(content string) string {
	text := PlainText(content)
	if utf8.RuneCountInString(text) <= SummaryLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:SummaryLength]) + "..."
}

// ExtractAuthor prefers the article's author and otherwise looks for an
// "author: name" line in the body.
func ExtractAuthor(a Article) string {
	if a.Author != "" {
		return a.Author
	}
	if m := authorPattern.FindStringSubmatch(a.Content); len(m) > 1 {
		if author := strings.TrimSpace(m[1]); author != "" {
			return author
		}
	}
	return UnknownAuthor
}
