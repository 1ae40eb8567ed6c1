package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/rss-buckets/app/article"
)

// Channel is the metadata of a generated feed.
type Channel struct {
	Title       string
	Link        string
	Description string
	SelfLink    string
	Generator   string
}

// Generator renders a list of articles as an RSS 2.0 document.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

func (g *Generator) Run(ch Channel, articles []article.Article) (string, error) {
	if ch.Title == "" {
		return "", fmt.Errorf("channel title is required")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", ch.Title, 4)
	g.writeElement(&buf, "link", ch.Link, 4)
	g.writeElement(&buf, "description", ch.Description, 4)

	if ch.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(ch.SelfLink)))
	}

	lastBuildDate := g.now().In(time.Local)
	for _, a := range articles {
		if !a.PublishedAt.IsZero() {
			lastBuildDate = a.PublishedAt.In(time.Local)
			break
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", ch.Generator, 4)

	for _, a := range articles {
		g.writeItem(&buf, a)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, a article.Article) {
	buf.WriteString("    <item>\n")

	guid := a.Link
	if guid == "" {
		guid = a.ID
	}
	if guid != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(guid)))
		xml.EscapeText(buf, []byte(guid))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", a.Title, 6)
	g.writeElement(buf, "link", a.Link, 6)

	description := article.Summary(a.Content)
	if description == "" {
		description = "No description available"
	}
	g.writeElement(buf, "description", description, 6)

	if a.Content != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(a.Content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if !a.PublishedAt.IsZero() {
		g.writeElement(buf, "pubDate", a.PublishedAt.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "author", a.Author, 6)

	for _, category := range a.Categories {
		g.writeElement(buf, "category", category, 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for range indent {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
