package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/rss-buckets/app/article"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Document, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	doc := &Document{
		Title:       strings.TrimSpace(parsed.Title),
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}

	if parsed.Image != nil {
		doc.ImageURL = parsed.Image.URL
	}

	doc.Items = make([]article.RawItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		doc.Items = append(doc.Items, p.normalizeItem(item))
	}

	return doc, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) article.RawItem {
	raw := article.RawItem{
		Title:       item.Title,
		Link:        item.Link,
		Content:     item.Content,
		Description: item.Description,
		Category:    article.StringList(item.Categories),
		Author:      p.extractAuthor(item),
	}

	if raw.Link == "" && len(item.Links) > 0 {
		raw.Link = item.Links[0]
	}

	switch {
	case item.PublishedParsed != nil:
		raw.Published = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		raw.Published = item.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		raw.Published = cmp.Or(item.Published, item.Updated)
	}

	return raw
}

func (p *Parser) extractAuthor(item *gofeed.Item) string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil {
				if authorStr := p.formatAuthor(author.Name, author.Email); authorStr != "" {
					authors = append(authors, authorStr)
				}
			}
		}
	} else if item.Author != nil {
		if authorStr := p.formatAuthor(item.Author.Name, item.Author.Email); authorStr != "" {
			authors = append(authors, authorStr)
		}
	}

	return strings.Join(authors, ", ")
}

func (p *Parser) formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" && email != "" {
		return fmt.Sprintf("%s (%s)", email, name)
	} else if name != "" {
		return name
	} else if email != "" {
		return email
	}

	return ""
}
