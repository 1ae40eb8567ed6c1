package library

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type opmlDocument struct {
	Body struct {
		Outlines []opmlOutline `xml:"outline"`
	} `xml:"body"`
}

type opmlOutline struct {
	Text     string        `xml:"text,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

// ParseOPML returns the xmlUrl of every outline, including nested ones, in
// document order.
func ParseOPML(r io.Reader) ([]string, error) {
	var doc opmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	var urls []string
	var walk func(outlines []opmlOutline)
	walk = func(outlines []opmlOutline) {
		for _, o := range outlines {
			if u := strings.TrimSpace(o.XMLURL); u != "" {
				urls = append(urls, u)
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)

	return urls, nil
}

// ImportOPML subscribes to every feed listed in the document. A feed that
// fails to import is counted and skipped.
func (l *Library) ImportOPML(ctx context.Context, r io.Reader) (ImportResult, error) {
	urls, err := ParseOPML(r)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{}
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, _, err := l.AddFeed(ctx, u); err != nil {
			slog.Warn("Failed to import feed", "url", u, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", u, err))
			continue
		}
		result.Imported++
	}

	slog.Info("OPML imported", "imported", result.Imported, "failed", result.Failed)

	return result, nil
}
