package article

import (
	"cmp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Normalize turns a raw fetched record into a candidate article of feedID.
// The returned article carries no ID; the merge assigns one when the
// candidate turns out to be new. The second result reports whether the
// published time came from the record rather than the ingestion clock.
func Normalize(feedID string, raw RawItem, now time.Time) (Article, bool) {
	a := Article{
		FeedID:     feedID,
		Title:      cmp.Or(strings.TrimSpace(raw.Title), UntitledTitle),
		Link:       cmp.Or(raw.Link, raw.URL),
		Content:    cmp.Or(raw.Content, raw.Description),
		Categories: normalizeCategories(raw.Category),
		Author:     strings.TrimSpace(raw.Author),
		BucketIDs:  []string{},
	}

	published, ok := parsePublished(raw.Published)
	if ok {
		a.PublishedAt = published
	} else {
		a.PublishedAt = now
	}

	return a, ok
}

func parsePublished(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func normalizeCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
