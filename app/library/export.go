package library

import (
	"time"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
)

// Export lists every bucket with the articles it currently holds, using the
// read-only view.
func (l *Library) Export() []ExportBucket {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ExportBucket, 0, len(l.buckets))
	for i := range l.buckets {
		b := &l.buckets[i]
		items := bucket.ItemsForBucket(b, l.articles)

		entry := ExportBucket{
			ID:       b.ID,
			Name:     b.Name,
			Color:    b.Color,
			Keywords: append([]string{}, b.Keywords...),
			Operator: b.Operator,
			Articles: make([]ExportArticle, 0, len(items)),
		}
		for _, a := range items {
			entry.Articles = append(entry.Articles, ExportArticle{
				Title:   a.Title,
				Link:    a.Link,
				Author:  article.ExtractAuthor(a),
				PubDate: exportDate(a.PublishedAt),
				Summary: article.Summary(a.Content),
			})
		}
		out = append(out, entry)
	}
	return out
}

// ExportFileName names an export taken at t.
func ExportFileName(t time.Time) string {
	return ExportFilePrefix + t.Format(exportDateLayout) + ".json"
}

func exportDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(exportDateLayout)
}
