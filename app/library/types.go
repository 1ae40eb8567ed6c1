package library

import (
	"context"
	"errors"
	"time"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
	"github.com/lysyi3m/rss-buckets/app/feed"
)

var (
	ErrFeedNotFound    = errors.New("feed not found")
	ErrFeedExists      = errors.New("feed already exists")
	ErrBucketNotFound  = errors.New("bucket not found")
	ErrArticleNotFound = errors.New("article not found")
	ErrSearchNotFound  = errors.New("search not found")
)

const (
	UntitledFeedTitle          = "Untitled Feed"
	DefaultAutoRefreshInterval = 30
	ExportFilePrefix           = "rss-buckets-export-"
	exportDateLayout           = "2006-01-02"
)

// Fetcher retrieves one feed document. Implementations own timeouts and
// HTTP concerns; the library never retries.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*feed.Document, error)
}

// Storage persists whole snapshots of the library.
type Storage interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

type Snapshot struct {
	Feeds       []article.Feed
	Articles    []article.Article
	Buckets     []bucket.Bucket
	Searches    []SearchConfig
	AutoRefresh AutoRefreshConfig
	LastRefresh time.Time
}

type AutoRefreshConfig struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"intervalMinutes"`
}

func DefaultAutoRefresh() AutoRefreshConfig {
	return AutoRefreshConfig{Enabled: false, IntervalMinutes: DefaultAutoRefreshInterval}
}

func (c AutoRefreshConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// DateRange bounds a saved search by publication time. A zero bound is open.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

type SearchConfig struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Keywords      []string        `json:"keywords"`
	Operator      bucket.Operator `json:"operator"`
	CaseSensitive bool            `json:"caseSensitive"`
	UseRegex      bool            `json:"useRegex"`
	DateRange     *DateRange      `json:"dateRange,omitempty"`
}

// Query describes an ad-hoc article search.
type Query struct {
	Text           string
	InTitle        bool
	InBody         bool
	BucketID       string
	BookmarkedOnly bool
	Sort           article.SortOption
}

// RefreshResult reports the outcome of refreshing one feed.
type RefreshResult struct {
	FeedID  string `json:"feedId"`
	URL     string `json:"url"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Err     error  `json:"-"`
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

type ExportArticle struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Author  string `json:"author"`
	PubDate string `json:"pubDate"`
	Summary string `json:"summary"`
}

type ExportBucket struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Color    string          `json:"color"`
	Keywords []string        `json:"keywords"`
	Operator bucket.Operator `json:"operator"`
	Articles []ExportArticle `json:"articles"`
}
