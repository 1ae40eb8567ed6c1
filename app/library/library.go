package library

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
)

// Library owns the feeds, articles, buckets and saved searches of one
// process. Every mutation happens under mu, so a merge always sees and
// replaces the whole article collection in one step. Network fetches run
// outside the lock.
type Library struct {
	storage     Storage
	fetcher     Fetcher
	workerCount int

	now   func() time.Time
	newID func() string

	mu          sync.RWMutex
	feeds       []article.Feed
	articles    []article.Article
	buckets     []bucket.Bucket
	searches    []SearchConfig
	autoRefresh AutoRefreshConfig
	lastRefresh time.Time
}

func New(storage Storage, fetcher Fetcher, workerCount int) *Library {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Library{
		storage:     storage,
		fetcher:     fetcher,
		workerCount: workerCount,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		autoRefresh: DefaultAutoRefresh(),
	}
}

// Load replaces the in-memory state with the stored snapshot.
func (l *Library) Load(ctx context.Context) error {
	snapshot, err := l.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.feeds = snapshot.Feeds
	l.articles = snapshot.Articles
	l.buckets = snapshot.Buckets
	l.searches = snapshot.Searches
	l.autoRefresh = snapshot.AutoRefresh
	if l.autoRefresh.IntervalMinutes <= 0 {
		l.autoRefresh.IntervalMinutes = DefaultAutoRefreshInterval
	}
	l.lastRefresh = snapshot.LastRefresh

	slog.Info("Library loaded",
		"feeds", len(l.feeds),
		"articles", len(l.articles),
		"buckets", len(l.buckets),
		"searches", len(l.searches))

	return nil
}

// Save hands a consistent copy of the current state to storage.
func (l *Library) Save(ctx context.Context) error {
	snapshot := l.Snapshot()
	if err := l.storage.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	slog.Debug("Library saved", "feeds", len(snapshot.Feeds), "articles", len(snapshot.Articles))
	return nil
}

func (l *Library) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &Snapshot{
		Feeds:       slices.Clone(l.feeds),
		Articles:    cloneArticles(l.articles),
		Buckets:     cloneBuckets(l.buckets),
		Searches:    cloneSearches(l.searches),
		AutoRefresh: l.autoRefresh,
		LastRefresh: l.lastRefresh,
	}
}

// Reset drops every feed, article, bucket and saved search.
func (l *Library) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.feeds = nil
	l.articles = nil
	l.buckets = nil
	l.searches = nil
	l.autoRefresh = DefaultAutoRefresh()
	l.lastRefresh = time.Time{}

	slog.Info("Library reset")
}

func (l *Library) AutoRefresh() AutoRefreshConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.autoRefresh
}

func (l *Library) SetAutoRefresh(cfg AutoRefreshConfig) (AutoRefreshConfig, error) {
	if cfg.IntervalMinutes <= 0 {
		return AutoRefreshConfig{}, fmt.Errorf("interval must be positive, got %d minutes", cfg.IntervalMinutes)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.autoRefresh = cfg
	return cfg, nil
}

// LastRefresh is the time the last whole-library refresh finished.
func (l *Library) LastRefresh() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastRefresh
}

// RefreshDue reports whether auto-refresh is on and its interval has passed.
func (l *Library) RefreshDue(now time.Time) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.autoRefresh.Enabled {
		return false
	}
	return now.Sub(l.lastRefresh) >= l.autoRefresh.Interval()
}

func cloneArticles(articles []article.Article) []article.Article {
	out := make([]article.Article, len(articles))
	for i := range articles {
		out[i] = articles[i].Clone()
	}
	return out
}

func cloneBuckets(buckets []bucket.Bucket) []bucket.Bucket {
	out := make([]bucket.Bucket, len(buckets))
	for i, b := range buckets {
		b.Keywords = slices.Clone(b.Keywords)
		out[i] = b
	}
	return out
}

func cloneSearches(searches []SearchConfig) []SearchConfig {
	out := make([]SearchConfig, len(searches))
	for i, s := range searches {
		s.Keywords = slices.Clone(s.Keywords)
		if s.DateRange != nil {
			r := *s.DateRange
			s.DateRange = &r
		}
		out[i] = s
	}
	return out
}
