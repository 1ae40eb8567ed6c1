package library

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/feed"
)

func (l *Library) Feeds() []article.Feed {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.feeds)
}

func (l *Library) Feed(id string) (article.Feed, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.feedIndex(id)
	if i < 0 {
		return article.Feed{}, fmt.Errorf("%w: %s", ErrFeedNotFound, id)
	}
	return l.feeds[i], nil
}

// AddFeed subscribes to the feed at rawURL. The URL is validated before any
// request is made, and nothing is stored unless the fetch succeeds.
func (l *Library) AddFeed(ctx context.Context, rawURL string) (article.Feed, RefreshResult, error) {
	u, err := feed.ValidateURL(rawURL)
	if err != nil {
		return article.Feed{}, RefreshResult{}, err
	}
	feedURL := u.String()

	if l.hasFeedURL(feedURL) {
		return article.Feed{}, RefreshResult{}, fmt.Errorf("%w: %s", ErrFeedExists, feedURL)
	}

	doc, err := l.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return article.Feed{}, RefreshResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Checked again: another request may have added it during the fetch.
	for _, f := range l.feeds {
		if f.URL == feedURL {
			return article.Feed{}, RefreshResult{}, fmt.Errorf("%w: %s", ErrFeedExists, feedURL)
		}
	}

	newFeed := article.Feed{
		ID:          l.newID(),
		URL:         feedURL,
		Title:       cmp.Or(strings.TrimSpace(doc.Title), UntitledFeedTitle),
		Description: doc.Description,
		LastUpdated: l.now(),
	}
	l.feeds = append(l.feeds, newFeed)

	result := l.mergeLocked(newFeed.ID, doc.Items)
	result.URL = feedURL

	slog.Info("Feed added", "feed_id", newFeed.ID, "url", feedURL, "title", newFeed.Title, "articles", result.Added)

	return newFeed, result, nil
}

// UpdateFeed refetches one feed and merges its items. On failure the feed and
// its articles are left exactly as they were.
func (l *Library) UpdateFeed(ctx context.Context, feedID string) (RefreshResult, error) {
	current, err := l.Feed(feedID)
	if err != nil {
		return RefreshResult{FeedID: feedID}, err
	}

	result := RefreshResult{FeedID: feedID, URL: current.URL}

	doc, err := l.fetcher.Fetch(ctx, current.URL)
	if err != nil {
		result.Err = err
		return result, fmt.Errorf("failed to refresh feed %s: %w", current.URL, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.feedIndex(feedID)
	if i < 0 {
		// Removed while the fetch was in flight.
		result.Err = fmt.Errorf("%w: %s", ErrFeedNotFound, feedID)
		return result, result.Err
	}

	merged := l.mergeLocked(feedID, doc.Items)
	result.Added, result.Updated = merged.Added, merged.Updated

	l.feeds[i].LastUpdated = l.now()
	if title := strings.TrimSpace(doc.Title); title != "" && l.feeds[i].Title == UntitledFeedTitle {
		l.feeds[i].Title = title
	}
	if l.feeds[i].Description == "" {
		l.feeds[i].Description = doc.Description
	}

	slog.Debug("Feed refreshed", "feed_id", feedID, "added", result.Added, "updated", result.Updated)

	return result, nil
}

// UpdateFeeds refreshes every feed concurrently, at most workerCount at a
// time. A failing feed is reported in its own result and never stops the
// others.
func (l *Library) UpdateFeeds(ctx context.Context) []RefreshResult {
	feeds := l.Feeds()
	results := make([]RefreshResult, len(feeds))

	var g errgroup.Group
	g.SetLimit(l.workerCount)

	for i, f := range feeds {
		g.Go(func() error {
			result, err := l.UpdateFeed(ctx, f.ID)
			if err != nil {
				slog.Warn("Feed refresh failed", "feed_id", f.ID, "url", f.URL, "error", err)
				result.Err = err
			}
			result.URL = f.URL
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	l.mu.Lock()
	l.lastRefresh = l.now()
	l.mu.Unlock()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	slog.Info("Feeds refreshed", "total", len(results), "failed", failed)

	return results
}

// IngestItems merges items supplied by an external collaborator into the
// given feed without fetching anything.
func (l *Library) IngestItems(feedID string, raw []article.RawItem) (RefreshResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.feedIndex(feedID)
	if i < 0 {
		return RefreshResult{FeedID: feedID}, fmt.Errorf("%w: %s", ErrFeedNotFound, feedID)
	}

	result := l.mergeLocked(feedID, raw)
	result.URL = l.feeds[i].URL
	l.feeds[i].LastUpdated = l.now()

	return result, nil
}

// RemoveFeed deletes the feed together with all of its articles.
func (l *Library) RemoveFeed(feedID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.feedIndex(feedID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFeedNotFound, feedID)
	}

	l.feeds = slices.Delete(l.feeds, i, i+1)

	before := len(l.articles)
	l.articles = slices.DeleteFunc(l.articles, func(a article.Article) bool {
		return a.FeedID == feedID
	})

	slog.Info("Feed removed", "feed_id", feedID, "articles_removed", before-len(l.articles))

	return nil
}

// mergeLocked replaces the article collection with its merge against raw.
// The caller must hold mu for writing.
func (l *Library) mergeLocked(feedID string, raw []article.RawItem) RefreshResult {
	merged := article.Merge(l.articles, feedID, raw, article.MergeOptions{
		Now:   l.now(),
		NewID: l.newID,
	})
	l.articles = merged.Articles

	if merged.Skipped > 0 {
		slog.Debug("Skipped items already owned by another feed", "feed_id", feedID, "skipped", merged.Skipped)
	}

	return RefreshResult{FeedID: feedID, Added: merged.Added, Updated: merged.Updated}
}

func (l *Library) hasFeedURL(url string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, f := range l.feeds {
		if f.URL == url {
			return true
		}
	}
	return false
}

func (l *Library) feedIndex(id string) int {
	return slices.IndexFunc(l.feeds, func(f article.Feed) bool { return f.ID == id })
}
