package database

import (
	"context"
	"fmt"

	"github.com/lysyi3m/rss-buckets/app/library"
)

// Storage persists library snapshots. Save replaces the stored snapshot in
// a single transaction, so a failed save leaves the previous one intact.
type Storage struct {
	db       *DB
	feeds    *FeedRepository
	articles *ArticleRepository
	buckets  *BucketRepository
	settings *SettingsRepository
}

func NewStorage(db *DB) *Storage {
	return &Storage{
		db:       db,
		feeds:    NewFeedRepository(db),
		articles: NewArticleRepository(db),
		buckets:  NewBucketRepository(db),
		settings: NewSettingsRepository(db),
	}
}

func (s *Storage) Load(ctx context.Context) (*library.Snapshot, error) {
	feeds, err := s.feeds.GetFeeds(ctx)
	if err != nil {
		return nil, err
	}
	articles, err := s.articles.GetArticles(ctx)
	if err != nil {
		return nil, err
	}
	buckets, err := s.buckets.GetBuckets(ctx)
	if err != nil {
		return nil, err
	}
	searches, err := s.buckets.GetSearchConfigs(ctx)
	if err != nil {
		return nil, err
	}
	autoRefresh, lastRefresh, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	return &library.Snapshot{
		Feeds:       feeds,
		Articles:    articles,
		Buckets:     buckets,
		Searches:    searches,
		AutoRefresh: autoRefresh,
		LastRefresh: lastRefresh,
	}, nil
}

func (s *Storage) Save(ctx context.Context, snapshot *library.Snapshot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"article_buckets", "articles", "feeds", "buckets", "search_configs", "settings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := s.feeds.replaceFeeds(ctx, tx, snapshot.Feeds); err != nil {
		return err
	}
	if err := s.articles.replaceArticles(ctx, tx, snapshot.Articles); err != nil {
		return err
	}
	if err := s.buckets.replaceBuckets(ctx, tx, snapshot.Buckets); err != nil {
		return err
	}
	if err := s.buckets.replaceSearchConfigs(ctx, tx, snapshot.Searches); err != nil {
		return err
	}
	if err := s.settings.replaceSettings(ctx, tx, snapshot.AutoRefresh, snapshot.LastRefresh); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}
