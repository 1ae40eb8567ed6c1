package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lysyi3m/rss-buckets/app/article"
)

// FeedRepository handles database operations for feeds
type FeedRepository struct {
	db *DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// GetFeeds returns every feed in subscription order
func (r *FeedRepository) GetFeeds(ctx context.Context) ([]article.Feed, error) {
	var rows []feedRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, url, title, description, last_updated, position
		FROM feeds
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feeds: %w", err)
	}

	feeds := make([]article.Feed, 0, len(rows))
	for _, row := range rows {
		lastUpdated, err := parseTime(row.LastUpdated)
		if err != nil {
			return nil, fmt.Errorf("failed to decode feed %s: %w", row.ID, err)
		}
		feeds = append(feeds, article.Feed{
			ID:          row.ID,
			URL:         row.URL,
			Title:       row.Title,
			Description: row.Description,
			LastUpdated: lastUpdated,
		})
	}

	return feeds, nil
}

// GetFeedCount returns the number of stored feeds
func (r *FeedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM feeds`); err != nil {
		return 0, fmt.Errorf("failed to count feeds: %w", err)
	}
	return count, nil
}

// replaceFeeds writes feeds inside tx. Existing rows must already be deleted.
func (r *FeedRepository) replaceFeeds(ctx context.Context, tx *sqlx.Tx, feeds []article.Feed) error {
	for i, f := range feeds {
		row := feedRow{
			ID:          f.ID,
			URL:         f.URL,
			Title:       f.Title,
			Description: f.Description,
			LastUpdated: formatTime(f.LastUpdated),
			Position:    i,
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO feeds (id, url, title, description, last_updated, position)
			VALUES (:id, :url, :title, :description, :last_updated, :position)
		`, row)
		if err != nil {
			return fmt.Errorf("failed to insert feed %s: %w", f.ID, err)
		}
	}
	return nil
}
