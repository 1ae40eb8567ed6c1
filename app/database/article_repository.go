package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lysyi3m/rss-buckets/app/article"
)

// ArticleRepository handles database operations for articles and their
// bucket assignments
type ArticleRepository struct {
	db *DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// GetArticles returns every article with its bucket assignments
func (r *ArticleRepository) GetArticles(ctx context.Context) ([]article.Article, error) {
	var rows []articleRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, feed_id, title, link, content, published_at, categories,
		       author, is_read, is_bookmarked, position
		FROM articles
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}

	var assignments []articleBucketRow
	err = r.db.SelectContext(ctx, &assignments, `
		SELECT article_id, bucket_id, position
		FROM article_buckets
		ORDER BY article_id, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bucket assignments: %w", err)
	}

	bucketIDs := make(map[string][]string)
	for _, a := range assignments {
		bucketIDs[a.ArticleID] = append(bucketIDs[a.ArticleID], a.BucketID)
	}

	articles := make([]article.Article, 0, len(rows))
	for _, row := range rows {
		a, err := row.toArticle()
		if err != nil {
			return nil, fmt.Errorf("failed to decode article %s: %w", row.ID, err)
		}
		if ids, ok := bucketIDs[row.ID]; ok {
			a.BucketIDs = ids
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// GetArticleCount returns the number of stored articles
func (r *ArticleRepository) GetArticleCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM articles`); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// replaceArticles writes articles and assignments inside tx. Existing rows
// must already be deleted.
func (r *ArticleRepository) replaceArticles(ctx context.Context, tx *sqlx.Tx, articles []article.Article) error {
	for i, a := range articles {
		categories, err := encodeList(a.Categories)
		if err != nil {
			return fmt.Errorf("failed to encode categories of article %s: %w", a.ID, err)
		}

		row := articleRow{
			ID:           a.ID,
			FeedID:       a.FeedID,
			Title:        a.Title,
			Link:         a.Link,
			Content:      a.Content,
			PublishedAt:  formatTime(a.PublishedAt),
			Categories:   categories,
			Author:       a.Author,
			IsRead:       a.IsRead,
			IsBookmarked: a.IsBookmarked,
			Position:     i,
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO articles (id, feed_id, title, link, content, published_at,
			                      categories, author, is_read, is_bookmarked, position)
			VALUES (:id, :feed_id, :title, :link, :content, :published_at,
			        :categories, :author, :is_read, :is_bookmarked, :position)
		`, row)
		if err != nil {
			return fmt.Errorf("failed to insert article %s: %w", a.ID, err)
		}

		for j, bucketID := range a.BucketIDs {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO article_buckets (article_id, bucket_id, position)
				VALUES (:article_id, :bucket_id, :position)
			`, articleBucketRow{ArticleID: a.ID, BucketID: bucketID, Position: j})
			if err != nil {
				return fmt.Errorf("failed to insert bucket assignment %s/%s: %w", a.ID, bucketID, err)
			}
		}
	}
	return nil
}

func (row articleRow) toArticle() (article.Article, error) {
	publishedAt, err := parseTime(row.PublishedAt)
	if err != nil {
		return article.Article{}, err
	}
	categories, err := decodeList(row.Categories)
	if err != nil {
		return article.Article{}, err
	}

	return article.Article{
		ID:           row.ID,
		FeedID:       row.FeedID,
		Title:        row.Title,
		Link:         row.Link,
		Content:      row.Content,
		PublishedAt:  publishedAt,
		Categories:   categories,
		Author:       row.Author,
		IsRead:       row.IsRead,
		IsBookmarked: row.IsBookmarked,
		BucketIDs:    []string{},
	}, nil
}
