package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lysyi3m/rss-buckets/app/bucket"
	"github.com/lysyi3m/rss-buckets/app/library"
)

// BucketRepository handles database operations for buckets and saved searches
type BucketRepository struct {
	db *DB
}

// NewBucketRepository creates a new bucket repository
func NewBucketRepository(db *DB) *BucketRepository {
	return &BucketRepository{db: db}
}

func (r *BucketRepository) GetBuckets(ctx context.Context) ([]bucket.Bucket, error) {
	var rows []bucketRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, color, keywords, operator, case_sensitive, use_regex,
		       search_in_title, search_in_body, position
		FROM buckets
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}

	buckets := make([]bucket.Bucket, 0, len(rows))
	for _, row := range rows {
		keywords, err := decodeList(row.Keywords)
		if err != nil {
			return nil, fmt.Errorf("failed to decode bucket %s: %w", row.ID, err)
		}
		buckets = append(buckets, bucket.Bucket{
			ID:            row.ID,
			Name:          row.Name,
			Color:         row.Color,
			Keywords:      keywords,
			Operator:      bucket.Operator(row.Operator),
			CaseSensitive: row.CaseSensitive,
			UseRegex:      row.UseRegex,
			SearchInTitle: row.SearchInTitle,
			SearchInBody:  row.SearchInBody,
		})
	}

	return buckets, nil
}

func (r *BucketRepository) GetSearchConfigs(ctx context.Context) ([]library.SearchConfig, error) {
	var rows []searchRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, keywords, operator, case_sensitive, use_regex,
		       has_date_range, date_start, date_end, position
		FROM search_configs
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query search configs: %w", err)
	}

	searches := make([]library.SearchConfig, 0, len(rows))
	for _, row := range rows {
		cfg, err := row.toSearchConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to decode search config %s: %w", row.ID, err)
		}
		searches = append(searches, cfg)
	}

	return searches, nil
}

func (r *BucketRepository) replaceBuckets(ctx context.Context, tx *sqlx.Tx, buckets []bucket.Bucket) error {
	for i, b := range buckets {
		keywords, err := encodeList(b.Keywords)
		if err != nil {
			return fmt.Errorf("failed to encode keywords of bucket %s: %w", b.ID, err)
		}

		row := bucketRow{
			ID:            b.ID,
			Name:          b.Name,
			Color:         b.Color,
			Keywords:      keywords,
			Operator:      string(b.Operator),
			CaseSensitive: b.CaseSensitive,
			UseRegex:      b.UseRegex,
			SearchInTitle: b.SearchInTitle,
			SearchInBody:  b.SearchInBody,
			Position:      i,
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO buckets (id, name, color, keywords, operator, case_sensitive,
			                     use_regex, search_in_title, search_in_body, position)
			VALUES (:id, :name, :color, :keywords, :operator, :case_sensitive,
			        :use_regex, :search_in_title, :search_in_body, :position)
		`, row)
		if err != nil {
			return fmt.Errorf("failed to insert bucket %s: %w", b.ID, err)
		}
	}
	return nil
}

func (r *BucketRepository) replaceSearchConfigs(ctx context.Context, tx *sqlx.Tx, searches []library.SearchConfig) error {
	for i, s := range searches {
		keywords, err := encodeList(s.Keywords)
		if err != nil {
			return fmt.Errorf("failed to encode keywords of search %s: %w", s.ID, err)
		}

		row := searchRow{
			ID:            s.ID,
			Name:          s.Name,
			Keywords:      keywords,
			Operator:      string(s.Operator),
			CaseSensitive: s.CaseSensitive,
			UseRegex:      s.UseRegex,
			Position:      i,
		}
		if s.DateRange != nil {
			row.HasDateRange = true
			row.DateStart = formatTime(s.DateRange.Start)
			row.DateEnd = formatTime(s.DateRange.End)
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO search_configs (id, name, keywords, operator, case_sensitive,
			                            use_regex, has_date_range, date_start, date_end, position)
			VALUES (:id, :name, :keywords, :operator, :case_sensitive,
			        :use_regex, :has_date_range, :date_start, :date_end, :position)
		`, row)
		if err != nil {
			return fmt.Errorf("failed to insert search config %s: %w", s.ID, err)
		}
	}
	return nil
}

func (row searchRow) toSearchConfig() (library.SearchConfig, error) {
	keywords, err := decodeList(row.Keywords)
	if err != nil {
		return library.SearchConfig{}, err
	}

	cfg := library.SearchConfig{
		ID:            row.ID,
		Name:          row.Name,
		Keywords:      keywords,
		Operator:      bucket.Operator(row.Operator),
		CaseSensitive: row.CaseSensitive,
		UseRegex:      row.UseRegex,
	}

	if row.HasDateRange {
		start, err := parseTime(row.DateStart)
		if err != nil {
			return library.SearchConfig{}, err
		}
		end, err := parseTime(row.DateEnd)
		if err != nil {
			return library.SearchConfig{}, err
		}
		cfg.DateRange = &library.DateRange{Start: start, End: end}
	}

	return cfg, nil
}
