package database

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	settingAutoRefresh = "auto_refresh"
	settingLastRefresh = "last_refresh"
)

type feedRow struct {
	ID          string `db:"id"`
	URL         string `db:"url"`
	Title       string `db:"title"`
	Description string `db:"description"`
	LastUpdated string `db:"last_updated"`
	Position    int    `db:"position"`
}

type articleRow struct {
	ID           string `db:"id"`
	FeedID       string `db:"feed_id"`
	Title        string `db:"title"`
	Link         string `db:"link"`
	Content      string `db:"content"`
	PublishedAt  string `db:"published_at"`
	Categories   string `db:"categories"`
	Author       string `db:"author"`
	IsRead       bool   `db:"is_read"`
	IsBookmarked bool   `db:"is_bookmarked"`
	Position     int    `db:"position"`
}

type articleBucketRow struct {
	ArticleID string `db:"article_id"`
	BucketID  string `db:"bucket_id"`
	Position  int    `db:"position"`
}

type bucketRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Color         string `db:"color"`
	Keywords      string `db:"keywords"`
	Operator      string `db:"operator"`
	CaseSensitive bool   `db:"case_sensitive"`
	UseRegex      bool   `db:"use_regex"`
	SearchInTitle bool   `db:"search_in_title"`
	SearchInBody  bool   `db:"search_in_body"`
	Position      int    `db:"position"`
}

type searchRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Keywords      string `db:"keywords"`
	Operator      string `db:"operator"`
	CaseSensitive bool   `db:"case_sensitive"`
	UseRegex      bool   `db:"use_regex"`
	HasDateRange  bool   `db:"has_date_range"`
	DateStart     string `db:"date_start"`
	DateEnd       string `db:"date_end"`
	Position      int    `db:"position"`
}

type settingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Times are stored as RFC 3339 text; the zero time is stored as "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", value, err)
	}
	return t, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(value string) ([]string, error) {
	list := []string{}
	if value == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(value), &list); err != nil {
		return nil, fmt.Errorf("invalid stored list %q: %w", value, err)
	}
	return list, nil
}
