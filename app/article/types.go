package article

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

const UntitledTitle = "Untitled"

type Feed struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type Article struct {
	ID           string    `json:"id"`
	FeedID       string    `json:"feedId"`
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	Content      string    `json:"content"` // raw body, may contain markup
	PublishedAt  time.Time `json:"publishedAt"`
	Categories   []string  `json:"categories"`
	Author       string    `json:"author,omitempty"`
	IsRead       bool      `json:"isRead"`
	IsBookmarked bool      `json:"isBookmarked"`
	BucketIDs    []string  `json:"bucketIds"`
}

// Key returns the identity key used to deduplicate the article across fetches.
func (a *Article) Key() string {
	return IdentityKey(a.Link, a.Title)
}

func (a *Article) HasBucket(bucketID string) bool {
	return slices.Contains(a.BucketIDs, bucketID)
}

// AddBucket records the assignment and reports whether it was new.
func (a *Article) AddBucket(bucketID string) bool {
	if a.HasBucket(bucketID) {
		return false
	}
	a.BucketIDs = append(a.BucketIDs, bucketID)
	return true
}

// RemoveBucket drops the assignment and reports whether it was present.
func (a *Article) RemoveBucket(bucketID string) bool {
	i := slices.Index(a.BucketIDs, bucketID)
	if i < 0 {
		return false
	}
	a.BucketIDs = slices.Delete(slices.Clone(a.BucketIDs), i, i+1)
	return true
}

// Clone returns a copy that shares no slices with a.
func (a Article) Clone() Article {
	a.Categories = slices.Clone(a.Categories)
	a.BucketIDs = slices.Clone(a.BucketIDs)
	return a
}

// RawItem is one fetched record as supplied by a feed-retrieval collaborator.
// Every field is optional.
type RawItem struct {
	Title       string     `json:"title,omitempty"`
	Link        string     `json:"link,omitempty"`
	URL         string     `json:"url,omitempty"`
	Content     string     `json:"content,omitempty"`
	Description string     `json:"description,omitempty"`
	Published   string     `json:"published,omitempty"`
	Category    StringList `json:"category,omitempty"`
	Author      string     `json:"author,omitempty"`
}

// StringList decodes either a single JSON string or an array of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*s = nil
		return nil
	}
	*s = StringList{single}
	return nil
}

// UnionCategories appends the entries of extra missing from base, keeping order.
func UnionCategories(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, c := range list {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
