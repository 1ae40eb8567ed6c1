package api

import (
	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
	"github.com/lysyi3m/rss-buckets/app/feed"
	"github.com/lysyi3m/rss-buckets/app/library"
	"github.com/lysyi3m/rss-buckets/app/tasks"
)

type Handler struct {
	library      *library.Library
	bucketSource tasks.BucketSource
	scheduler    tasks.TaskSchedulerInterface
	generator    *feed.Generator
	baseURL      string
	version      string
}

type addFeedRequest struct {
	URL string `json:"url" binding:"required"`
}

type ingestItemsRequest struct {
	Items []article.RawItem `json:"items" binding:"required"`
}

// bucketRequest is a bucket as sent by clients. Omitted search scopes
// default to on.
type bucketRequest struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Color         string          `json:"color"`
	Keywords      []string        `json:"keywords"`
	Operator      bucket.Operator `json:"operator"`
	CaseSensitive bool            `json:"caseSensitive"`
	UseRegex      bool            `json:"useRegex"`
	SearchInTitle *bool           `json:"searchInTitle"`
	SearchInBody  *bool           `json:"searchInBody"`
}

func (r bucketRequest) Bucket() bucket.Bucket {
	return bucket.Bucket{
		ID:            r.ID,
		Name:          r.Name,
		Color:         r.Color,
		Keywords:      r.Keywords,
		Operator:      r.Operator,
		CaseSensitive: r.CaseSensitive,
		UseRegex:      r.UseRegex,
		SearchInTitle: r.SearchInTitle == nil || *r.SearchInTitle,
		SearchInBody:  r.SearchInBody == nil || *r.SearchInBody,
	}
}

type refreshResponse struct {
	FeedID  string `json:"feedId"`
	URL     string `json:"url"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Error   string `json:"error,omitempty"`
}

func newRefreshResponse(r library.RefreshResult) refreshResponse {
	resp := refreshResponse{
		FeedID:  r.FeedID,
		URL:     r.URL,
		Added:   r.Added,
		Updated: r.Updated,
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}
