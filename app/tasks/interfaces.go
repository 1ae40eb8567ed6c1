package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
	"github.com/lysyi3m/rss-buckets/app/library"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Example usage:
//
//	scheduler := NewScheduler(lib, configCache, fetcher, extractor, Options{...})
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewMaterializeTask(lib))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Library is the part of library.Library the tasks drive.
type Library interface {
	UpdateFeeds(ctx context.Context) []library.RefreshResult
	UpdateFeed(ctx context.Context, feedID string) (library.RefreshResult, error)
	MaterializeAssignments() int
	SyncBuckets(defs []bucket.Bucket) (int, error)
	Articles() []article.Article
	ReplaceContent(id, content string) (bool, error)
	RefreshDue(now time.Time) bool
	Save(ctx context.Context) error
}

// PageFetcher downloads linked article pages for content extraction.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// BucketSource supplies bucket definitions from rule files.
type BucketSource interface {
	Run() error
	Buckets() []bucket.Bucket
}
