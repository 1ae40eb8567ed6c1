package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// SyncBucketsTask reloads the bucket rule files and upserts them into the
// library.
type SyncBucketsTask struct {
	Task
	library Library
	source  BucketSource
}

func NewSyncBucketsTask(lib Library, source BucketSource) *SyncBucketsTask {
	return &SyncBucketsTask{
		Task:    NewTask(TaskTypeSyncBuckets, ""),
		library: lib,
		source:  source,
	}
}

func (t *SyncBucketsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.source.Run(); err != nil {
		return fmt.Errorf("failed to load bucket configurations: %w", err)
	}

	synced, err := t.library.SyncBuckets(t.source.Buckets())
	if err != nil {
		return err
	}

	if synced > 0 {
		if err := t.library.Save(ctx); err != nil {
			return fmt.Errorf("failed to save synced buckets: %w", err)
		}
	}

	slog.Info("Task completed", "type", t.GetType(), "duration", t.GetDuration(), "buckets", synced)

	return nil
}
