package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// RefreshFeedsTask refreshes every feed, records bucket assignments and
// saves the library. Failing feeds are logged by the library and do not
// fail the task; only a failed save is retried.
type RefreshFeedsTask struct {
	Task
	library Library
}

func NewRefreshFeedsTask(lib Library) *RefreshFeedsTask {
	return &RefreshFeedsTask{
		Task:    NewTask(TaskTypeRefreshFeeds, ""),
		library: lib,
	}
}

func (t *RefreshFeedsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	results := t.library.UpdateFeeds(ctx)

	added, failed := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		added += r.Added
	}

	assigned := t.library.MaterializeAssignments()

	if err := t.library.Save(ctx); err != nil {
		return fmt.Errorf("failed to save after refresh: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"feeds", len(results),
		"failed", failed,
		"new_articles", added,
		"new_assignments", assigned)

	return nil
}

// RefreshFeedTask refreshes a single feed. A fetch failure fails the task
// so the scheduler retries it.
type RefreshFeedTask struct {
	Task
	library Library
}

func NewRefreshFeedTask(feedID string, lib Library) *RefreshFeedTask {
	return &RefreshFeedTask{
		Task:    NewTask(TaskTypeRefreshFeed, feedID),
		library: lib,
	}
}

func (t *RefreshFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.library.UpdateFeed(ctx, t.Subject)
	if err != nil {
		return err
	}

	assigned := t.library.MaterializeAssignments()

	if err := t.library.Save(ctx); err != nil {
		return fmt.Errorf("failed to save after refresh: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.Subject,
		"duration", t.GetDuration(),
		"added", result.Added,
		"updated", result.Updated,
		"new_assignments", assigned)

	return nil
}
