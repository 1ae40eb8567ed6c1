package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type MaterializeTask struct {
	Task
	library Library
}

func NewMaterializeTask(lib Library) *MaterializeTask {
	return &MaterializeTask{
		Task:    NewTask(TaskTypeMaterialize, ""),
		library: lib,
	}
}

func (t *MaterializeTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	assigned := t.library.MaterializeAssignments()
	if assigned == 0 {
		slog.Debug("No new bucket assignments")
		return nil
	}

	if err := t.library.Save(ctx); err != nil {
		return fmt.Errorf("failed to save bucket assignments: %w", err)
	}

	slog.Info("Task completed", "type", t.GetType(), "duration", t.GetDuration(), "new_assignments", assigned)

	return nil
}
