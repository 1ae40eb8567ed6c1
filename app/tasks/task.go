package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeRefreshFeeds   TaskType = "refresh_feeds"
	TaskTypeRefreshFeed    TaskType = "refresh_feed"
	TaskTypeMaterialize    TaskType = "materialize"
	TaskTypeSyncBuckets    TaskType = "sync_buckets"
	TaskTypeExtractContent TaskType = "extract_content"
)

const (
	DefaultMaxRetries = 3
	maxRetryDelay     = 30 * time.Second
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSubject() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

// Task carries the bookkeeping shared by every task. Concrete tasks embed it
// and add Execute. A task is owned by one worker at a time, so the fields
// need no locking.
type Task struct {
	ID      string
	Type    TaskType
	Subject string // feed id for per-feed tasks, empty otherwise

	retries    int
	maxRetries int
	startedAt  time.Time
}

func NewTask(taskType TaskType, subject string) Task {
	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		Subject:    subject,
		maxRetries: DefaultMaxRetries,
	}
}

func (t *Task) GetID() string        { return t.ID }
func (t *Task) GetType() TaskType    { return t.Type }
func (t *Task) GetSubject() string   { return t.Subject }
func (t *Task) GetRetryCount() int   { return t.retries }
func (t *Task) GetMaxRetries() int   { return t.maxRetries }
func (t *Task) IncrementRetryCount() { t.retries++ }
func (t *Task) CanRetry() bool       { return t.retries < t.maxRetries }

// Start marks the beginning of an attempt; GetDuration measures from the
// latest one.
func (t *Task) Start() {
	t.startedAt = time.Now()
}

func (t *Task) GetDuration() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	return time.Since(t.startedAt)
}

// retryDelay is the backoff before the given retry: 1s, 2s, 4s... capped.
func retryDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	delay := time.Duration(1<<uint(min(retryCount-1, 10))) * time.Second
	return min(delay, maxRetryDelay)
}
