package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/rss-buckets/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	taskQueueSize = 300
	taskTimeout   = 5 * time.Minute
)

type Options struct {
	Interval       time.Duration
	WorkerCount    int
	ExtractContent bool
}

type Scheduler struct {
	library          Library
	bucketSource     BucketSource
	pageFetcher      PageFetcher
	contentExtractor *feed.ContentExtractor
	extractionLog    *ExtractionLog
	interval         time.Duration
	workerCount      int
	extractContent   bool
	refreshQueued    atomic.Bool
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
	now              func() time.Time
}

func NewScheduler(lib Library, bucketSource BucketSource, pageFetcher PageFetcher,
	contentExtractor *feed.ContentExtractor, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}

	return &Scheduler{
		library:          lib,
		bucketSource:     bucketSource,
		pageFetcher:      pageFetcher,
		contentExtractor: contentExtractor,
		extractionLog:    NewExtractionLog(),
		interval:         opts.Interval,
		workerCount:      opts.WorkerCount,
		extractContent:   opts.ExtractContent && pageFetcher != nil && contentExtractor != nil,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, taskQueueSize),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels running tasks and waits for the workers to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	if s.bucketSource != nil {
		if err := s.EnqueueTask(NewSyncBucketsTask(s.library, s.bucketSource)); err != nil {
			slog.Warn("Failed to enqueue SyncBucketsTask", "error", err)
		}
	}

	if err := s.EnqueueTask(NewMaterializeTask(s.library)); err != nil {
		slog.Warn("Failed to enqueue MaterializeTask", "error", err)
	}

	s.enqueueTasks()
}

// enqueueTasks queues a full refresh when auto-refresh is due and none is
// already pending.
func (s *Scheduler) enqueueTasks() {
	if !s.library.RefreshDue(s.now()) {
		slog.Debug("Auto-refresh not due")
		return
	}

	if !s.refreshQueued.CompareAndSwap(false, true) {
		slog.Debug("Refresh already queued, skipping")
		return
	}

	if err := s.EnqueueTask(NewRefreshFeedsTask(s.library)); err != nil {
		s.refreshQueued.Store(false)
		slog.Warn("Failed to enqueue RefreshFeedsTask", "error", err)
		return
	}

	if s.extractContent {
		extractTask := NewExtractContentTask(s.library, s.pageFetcher, s.contentExtractor, s.extractionLog)
		if err := s.EnqueueTask(extractTask); err != nil {
			slog.Warn("Failed to enqueue ExtractContentTask", "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		s.taskFinished(task)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		s.taskFinished(task)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		case <-timer.C:
		}

		if retryErr := s.EnqueueTask(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			s.taskFinished(task)
		}
	}()
}

func (s *Scheduler) taskFinished(task TaskInterface) {
	if task.GetType() == TaskTypeRefreshFeeds {
		s.refreshQueued.Store(false)
	}
}
