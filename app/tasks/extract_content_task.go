package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/feed"
)

const (
	// Articles with less plain text than this are considered truncated.
	MinContentLength = 200
	// Pages fetched per task run.
	ExtractBatchSize = 10
)

// Fetch attempts per article before extraction gives up on its page.
const MaxFetchAttempts = 3

// ExtractionLog remembers which articles are settled so a page that cannot be
// extracted is not fetched on every run. An article is settled once its page
// was fetched; failed fetches are retried up to MaxFetchAttempts times.
type ExtractionLog struct {
	mu       sync.Mutex
	settled  map[string]struct{}
	failures map[string]int
}

func NewExtractionLog() *ExtractionLog {
	return &ExtractionLog{
		settled:  make(map[string]struct{}),
		failures: make(map[string]int),
	}
}

func (l *ExtractionLog) eligible(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.settled[id]; ok {
		return false
	}
	return l.failures[id] < MaxFetchAttempts
}

func (l *ExtractionLog) settle(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.settled[id] = struct{}{}
	delete(l.failures, id)
}

func (l *ExtractionLog) recordFailure(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[id]++
	return l.failures[id]
}

// ExtractContentTask fetches the linked page of articles whose body looks
// truncated and keeps the extracted text when it is longer than the body.
type ExtractContentTask struct {
	Task
	library   Library
	fetcher   PageFetcher
	extractor *feed.ContentExtractor
	log       *ExtractionLog
}

func NewExtractContentTask(lib Library, fetcher PageFetcher, extractor *feed.ContentExtractor, log *ExtractionLog) *ExtractContentTask {
	return &ExtractContentTask{
		Task:      NewTask(TaskTypeExtractContent, ""),
		library:   lib,
		fetcher:   fetcher,
		extractor: extractor,
		log:       log,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	candidates := t.candidates()
	if len(candidates) == 0 {
		slog.Debug("No articles need content extraction")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, a := range candidates {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		replaced, err := t.extractContentForArticle(ctx, a)
		if err != nil {
			slog.Warn("Failed to extract content for article", "article_id", a.ID, "url", a.Link, "error", err)
			errorCount++
			continue
		}
		if replaced {
			successCount++
		}
	}

	if successCount > 0 {
		if err := t.library.Save(ctx); err != nil {
			return fmt.Errorf("failed to save extracted content: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) candidates() []article.Article {
	var out []article.Article
	for _, a := range t.library.Articles() {
		if len(out) == ExtractBatchSize {
			break
		}
		if a.Link == "" {
			continue
		}
		if utf8.RuneCountInString(article.PlainText(a.Content)) >= MinContentLength {
			continue
		}
		if !t.log.eligible(a.ID) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (t *ExtractContentTask) extractContentForArticle(ctx context.Context, a article.Article) (bool, error) {
	u, err := feed.ValidateURL(a.Link)
	if err != nil {
		t.log.settle(a.ID)
		return false, err
	}

	data, err := t.fetcher.FetchPage(ctx, u.String())
	if err != nil {
		attempts := t.log.recordFailure(a.ID)
		return false, fmt.Errorf("failed to fetch article page (attempt %d of %d): %w", attempts, MaxFetchAttempts, err)
	}
	t.log.settle(a.ID)

	extracted, err := t.extractor.Run(data, u)
	if err != nil {
		return false, err
	}

	replaced, err := t.library.ReplaceContent(a.ID, extracted)
	if err != nil {
		return false, err
	}

	slog.Debug("Content extracted", "article_id", a.ID, "url", a.Link, "replaced", replaced, "content_length", len(extracted))

	return replaced, nil
}
