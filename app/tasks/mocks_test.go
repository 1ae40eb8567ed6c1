package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
	"github.com/lysyi3m/rss-buckets/app/library"
)

// MockLibrary implements Library for testing
type MockLibrary struct {
	mu sync.Mutex

	results      []library.RefreshResult
	updateErr    error
	saveErr      error
	due          bool
	articles     []article.Article
	synced       []bucket.Bucket
	replaced     map[string]string
	materialized int

	updateFeedsCalls int
	updateFeedCalls  []string
	saveCalls        int
}

func NewMockLibrary() *MockLibrary {
	return &MockLibrary{replaced: make(map[string]string)}
}

func (m *MockLibrary) UpdateFeeds(ctx context.Context) []library.RefreshResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateFeedsCalls++
	m.due = false
	return m.results
}

func (m *MockLibrary) UpdateFeed(ctx context.Context, feedID string) (library.RefreshResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateFeedCalls = append(m.updateFeedCalls, feedID)
	if m.updateErr != nil {
		return library.RefreshResult{FeedID: feedID, Err: m.updateErr}, m.updateErr
	}
	return library.RefreshResult{FeedID: feedID, Added: 1}, nil
}

func (m *MockLibrary) MaterializeAssignments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.materialized
}

func (m *MockLibrary) SyncBuckets(defs []bucket.Bucket) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced = append(m.synced, defs...)
	return len(defs), nil
}

func (m *MockLibrary) Articles() []article.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]article.Article(nil), m.articles...)
}

func (m *MockLibrary) ReplaceContent(id, content string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaced[id] = content
	return true, nil
}

func (m *MockLibrary) RefreshDue(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.due
}

func (m *MockLibrary) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	return m.saveErr
}

func (m *MockLibrary) counts() (updateFeeds, saves int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateFeedsCalls, m.saveCalls
}

// MockBucketSource implements BucketSource for testing
type MockBucketSource struct {
	buckets []bucket.Bucket
	err     error
	runs    int
}

func (m *MockBucketSource) Run() error {
	m.runs++
	return m.err
}

func (m *MockBucketSource) Buckets() []bucket.Bucket {
	return m.buckets
}

// MockPageFetcher implements PageFetcher for testing
type MockPageFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (m *MockPageFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	page, ok := m.pages[url]
	if !ok {
		return nil, errors.New("page not found")
	}
	return []byte(page), nil
}
