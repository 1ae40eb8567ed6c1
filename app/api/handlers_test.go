package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
	"github.com/lysyi3m/rss-buckets/app/feed"
	"github.com/lysyi3m/rss-buckets/app/library"
	"github.com/lysyi3m/rss-buckets/app/tasks"
)

const testRSS = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
<link>https://example.com</link>
<item><title>Go 1.24 released</title><link>https://example.com/go</link><description>Generic type aliases</description></item>
<item><title>Rust news</title><link>https://example.com/rust</link><description>Borrow checker</description></item>
</channel>
</rss>`

type MockStorage struct {
	mu        sync.Mutex
	snapshot  *library.Snapshot
	saveCalls int
	saveErr   error
}

func (m *MockStorage) Load(ctx context.Context) (*library.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return &library.Snapshot{}, nil
	}
	return m.snapshot, nil
}

func (m *MockStorage) Save(ctx context.Context, snapshot *library.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snapshot = snapshot
	return nil
}

type MockScheduler struct {
	mu    sync.Mutex
	tasks []tasks.TaskInterface
	err   error
}

func (m *MockScheduler) Start() {}
func (m *MockScheduler) Stop()  {}

func (m *MockScheduler) EnqueueTask(task tasks.TaskInterface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

type MockBucketSource struct{}

func (m *MockBucketSource) Run() error               { return nil }
func (m *MockBucketSource) Buckets() []bucket.Bucket { return nil }

type testEnv struct {
	router    *gin.Engine
	storage   *MockStorage
	scheduler *MockScheduler
	feedURL   string
}

func newTestEnv(t *testing.T, apiAccessKey string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	t.Cleanup(feedServer.Close)

	storage := &MockStorage{}
	fetcher := feed.NewFetcher(feedServer.Client(), feed.NewParser(), "test-agent", 0)
	lib := library.New(storage, fetcher, 2)
	scheduler := &MockScheduler{}

	handler := NewHandler(lib, &MockBucketSource{}, scheduler, "https://buckets.example.com/", "test")

	return &testEnv{
		router:    NewServer(handler, apiAccessKey),
		storage:   storage,
		scheduler: scheduler,
		feedURL:   feedServer.URL + "/rss",
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func (e *testEnv) addFeed(t *testing.T) article.Feed {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/feeds", `{"url":"`+e.feedURL+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[struct {
		Feed article.Feed `json:"feed"`
	}](t, w)
	return resp.Feed
}

type articleList struct {
	Articles []article.Article `json:"articles"`
	Total    int               `json:"total"`
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	health := decode[map[string]interface{}](t, w)
	if health["feeds"] != float64(0) {
		t.Errorf("Expected 0 feeds, got %v", health["feeds"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, "secret")

	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized},
		{"api key header", "X-API-Key", "secret", http.StatusOK},
		{"bearer token", "Authorization", "Bearer secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
		})
	}

	if w := env.do(t, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("Expected health to be public, got %d", w.Code)
	}
}

func TestAddFeedAndListArticles(t *testing.T) {
	env := newTestEnv(t, "")
	f := env.addFeed(t)

	if f.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got '%s'", f.Title)
	}
	if env.storage.saveCalls != 1 {
		t.Errorf("Expected 1 save, got %d", env.storage.saveCalls)
	}

	list := decode[articleList](t, env.do(t, http.MethodGet, "/api/articles?q=rust", ""))
	if list.Total != 1 || list.Articles[0].Title != "Rust news" {
		t.Errorf("Expected only 'Rust news', got %+v", list.Articles)
	}

	list = decode[articleList](t, env.do(t, http.MethodGet, "/api/articles?q=borrow&body=false", ""))
	if list.Total != 0 {
		t.Errorf("Expected no title match for 'borrow', got %d", list.Total)
	}
}

func TestAddFeedErrors(t *testing.T) {
	env := newTestEnv(t, "")
	env.addFeed(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing url", `{}`, http.StatusBadRequest},
		{"invalid url", `{"url":"ftp://example.com/rss"}`, http.StatusBadRequest},
		{"duplicate", `{"url":"` + env.feedURL + `"}`, http.StatusConflict},
		{"not found upstream", `{"url":"` + strings.TrimSuffix(env.feedURL, "/rss") + `/missing"}`, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/feeds", tt.body)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestRemoveFeed(t *testing.T) {
	env := newTestEnv(t, "")
	f := env.addFeed(t)

	if w := env.do(t, http.MethodDelete, "/api/feeds/"+f.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/feeds/"+f.ID, ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	list := decode[articleList](t, env.do(t, http.MethodGet, "/api/articles", ""))
	if list.Total != 0 {
		t.Errorf("Expected articles to be removed with feed, got %d", list.Total)
	}
}

func TestRefreshFeeds(t *testing.T) {
	env := newTestEnv(t, "")
	env.addFeed(t)

	w := env.do(t, http.MethodPost, "/api/feeds/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	resp := decode[struct {
		Results []refreshResponse `json:"results"`
		Failed  int               `json:"failed"`
	}](t, w)

	if len(resp.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].Added != 0 || resp.Failed != 0 {
		t.Errorf("Expected no new articles and no failures, got %+v", resp)
	}
}

func TestIngestItems(t *testing.T) {
	env := newTestEnv(t, "")
	f := env.addFeed(t)

	body := `{"items":[{"title":"Pushed","url":"https://example.com/pushed","category":"push"}]}`
	w := env.do(t, http.MethodPost, "/api/feeds/"+f.ID+"/items", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[refreshResponse](t, w)
	if resp.Added != 1 {
		t.Errorf("Expected 1 added, got %d", resp.Added)
	}

	if w := env.do(t, http.MethodPost, "/api/feeds/unknown/items", body); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestToggleArticleFlags(t *testing.T) {
	env := newTestEnv(t, "")
	env.addFeed(t)

	list := decode[articleList](t, env.do(t, http.MethodGet, "/api/articles", ""))
	id := list.Articles[0].ID

	a := decode[article.Article](t, env.do(t, http.MethodPost, "/api/articles/"+id+"/bookmark", ""))
	if !a.IsBookmarked {
		t.Errorf("Expected article to be bookmarked")
	}

	a = decode[article.Article](t, env.do(t, http.MethodPost, "/api/articles/"+id+"/read", ""))
	if !a.IsRead {
		t.Errorf("Expected article to be read")
	}

	list = decode[articleList](t, env.do(t, http.MethodGet, "/api/articles?bookmarked=true", ""))
	if list.Total != 1 || list.Articles[0].ID != id {
		t.Errorf("Expected only the bookmarked article, got %+v", list.Articles)
	}

	if w := env.do(t, http.MethodGet, "/api/articles/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestBucketLifecycle(t *testing.T) {
	env := newTestEnv(t, "")
	env.addFeed(t)

	w := env.do(t, http.MethodPost, "/api/buckets",
		`{"name":"Go","keywords":["go"],"operator":"OR","searchInTitle":true,"searchInBody":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	b := decode[bucket.Bucket](t, w)
	if b.Color != bucket.DefaultColor {
		t.Errorf("Expected default color, got '%s'", b.Color)
	}

	list := decode[articleList](t, env.do(t, http.MethodGet, "/api/buckets/"+b.ID+"/articles", ""))
	if list.Total != 1 || list.Articles[0].Title != "Go 1.24 released" {
		t.Fatalf("Expected the Go article, got %+v", list.Articles)
	}
	goID := list.Articles[0].ID

	w = env.do(t, http.MethodPut, "/api/buckets/"+b.ID,
		`{"name":"Go","keywords":["python"],"operator":"OR","searchInTitle":true,"searchInBody":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	list = decode[articleList](t, env.do(t, http.MethodGet, "/api/buckets/"+b.ID+"/articles", ""))
	if list.Total != 1 || list.Articles[0].ID != goID {
		t.Errorf("Expected the earlier match to stay assigned, got %+v", list.Articles)
	}

	if w := env.do(t, http.MethodDelete, "/api/buckets/"+b.ID+"/articles/"+goID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	list = decode[articleList](t, env.do(t, http.MethodGet, "/api/buckets/"+b.ID+"/articles", ""))
	if list.Total != 0 {
		t.Errorf("Expected bucket to be empty after removal, got %d", list.Total)
	}

	if w := env.do(t, http.MethodDelete, "/api/buckets/"+b.ID, ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/buckets/"+b.ID+"/articles", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestAddBucketValidation(t *testing.T) {
	env := newTestEnv(t, "")

	tests := map[string]string{
		"no name":      `{"keywords":["go"]}`,
		"bad operator": `{"name":"x","keywords":["go"],"operator":"XOR"}`,
		"bad json":     `{"name":`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, "/api/buckets", body); w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestReloadBucketsEnqueuesTasks(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/buckets/reload", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}

	if len(env.scheduler.tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(env.scheduler.tasks))
	}
	if env.scheduler.tasks[0].GetType() != tasks.TaskTypeSyncBuckets {
		t.Errorf("Expected sync task first, got %s", env.scheduler.tasks[0].GetType())
	}
	if env.scheduler.tasks[1].GetType() != tasks.TaskTypeMaterialize {
		t.Errorf("Expected materialize task second, got %s", env.scheduler.tasks[1].GetType())
	}

	env.scheduler.err = errors.New("queue full")
	if w := env.do(t, http.MethodPost, "/api/buckets/reload", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestSavedSearches(t *testing.T) {
	env := newTestEnv(t, "")
	env.addFeed(t)

	w := env.do(t, http.MethodPost, "/api/searches", `{"name":"Langs","keywords":["go","rust"],"operator":"OR"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	saved := decode[library.SearchConfig](t, w)

	list := decode[articleList](t, env.do(t, http.MethodGet, "/api/searches/"+saved.ID+"/articles", ""))
	if list.Total != 2 {
		t.Errorf("Expected 2 articles, got %d", list.Total)
	}

	if w := env.do(t, http.MethodDelete, "/api/searches/"+saved.ID, ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/searches/"+saved.ID+"/articles", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestAutoRefreshSettings(t *testing.T) {
	env := newTestEnv(t, "")

	cfg := decode[library.AutoRefreshConfig](t, env.do(t, http.MethodGet, "/api/settings/auto-refresh", ""))
	if cfg.Enabled || cfg.IntervalMinutes != library.DefaultAutoRefreshInterval {
		t.Errorf("Expected default settings, got %+v", cfg)
	}

	w := env.do(t, http.MethodPut, "/api/settings/auto-refresh", `{"enabled":true,"intervalMinutes":15}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	cfg = decode[library.AutoRefreshConfig](t, w)
	if !cfg.Enabled || cfg.IntervalMinutes != 15 {
		t.Errorf("Expected enabled with 15 minutes, got %+v", cfg)
	}

	if w := env.do(t, http.MethodPut, "/api/settings/auto-refresh", `{"enabled":true,"intervalMinutes":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, "")
	env.addFeed(t)
	env.do(t, http.MethodPost, "/api/buckets", `{"name":"Rust","keywords":["rust"]}`)

	w := env.do(t, http.MethodGet, "/api/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, library.ExportFilePrefix) {
		t.Errorf("Expected export file name in Content-Disposition, got '%s'", disposition)
	}

	exported := decode[[]library.ExportBucket](t, w)
	if len(exported) != 1 || len(exported[0].Articles) != 1 {
		t.Fatalf("Expected one bucket with one article, got %+v", exported)
	}
	if exported[0].Articles[0].Title != "Rust news" {
		t.Errorf("Expected 'Rust news', got '%s'", exported[0].Articles[0].Title)
	}
}

func TestSaveFailureReturnsError(t *testing.T) {
	env := newTestEnv(t, "")
	env.storage.saveErr = errors.New("disk full")

	w := env.do(t, http.MethodPost, "/api/buckets", `{"name":"Go","keywords":["go"]}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t, "")
	env.addFeed(t)

	if w := env.do(t, http.MethodPost, "/api/reset", ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	resp := decode[struct {
		Feeds []article.Feed `json:"feeds"`
	}](t, env.do(t, http.MethodGet, "/api/feeds", ""))
	if len(resp.Feeds) != 0 {
		t.Errorf("Expected no feeds after reset, got %d", len(resp.Feeds))
	}
}

func TestAddBucketDefaultsScopes(t *testing.T) {
	env := newTestEnv(t, "")
	env.addFeed(t)

	b := decode[bucket.Bucket](t, env.do(t, http.MethodPost, "/api/buckets", `{"name":"Borrow","keywords":["borrow"]}`))
	if !b.SearchInTitle || !b.SearchInBody {
		t.Errorf("Expected both scopes on, got title=%v body=%v", b.SearchInTitle, b.SearchInBody)
	}

	list := decode[articleList](t, env.do(t, http.MethodGet, "/api/buckets/"+b.ID+"/articles", ""))
	if list.Total != 1 {
		t.Errorf("Expected body match, got %d", list.Total)
	}
}

func TestGetBucketFeed(t *testing.T) {
	env := newTestEnv(t, "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/feeds", strings.NewReader(`{"url":"`+env.feedURL+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "secret")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/buckets", strings.NewReader(`{"id":"rust","name":"Rust","keywords":["rust"]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/buckets/rust/rss", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected public feed with status 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/xml") {
		t.Errorf("Expected XML content type, got '%s'", w.Header().Get("Content-Type"))
	}
	if w.Header().Get("X-Feed-Items") != "1" {
		t.Errorf("Expected 1 item, got '%s'", w.Header().Get("X-Feed-Items"))
	}

	body := w.Body.String()
	if !strings.Contains(body, "<title>Rust news</title>") {
		t.Errorf("Expected feed to contain the Rust article")
	}
	if !strings.Contains(body, `href="https://buckets.example.com/buckets/rust/rss"`) {
		t.Errorf("Expected self link built from base URL")
	}

	if w := env.do(t, http.MethodGet, "/buckets/missing/rss", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRefreshAsyncEnqueuesTask(t *testing.T) {
	env := newTestEnv(t, "")
	f := env.addFeed(t)

	if w := env.do(t, http.MethodPost, "/api/feeds/"+f.ID+"/refresh?async=true", ""); w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/feeds/refresh?async=true", ""); w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/feeds/missing/refresh?async=true", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	if len(env.scheduler.tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(env.scheduler.tasks))
	}
	if env.scheduler.tasks[0].GetType() != tasks.TaskTypeRefreshFeed || env.scheduler.tasks[0].GetSubject() != f.ID {
		t.Errorf("Expected refresh task for feed %s, got %s/%s", f.ID, env.scheduler.tasks[0].GetType(), env.scheduler.tasks[0].GetSubject())
	}
	if env.scheduler.tasks[1].GetType() != tasks.TaskTypeRefreshFeeds {
		t.Errorf("Expected full refresh task, got %s", env.scheduler.tasks[1].GetType())
	}
}
