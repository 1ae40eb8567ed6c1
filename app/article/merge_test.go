package article

import (
	"fmt"
	"slices"
	"testing"
	"time"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

func testMergeOptions() MergeOptions {
	return MergeOptions{
		Now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		NewID: sequentialIDs(),
	}
}

func TestMerge_PreservesUserStateAndTakesLongerContent(t *testing.T) {
	existing := []Article{
		{
			ID:           "1",
			FeedID:       "feed-a",
			Link:         "http://a.com/x",
			Title:        "Foo",
			Content:      "short",
			IsBookmarked: true,
			BucketIDs:    []string{"b1"},
		},
	}
	raw := []RawItem{
		{Link: "http://a.com/x?utm=1", Title: "foo", Content: "much longer content"},
	}

	result := Merge(existing, "feed-a", raw, testMergeOptions())

	if len(result.Articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(result.Articles))
	}
	got := result.Articles[0]
	if got.ID != "1" {
		t.Errorf("Expected id '1', got %q", got.ID)
	}
	if !got.IsBookmarked {
		t.Errorf("Expected bookmark to be preserved")
	}
	if got.Content != "much longer content" {
		t.Errorf("Expected longer content, got %q", got.Content)
	}
	if !slices.Equal(got.BucketIDs, []string{"b1"}) {
		t.Errorf("Expected bucket ids to be preserved, got %v", got.BucketIDs)
	}
	if result.Updated != 1 || result.Added != 0 {
		t.Errorf("Expected 1 updated and 0 added, got %d and %d", result.Updated, result.Added)
	}
}

func TestMerge_KeepsLongerExistingContent(t *testing.T) {
	existing := []Article{
		{ID: "1", FeedID: "f", Link: "https://x.com/a", Title: "A", Content: "a much longer existing body"},
	}
	raw := []RawItem{{Link: "https://x.com/a", Title: "A", Content: "shorter"}}

	result := Merge(existing, "f", raw, testMergeOptions())

	if result.Articles[0].Content != "a much longer existing body" {
		t.Errorf("Expected existing body to survive, got %q", result.Articles[0].Content)
	}
}

func TestMerge_IsIdempotent(t *testing.T) {
	raw := []RawItem{
		{Link: "https://x.com/1", Title: "One", Content: "first", Category: StringList{"go"}},
		{Link: "https://x.com/2", Title: "Two", Content: "second"},
	}
	opts := testMergeOptions()

	first := Merge(nil, "f", raw, opts)
	if first.Added != 2 {
		t.Fatalf("Expected 2 added, got %d", first.Added)
	}

	first.Articles[0].IsRead = true
	first.Articles[1].IsBookmarked = true
	first.Articles[1].BucketIDs = []string{"bucket"}

	second := Merge(first.Articles, "f", raw, opts)

	if len(second.Articles) != 2 {
		t.Fatalf("Expected no duplicates, got %d articles", len(second.Articles))
	}
	if second.Added != 0 {
		t.Errorf("Expected 0 added on second merge, got %d", second.Added)
	}
	for i := range second.Articles {
		before, after := first.Articles[i], second.Articles[i]
		if before.ID != after.ID || before.IsRead != after.IsRead || before.IsBookmarked != after.IsBookmarked {
			t.Errorf("Article %d user state changed: %+v -> %+v", i, before, after)
		}
		if !slices.Equal(before.BucketIDs, after.BucketIDs) {
			t.Errorf("Article %d bucket ids changed: %v -> %v", i, before.BucketIDs, after.BucketIDs)
		}
		if !slices.Equal(before.Categories, after.Categories) {
			t.Errorf("Article %d categories changed: %v -> %v", i, before.Categories, after.Categories)
		}
	}
}

func TestMerge_UnionsCategories(t *testing.T) {
	existing := []Article{
		{ID: "1", FeedID: "f", Link: "https://x.com/a", Title: "A", Categories: []string{"go", "rss"}},
	}
	raw := []RawItem{{Link: "https://x.com/a", Title: "A", Category: StringList{"rss", "news"}}}

	result := Merge(existing, "f", raw, testMergeOptions())

	want := []string{"go", "rss", "news"}
	if !slices.Equal(result.Articles[0].Categories, want) {
		t.Errorf("Expected categories %v, got %v", want, result.Articles[0].Categories)
	}
}

func TestMerge_PassesOtherFeedsThrough(t *testing.T) {
	existing := []Article{
		{ID: "other", FeedID: "feed-b", Link: "https://x.com/shared", Title: "Shared", Content: "b"},
		{ID: "mine", FeedID: "feed-a", Link: "https://x.com/mine", Title: "Mine", Content: "a"},
	}
	raw := []RawItem{
		{Link: "https://x.com/shared", Title: "Shared", Content: "a much longer body from feed a"},
	}

	result := Merge(existing, "feed-a", raw, testMergeOptions())

	if len(result.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(result.Articles))
	}
	if result.Articles[0].Content != "b" || result.Articles[0].FeedID != "feed-b" {
		t.Errorf("Expected other feed's article untouched, got %+v", result.Articles[0])
	}
	if result.Skipped != 1 {
		t.Errorf("Expected 1 skipped candidate, got %d", result.Skipped)
	}
}

func TestMerge_NeverDropsArticles(t *testing.T) {
	existing := []Article{
		{ID: "1", FeedID: "f", Link: "https://x.com/old", Title: "Old"},
		{ID: "2", FeedID: "g", Link: "https://y.com/other", Title: "Other"},
	}
	raw := []RawItem{{Link: "https://x.com/new", Title: "New"}}

	result := Merge(existing, "f", raw, testMergeOptions())

	if len(result.Articles) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(result.Articles))
	}
	if result.Articles[2].ID != "new-1" {
		t.Errorf("Expected new article to get a fresh id, got %q", result.Articles[2].ID)
	}
	if result.Articles[2].IsRead || result.Articles[2].IsBookmarked {
		t.Errorf("Expected default user state for new article")
	}
}

func TestMerge_CollapsesDuplicatesWithinBatch(t *testing.T) {
	raw := []RawItem{
		{Link: "https://x.com/a?x=1", Title: "A", Content: "one"},
		{Link: "https://x.com/a/", Title: " a ", Content: "one two"},
	}

	result := Merge(nil, "f", raw, testMergeOptions())

	if len(result.Articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(result.Articles))
	}
	if result.Articles[0].Content != "one two" {
		t.Errorf("Expected longer content, got %q", result.Articles[0].Content)
	}
	if result.Added != 1 || result.Updated != 0 {
		t.Errorf("Expected 1 added and 0 updated, got %d and %d", result.Added, result.Updated)
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	existing := []Article{
		{ID: "1", FeedID: "f", Link: "https://x.com/a", Title: "A", Content: "x", Categories: []string{"a"}},
	}
	raw := []RawItem{{Link: "https://x.com/a", Title: "A", Content: "longer", Category: StringList{"b"}}}

	Merge(existing, "f", raw, testMergeOptions())

	if existing[0].Content != "x" || len(existing[0].Categories) != 1 {
		t.Errorf("Expected input to be untouched, got %+v", existing[0])
	}
}

func TestMerge_DefaultsMissingFields(t *testing.T) {
	opts := testMergeOptions()
	raw := []RawItem{{URL: "https://x.com/a", Description: "from description"}}

	result := Merge(nil, "f", raw, opts)

	got := result.Articles[0]
	if got.Title != UntitledTitle {
		t.Errorf("Expected title %q, got %q", UntitledTitle, got.Title)
	}
	if got.Link != "https://x.com/a" {
		t.Errorf("Expected link from url field, got %q", got.Link)
	}
	if got.Content != "from description" {
		t.Errorf("Expected content from description, got %q", got.Content)
	}
	if !got.PublishedAt.Equal(opts.Now) {
		t.Errorf("Expected ingestion time %v, got %v", opts.Now, got.PublishedAt)
	}
	if got.Categories == nil || len(got.Categories) != 0 {
		t.Errorf("Expected empty category set, got %v", got.Categories)
	}
}

func TestReplaceContentIfLonger(t *testing.T) {
	a := Article{Content: "abc"}

	if ReplaceContentIfLonger(&a, "ab") {
		t.Errorf("Expected shorter content to be rejected")
	}
	if !ReplaceContentIfLonger(&a, "abcd") || a.Content != "abcd" {
		t.Errorf("Expected longer content to replace, got %q", a.Content)
	}
	if ReplaceContentIfLonger(&a, "abcd") {
		t.Errorf("Expected identical content to report no change")
	}
}
