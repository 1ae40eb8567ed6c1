package article

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type MergeOptions struct {
	Now   time.Time
	NewID func() string
}

type MergeResult struct {
	Articles []Article
	Added    int
	Updated  int
	Skipped  int // candidates whose key already belongs to another feed
}

// Merge reconciles a batch of raw items fetched for feedID against the
// existing collection. Existing articles keep their id, read, bookmark and
// bucket state; their content is only replaced by a body at least as long,
// and categories are unioned. Unmatched candidates are appended as new
// articles. Articles of other feeds pass through untouched, and nothing in
// existing is ever dropped. The input slice is not modified.
func Merge(existing []Article, feedID string, raw []RawItem, opts MergeOptions) MergeResult {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	out := make([]Article, len(existing), len(existing)+len(raw))
	index := make(map[string]int, len(existing)+len(raw))
	for i := range existing {
		out[i] = existing[i].Clone()
		key := out[i].Key()
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}

	result := MergeResult{}
	for _, item := range raw {
		candidate, dated := Normalize(feedID, item, opts.Now)
		key := candidate.Key()

		pos, ok := index[key]
		if !ok {
			candidate.ID = opts.NewID()
			out = append(out, candidate)
			index[key] = len(out) - 1
			result.Added++
			continue
		}

		current := &out[pos]
		if current.FeedID != feedID {
			result.Skipped++
			continue
		}

		refresh(current, candidate, dated)
		if pos < len(existing) {
			result.Updated++
		}
	}

	result.Articles = out
	return result
}

func refresh(current *Article, candidate Article, dated bool) {
	if utf8.RuneCountInString(candidate.Content) >= utf8.RuneCountInString(current.Content) {
		current.Content = candidate.Content
	}
	current.Categories = UnionCategories(current.Categories, candidate.Categories)
	if dated {
		current.PublishedAt = candidate.PublishedAt
	}
	if current.Author == "" {
		current.Author = candidate.Author
	}
}

// ReplaceContentIfLonger applies the merge's content preference to a body
// obtained outside of a feed fetch. It reports whether the content changed.
func ReplaceContentIfLonger(a *Article, content string) bool {
	if content == a.Content {
		return false
	}
	if utf8.RuneCountInString(content) < utf8.RuneCountInString(a.Content) {
		return false
	}
	a.Content = content
	return true
}
