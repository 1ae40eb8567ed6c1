package library

import (
	"fmt"
	"slices"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
)

func (l *Library) Articles() []article.Article {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneArticles(l.articles)
}

func (l *Library) Article(id string) (article.Article, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.articleIndex(id)
	if i < 0 {
		return article.Article{}, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
	}
	return l.articles[i].Clone(), nil
}

func (l *Library) ToggleRead(id string) (article.Article, error) {
	return l.updateArticle(id, func(a *article.Article) {
		a.IsRead = !a.IsRead
	})
}

func (l *Library) ToggleBookmark(id string) (article.Article, error) {
	return l.updateArticle(id, func(a *article.Article) {
		a.IsBookmarked = !a.IsBookmarked
	})
}

func (l *Library) Bookmarked() []article.Article {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]article.Article, 0)
	for i := range l.articles {
		if l.articles[i].IsBookmarked {
			out = append(out, l.articles[i].Clone())
		}
	}
	return out
}

// ReplaceContent swaps in a body obtained outside of a feed fetch, such as
// an extracted page, under the same rule a merge uses: only a body at least
// as long as the current one wins.
func (l *Library) ReplaceContent(id, content string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.articleIndex(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
	}
	return article.ReplaceContentIfLonger(&l.articles[i], content), nil
}

// Search filters the articles by a case-insensitive text query, optionally
// within one bucket or among bookmarks, and sorts the result. Bucket scoping
// uses the read-only view and never records assignments.
func (l *Library) Search(q Query) ([]article.Article, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var candidates []article.Article
	if q.BucketID != "" {
		i := l.bucketIndex(q.BucketID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, q.BucketID)
		}
		candidates = bucket.ItemsForBucket(&l.buckets[i], l.articles)
	} else {
		candidates = cloneArticles(l.articles)
	}

	if q.BookmarkedOnly {
		candidates = slices.DeleteFunc(candidates, func(a article.Article) bool { return !a.IsBookmarked })
	}

	found := article.Search(candidates, article.SearchOptions{
		Query:   q.Text,
		InTitle: q.InTitle,
		InBody:  q.InBody,
	})
	article.Sort(found, article.ParseSortOption(string(q.Sort)))

	return found, nil
}

func (l *Library) updateArticle(id string, update func(a *article.Article)) (article.Article, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.articleIndex(id)
	if i < 0 {
		return article.Article{}, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
	}
	update(&l.articles[i])
	return l.articles[i].Clone(), nil
}

func (l *Library) articleIndex(id string) int {
	return slices.IndexFunc(l.articles, func(a article.Article) bool { return a.ID == id })
}
