package article

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SearchOptions struct {
	Query   string
	InTitle bool
	InBody  bool
}

// Search keeps the articles whose title (when InTitle), body (when InBody) or
// any category contains the query, ignoring case. A blank query keeps all.
func Search(articles []Article, opts SearchOptions) []Article {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	if query == "" {
		return slices.Clone(articles)
	}

	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if matchesQuery(a, query, opts) {
			out = append(out, a)
		}
	}
	return out
}

func matchesQuery(a Article, query string, opts SearchOptions) bool {
	if opts.InTitle && strings.Contains(strings.ToLower(a.Title), query) {
		return true
	}
	if opts.InBody && strings.Contains(strings.ToLower(a.Content), query) {
		return true
	}
	for _, c := range a.Categories {
		if strings.Contains(strings.ToLower(c), query) {
			return true
		}
	}
	return false
}

type SortOption string

const (
	SortDateDesc  SortOption = "date-desc"
	SortDateAsc   SortOption = "date-asc"
	SortTitleAsc  SortOption = "title-asc"
	SortTitleDesc SortOption = "title-desc"
)

// ParseSortOption falls back to newest first for unknown values.
func ParseSortOption(value string) SortOption {
	switch opt := SortOption(value); opt {
	case SortDateDesc, SortDateAsc, SortTitleAsc, SortTitleDesc:
		return opt
	default:
		return SortDateDesc
	}
}

// Sort orders articles in place. Undated articles go last when sorting
// newest first and first when sorting oldest first; untitled ones go first
// in A-Z order and last in Z-A order.
func Sort(articles []Article, opt SortOption) {
	switch opt {
	case SortDateAsc:
		slices.SortStableFunc(articles, func(a, b Article) int {
			switch {
			case a.PublishedAt.IsZero() && b.PublishedAt.IsZero():
				return 0
			case a.PublishedAt.IsZero():
				return -1
			case b.PublishedAt.IsZero():
				return 1
			}
			return a.PublishedAt.Compare(b.PublishedAt)
		})
	case SortTitleAsc, SortTitleDesc:
		c := collate.New(language.Und, collate.IgnoreCase)
		desc := opt == SortTitleDesc
		slices.SortStableFunc(articles, func(a, b Article) int {
			switch {
			case a.Title == "" && b.Title == "":
				return 0
			case a.Title == "":
				if desc {
					return 1
				}
				return -1
			case b.Title == "":
				if desc {
					return -1
				}
				return 1
			}
			if desc {
				return c.CompareString(b.Title, a.Title)
			}
			return c.CompareString(a.Title, b.Title)
		})
	default:
		slices.SortStableFunc(articles, func(a, b Article) int {
			switch {
			case a.PublishedAt.IsZero() && b.PublishedAt.IsZero():
				return 0
			case a.PublishedAt.IsZero():
				return 1
			case b.PublishedAt.IsZero():
				return -1
			}
			return b.PublishedAt.Compare(a.PublishedAt)
		})
	}
}
