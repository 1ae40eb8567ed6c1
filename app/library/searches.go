package library

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
)

func (l *Library) SearchConfigs() []SearchConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneSearches(l.searches)
}

func (l *Library) SaveSearchConfig(cfg SearchConfig) (SearchConfig, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		return SearchConfig{}, fmt.Errorf("%w: search name is required", bucket.ErrInvalidBucket)
	}
	op, err := bucket.ParseOperator(string(cfg.Operator))
	if err != nil {
		return SearchConfig{}, err
	}
	cfg.Operator = op
	cfg.Keywords = slices.Clone(cfg.Keywords)
	if cfg.Keywords == nil {
		cfg.Keywords = []string{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if cfg.ID == "" {
		cfg.ID = l.newID()
	}
	if i := l.searchIndex(cfg.ID); i >= 0 {
		l.searches[i] = cfg
	} else {
		l.searches = append(l.searches, cfg)
	}

	return cfg, nil
}

func (l *Library) RemoveSearchConfig(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.searchIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSearchNotFound, id)
	}
	l.searches = slices.Delete(l.searches, i, i+1)
	return nil
}

// RunSearchConfig evaluates a saved search against title and body, newest
// first. It uses the same keyword rule as buckets.
func (l *Library) RunSearchConfig(id string) ([]article.Article, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.searchIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSearchNotFound, id)
	}
	cfg := l.searches[i]

	rule := bucket.NewRule(cfg.Keywords, cfg.Operator, cfg.UseRegex, cfg.CaseSensitive)
	out := make([]article.Article, 0)
	if rule.Empty() {
		return out, nil
	}

	for j := range l.articles {
		a := &l.articles[j]
		if !cfg.DateRange.Contains(a.PublishedAt) {
			continue
		}
		if rule.Match(a.Title + " " + a.Content) {
			out = append(out, a.Clone())
		}
	}
	article.Sort(out, article.SortDateDesc)

	return out, nil
}

func (l *Library) searchIndex(id string) int {
	return slices.IndexFunc(l.searches, func(s SearchConfig) bool { return s.ID == id })
}
