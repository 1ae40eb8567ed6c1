package bucket

import (
	"log/slog"

	"github.com/lysyi3m/rss-buckets/app/article"
)

// Compiled pairs a bucket with its compiled rule so the keywords are built
// once per classification pass.
type Compiled struct {
	Bucket *Bucket
	Rule   *Rule
}

// Compile builds the bucket's rule and reports invalid patterns. A bad
// pattern only disables that keyword; the rest of the bucket still applies.
func Compile(b *Bucket) *Compiled {
	rule := NewRule(b.Keywords, b.Operator, b.UseRegex, b.CaseSensitive)
	for _, k := range rule.Invalid() {
		slog.Warn("Invalid bucket keyword pattern, treating as non-match",
			"bucket", b.ID, "keyword", k.Source, "error", k.Err)
	}
	return &Compiled{Bucket: b, Rule: rule}
}

// Surface builds the text a bucket is matched against: the title followed by
// a space when the title is searched, then the body when the body is searched.
func Surface(a *article.Article, b *Bucket) string {
	var text string
	if b.SearchInTitle {
		text += a.Title + " "
	}
	if b.SearchInBody {
		text += a.Content
	}
	return text
}

// Match classifies a single article without touching it.
func (c *Compiled) Match(a *article.Article) bool {
	if !c.Bucket.SearchInTitle && !c.Bucket.SearchInBody {
		return false
	}
	if c.Rule.Empty() {
		return false
	}
	return c.Rule.Match(Surface(a, c.Bucket))
}

// Classify reports whether the bucket's rule currently matches the article.
func Classify(a *article.Article, b *Bucket) bool {
	return Compile(b).Match(a)
}

// ItemsForBucket returns the articles already assigned to the bucket or
// matched by its rule. It never modifies the articles.
func ItemsForBucket(b *Bucket, articles []article.Article) []article.Article {
	c := Compile(b)
	out := make([]article.Article, 0)
	for i := range articles {
		a := &articles[i]
		if a.HasBucket(b.ID) || c.Match(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// MaterializeAssignments records every current rule match in the matching
// article's bucket ids. Assignments are only ever added here; removing one
// takes an explicit manual action. It returns the number of new assignments.
func MaterializeAssignments(articles []article.Article, buckets []Bucket) int {
	added := 0
	for i := range buckets {
		c := Compile(&buckets[i])
		for j := range articles {
			a := &articles[j]
			if a.HasBucket(c.Bucket.ID) {
				continue
			}
			if c.Match(a) && a.AddBucket(c.Bucket.ID) {
				added++
			}
		}
	}
	return added
}
