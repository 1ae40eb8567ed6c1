package library

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/bucket"
)

func (l *Library) Buckets() []bucket.Bucket {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneBuckets(l.buckets)
}

func (l *Library) Bucket(id string) (bucket.Bucket, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.bucketIndex(id)
	if i < 0 {
		return bucket.Bucket{}, fmt.Errorf("%w: %s", ErrBucketNotFound, id)
	}
	return cloneBuckets(l.buckets[i : i+1])[0], nil
}

// AddBucket stores a new bucket, generating an id when none is given.
func (l *Library) AddBucket(b bucket.Bucket) (bucket.Bucket, error) {
	if err := b.Validate(); err != nil {
		return bucket.Bucket{}, err
	}
	b.Keywords = slices.Clone(b.Keywords)

	l.mu.Lock()
	defer l.mu.Unlock()

	if b.ID == "" {
		b.ID = l.newID()
	} else if l.bucketIndex(b.ID) >= 0 {
		return bucket.Bucket{}, fmt.Errorf("%w: id %s is already taken", bucket.ErrInvalidBucket, b.ID)
	}

	l.buckets = append(l.buckets, b)
	slog.Info("Bucket added", "bucket_id", b.ID, "name", b.Name)

	return b, nil
}

// UpdateBucket replaces a bucket's definition. Articles matched by the old
// rule are assigned first, so an edit never takes an article out of a
// bucket; only RemoveItemFromBucket does that.
func (l *Library) UpdateBucket(id string, b bucket.Bucket) (bucket.Bucket, error) {
	if err := b.Validate(); err != nil {
		return bucket.Bucket{}, err
	}
	b.ID = id
	b.Keywords = slices.Clone(b.Keywords)

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.bucketIndex(id)
	if i < 0 {
		return bucket.Bucket{}, fmt.Errorf("%w: %s", ErrBucketNotFound, id)
	}

	added := bucket.MaterializeAssignments(l.articles, l.buckets[i:i+1])
	l.buckets[i] = b

	slog.Info("Bucket updated", "bucket_id", id, "name", b.Name, "kept_assignments", added)

	return b, nil
}

// RemoveBucket deletes the bucket and every assignment to it.
func (l *Library) RemoveBucket(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.bucketIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, id)
	}

	l.buckets = slices.Delete(l.buckets, i, i+1)
	for j := range l.articles {
		l.articles[j].RemoveBucket(id)
	}

	slog.Info("Bucket removed", "bucket_id", id)

	return nil
}

// SyncBuckets upserts bucket definitions loaded from rule files. Unchanged
// definitions are skipped. Buckets created through the API are left alone.
func (l *Library) SyncBuckets(defs []bucket.Bucket) (int, error) {
	synced := 0
	for _, def := range defs {
		var err error
		if current, lookupErr := l.Bucket(def.ID); lookupErr == nil {
			if unchanged(&current, def) {
				synced++
				continue
			}
			_, err = l.UpdateBucket(def.ID, def)
		} else {
			_, err = l.AddBucket(def)
		}
		if err != nil {
			return synced, fmt.Errorf("failed to sync bucket %s: %w", def.ID, err)
		}
		synced++
	}
	return synced, nil
}

func unchanged(current *bucket.Bucket, def bucket.Bucket) bool {
	if err := def.Validate(); err != nil {
		return false
	}
	return current.Equal(&def)
}

// ItemsForBucket is the read-only bucket view: recorded assignments plus
// current rule matches. Nothing is written.
func (l *Library) ItemsForBucket(id string) ([]article.Article, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.bucketIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, id)
	}
	return bucket.ItemsForBucket(&l.buckets[i], l.articles), nil
}

// MaterializeAssignments records every current match of every bucket and
// returns the number of new assignments.
func (l *Library) MaterializeAssignments() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := bucket.MaterializeAssignments(l.articles, l.buckets)
	if added > 0 {
		slog.Info("Bucket assignments recorded", "added", added)
	}
	return added
}

// ViewBucket records the bucket's current matches and then returns its
// articles, so anything seen in the bucket once stays there.
func (l *Library) ViewBucket(id string) ([]article.Article, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.bucketIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, id)
	}

	bucket.MaterializeAssignments(l.articles, l.buckets[i:i+1])
	return bucket.ItemsForBucket(&l.buckets[i], l.articles), nil
}

func (l *Library) AssignItemToBucket(articleID, bucketID string) error {
	return l.updateAssignment(articleID, bucketID, func(a *article.Article) { a.AddBucket(bucketID) })
}

func (l *Library) RemoveItemFromBucket(articleID, bucketID string) error {
	return l.updateAssignment(articleID, bucketID, func(a *article.Article) { a.RemoveBucket(bucketID) })
}

func (l *Library) updateAssignment(articleID, bucketID string, update func(a *article.Article)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bucketIndex(bucketID) < 0 {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucketID)
	}
	i := l.articleIndex(articleID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrArticleNotFound, articleID)
	}

	update(&l.articles[i])
	return nil
}

func (l *Library) bucketIndex(id string) int {
	return slices.IndexFunc(l.buckets, func(b bucket.Bucket) bool { return b.ID == id })
}
