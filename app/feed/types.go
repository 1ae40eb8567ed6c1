package feed

import (
	"errors"

	"github.com/lysyi3m/rss-buckets/app/article"
)

var (
	ErrInvalidURL = errors.New("invalid feed URL")
	ErrEmptyFeed  = errors.New("empty or unparseable feed response")
)

// Document is a parsed feed: channel metadata plus its raw items.
type Document struct {
	Title       string
	Link        string
	Description string
	Language    string
	ImageURL    string
	Items       []article.RawItem
}
