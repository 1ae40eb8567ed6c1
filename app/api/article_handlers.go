package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/library"
)

// ListArticles searches the library. Query parameters: q, title, body,
// bucket, bookmarked and sort.
func (h *Handler) ListArticles(c *gin.Context) {
	query := library.Query{
		Text:           c.Query("q"),
		InTitle:        queryBool(c, "title", true),
		InBody:         queryBool(c, "body", true),
		BucketID:       c.Query("bucket"),
		BookmarkedOnly: queryBool(c, "bookmarked", false),
		Sort:           article.ParseSortOption(c.Query("sort")),
	}

	articles, err := h.library.Search(query)
	if err != nil {
		respondError(c, "list_articles", err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    len(articles),
	})
}

func (h *Handler) GetArticle(c *gin.Context) {
	a, err := h.library.Article(c.Param("id"))
	if err != nil {
		respondError(c, "get_article", err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *Handler) ToggleRead(c *gin.Context) {
	h.toggle(c, "toggle_read", h.library.ToggleRead)
}

func (h *Handler) ToggleBookmark(c *gin.Context) {
	h.toggle(c, "toggle_bookmark", h.library.ToggleBookmark)
}

func (h *Handler) toggle(c *gin.Context, operation string, fn func(id string) (article.Article, error)) {
	a, err := fn(c.Param("id"))
	if err != nil {
		respondError(c, operation, err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, operation) {
		return
	}

	c.JSON(http.StatusOK, a)
}
