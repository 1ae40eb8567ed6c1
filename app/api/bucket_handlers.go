package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-buckets/app/article"
	"github.com/lysyi3m/rss-buckets/app/feed"
	"github.com/lysyi3m/rss-buckets/app/tasks"
)

func (h *Handler) ListBuckets(c *gin.Context) {
	buckets := h.library.Buckets()

	c.JSON(http.StatusOK, gin.H{
		"buckets": buckets,
		"total":   len(buckets),
	})
}

func (h *Handler) AddBucket(c *gin.Context) {
	var req bucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	b, err := h.library.AddBucket(req.Bucket())
	if err != nil {
		respondError(c, "add_bucket", err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, "add_bucket") {
		return
	}

	c.JSON(http.StatusCreated, b)
}

func (h *Handler) UpdateBucket(c *gin.Context) {
	var req bucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	b, err := h.library.UpdateBucket(c.Param("id"), req.Bucket())
	if err != nil {
		respondError(c, "update_bucket", err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, "update_bucket") {
		return
	}

	c.JSON(http.StatusOK, b)
}

func (h *Handler) RemoveBucket(c *gin.Context) {
	if err := h.library.RemoveBucket(c.Param("id")); err != nil {
		respondError(c, "remove_bucket", err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, "remove_bucket") {
		return
	}

	c.Status(http.StatusNoContent)
}

// ViewBucket lists a bucket's articles and records any rule matches as
// assignments, so they stay in the bucket after the rule changes.
func (h *Handler) ViewBucket(c *gin.Context) {
	articles, err := h.library.ViewBucket(c.Param("id"))
	if err != nil {
		respondError(c, "view_bucket", err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, "view_bucket") {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    len(articles),
	})
}

func (h *Handler) AssignArticle(c *gin.Context) {
	if err := h.library.AssignItemToBucket(c.Param("articleId"), c.Param("id")); err != nil {
		respondError(c, "assign_article", err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, "assign_article") {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) UnassignArticle(c *gin.Context) {
	if err := h.library.RemoveItemFromBucket(c.Param("articleId"), c.Param("id")); err != nil {
		respondError(c, "unassign_article", err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, "unassign_article") {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) MaterializeAssignments(c *gin.Context) {
	assigned := h.library.MaterializeAssignments()

	if assigned > 0 && !h.persist(c, "materialize") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"assigned": assigned})
}

// ReloadBuckets re-reads the bucket rule files in the background and
// materializes the reloaded rules afterwards.
func (h *Handler) ReloadBuckets(c *gin.Context) {
	if h.bucketSource == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No bucket rule directory configured"})
		return
	}

	syncTask := tasks.NewSyncBucketsTask(h.library, h.bucketSource)
	if err := h.enqueue(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	materializeTask := tasks.NewMaterializeTask(h.library)
	if err := h.enqueue(materializeTask); err != nil {
		slog.Error("Error enqueueing materialize task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue materialize task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Bucket reload enqueued",
		"tasks": gin.H{
			"sync":        syncTask.GetID(),
			"materialize": materializeTask.GetID(),
		},
	})
}

// GetBucketFeed serves a bucket's articles as RSS, newest first. It is public
// so feed readers can subscribe to it.
func (h *Handler) GetBucketFeed(c *gin.Context) {
	id := c.Param("id")

	b, err := h.library.Bucket(id)
	if err != nil {
		c.Status(statusFor(err, http.StatusInternalServerError))
		return
	}

	articles, err := h.library.ItemsForBucket(id)
	if err != nil {
		c.Status(statusFor(err, http.StatusInternalServerError))
		return
	}
	article.Sort(articles, article.SortDateDesc)

	rss, err := h.generator.Run(feed.Channel{
		Title:       b.Name,
		Link:        h.baseURL,
		Description: fmt.Sprintf("Articles in bucket %s", b.Name),
		SelfLink:    h.baseURL + "/buckets/" + id + "/rss",
		Generator:   "RSS-Buckets/" + h.version,
	}, articles)
	if err != nil {
		slog.Error("RSS generation error", "bucket", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(articles)))
	c.Header("X-Bucket-ID", id)

	c.String(http.StatusOK, rss)
}
