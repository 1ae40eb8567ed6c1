package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-buckets/app/tasks"
)

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds := h.library.Feeds()

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) AddFeed(c *gin.Context) {
	var req addFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	f, result, err := h.library.AddFeed(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, "add_feed", err, http.StatusBadGateway)
		return
	}

	if !h.persist(c, "add_feed") {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"feed":   f,
		"result": newRefreshResponse(result),
	})
}

func (h *Handler) RemoveFeed(c *gin.Context) {
	id := c.Param("id")

	if err := h.library.RemoveFeed(id); err != nil {
		respondError(c, "remove_feed", err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, "remove_feed") {
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshFeed refetches one feed. With async=true the refresh is queued on
// the scheduler instead and the task id is returned.
func (h *Handler) RefreshFeed(c *gin.Context) {
	id := c.Param("id")

	if queryBool(c, "async", false) {
		if _, err := h.library.Feed(id); err != nil {
			respondError(c, "refresh_feed", err, http.StatusInternalServerError)
			return
		}
		h.enqueueRefresh(c, tasks.NewRefreshFeedTask(id, h.library))
		return
	}

	result, err := h.library.UpdateFeed(c.Request.Context(), id)
	if err != nil {
		respondError(c, "refresh_feed", err, http.StatusBadGateway)
		return
	}

	if !h.persist(c, "refresh_feed") {
		return
	}

	c.JSON(http.StatusOK, newRefreshResponse(result))
}

func (h *Handler) RefreshFeeds(c *gin.Context) {
	if queryBool(c, "async", false) {
		h.enqueueRefresh(c, tasks.NewRefreshFeedsTask(h.library))
		return
	}

	results := h.library.UpdateFeeds(c.Request.Context())

	if !h.persist(c, "refresh_feeds") {
		return
	}

	failed := 0
	response := make([]refreshResponse, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		response = append(response, newRefreshResponse(r))
	}

	c.JSON(http.StatusOK, gin.H{
		"results": response,
		"total":   len(response),
		"failed":  failed,
	})
}

func (h *Handler) IngestItems(c *gin.Context) {
	id := c.Param("id")

	var req ingestItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.library.IngestItems(id, req.Items)
	if err != nil {
		respondError(c, "ingest_items", err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, "ingest_items") {
		return
	}

	c.JSON(http.StatusOK, newRefreshResponse(result))
}

func (h *Handler) ImportOPML(c *gin.Context) {
	result, err := h.library.ImportOPML(c.Request.Context(), c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OPML document", "details": err.Error()})
		return
	}

	if result.Imported > 0 && !h.persist(c, "import_opml") {
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) enqueueRefresh(c *gin.Context, task tasks.TaskInterface) {
	if err := h.enqueue(task); err != nil {
		slog.Error("Error enqueueing refresh task", "type", task.GetType(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue refresh task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Refresh enqueued",
		"task_id": task.GetID(),
	})
}
