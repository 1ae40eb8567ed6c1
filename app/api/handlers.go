package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-buckets/app/bucket"
	"github.com/lysyi3m/rss-buckets/app/feed"
	"github.com/lysyi3m/rss-buckets/app/library"
	"github.com/lysyi3m/rss-buckets/app/tasks"
)

func NewHandler(lib *library.Library, bucketSource tasks.BucketSource,
	scheduler tasks.TaskSchedulerInterface, baseURL, version string) *Handler {
	return &Handler{
		library:      lib,
		bucketSource: bucketSource,
		scheduler:    scheduler,
		generator:    feed.NewGenerator(),
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		version:      version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"feeds":     len(h.library.Feeds()),
		"articles":  len(h.library.Articles()),
		"buckets":   len(h.library.Buckets()),
	}

	if h.bucketSource != nil {
		health["loaded_configurations"] = len(h.bucketSource.Buckets())
	}

	if lastRefresh := h.library.LastRefresh(); !lastRefresh.IsZero() {
		health["last_refresh"] = lastRefresh.In(time.Local).Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetRoot(authRequired bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":          "rss-buckets",
			"version":       h.version,
			"auth_required": authRequired,
			"endpoints": []string{
				"/health",
				"/buckets/:id/rss",
				"/api/feeds",
				"/api/articles",
				"/api/buckets",
				"/api/searches",
				"/api/settings/auto-refresh",
				"/api/export",
			},
		})
	}
}

func (h *Handler) GetAutoRefresh(c *gin.Context) {
	c.JSON(http.StatusOK, h.library.AutoRefresh())
}

func (h *Handler) SetAutoRefresh(c *gin.Context) {
	var req library.AutoRefreshConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cfg, err := h.library.SetAutoRefresh(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.persist(c, "set_auto_refresh") {
		return
	}

	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) Export(c *gin.Context) {
	fileName := library.ExportFileName(time.Now())

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.JSON(http.StatusOK, h.library.Export())
}

func (h *Handler) Reset(c *gin.Context) {
	h.library.Reset()

	if !h.persist(c, "reset") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// persist saves the library after a mutation. On failure it writes the error
// response and returns false.
func (h *Handler) persist(c *gin.Context, operation string) bool {
	if err := h.library.Save(c.Request.Context()); err != nil {
		slog.Error("Database error", "operation", operation, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save library", "details": err.Error()})
		return false
	}
	return true
}

func (h *Handler) enqueue(task tasks.TaskInterface) error {
	if h.scheduler == nil {
		return errors.New("scheduler is not running")
	}
	return h.scheduler.EnqueueTask(task)
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, feed.ErrInvalidURL), errors.Is(err, bucket.ErrInvalidBucket):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrFeedNotFound),
		errors.Is(err, library.ErrArticleNotFound),
		errors.Is(err, library.ErrBucketNotFound),
		errors.Is(err, library.ErrSearchNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrFeedExists):
		return http.StatusConflict
	case errors.Is(err, feed.ErrEmptyFeed):
		return http.StatusBadGateway
	default:
		return fallback
	}
}

func respondError(c *gin.Context, operation string, err error, fallback int) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "error", err)
	} else {
		slog.Debug("Request rejected", "operation", operation, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func queryBool(c *gin.Context, name string, def bool) bool {
	value, ok := c.GetQuery(name)
	if !ok || value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
