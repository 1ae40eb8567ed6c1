package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/", handler.GetRoot(apiAccessKey != ""))
	r.GET("/buckets/:id/rss", handler.GetBucketFeed)

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	api := r.Group("/api")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
		slog.Info("API endpoints enabled with authentication")
	} else {
		slog.Warn("API endpoints enabled without authentication (API_ACCESS_KEY not set)")
	}

	{
		api.GET("/feeds", handler.ListFeeds)
		api.POST("/feeds", handler.AddFeed)
		api.POST("/feeds/refresh", handler.RefreshFeeds)
		api.POST("/feeds/import", handler.ImportOPML)
		api.DELETE("/feeds/:id", handler.RemoveFeed)
		api.POST("/feeds/:id/refresh", handler.RefreshFeed)
		api.POST("/feeds/:id/items", handler.IngestItems)

		api.GET("/articles", handler.ListArticles)
		api.GET("/articles/:id", handler.GetArticle)
		api.POST("/articles/:id/read", handler.ToggleRead)
		api.POST("/articles/:id/bookmark", handler.ToggleBookmark)

		api.GET("/buckets", handler.ListBuckets)
		api.POST("/buckets", handler.AddBucket)
		api.POST("/buckets/reload", handler.ReloadBuckets)
		api.POST("/buckets/materialize", handler.MaterializeAssignments)
		api.PUT("/buckets/:id", handler.UpdateBucket)
		api.DELETE("/buckets/:id", handler.RemoveBucket)
		api.GET("/buckets/:id/articles", handler.ViewBucket)
		api.PUT("/buckets/:id/articles/:articleId", handler.AssignArticle)
		api.DELETE("/buckets/:id/articles/:articleId", handler.UnassignArticle)

		api.GET("/searches", handler.ListSearches)
		api.POST("/searches", handler.SaveSearch)
		api.DELETE("/searches/:id", handler.RemoveSearch)
		api.GET("/searches/:id/articles", handler.RunSearch)

		api.GET("/settings/auto-refresh", handler.GetAutoRefresh)
		api.PUT("/settings/auto-refresh", handler.SetAutoRefresh)

		api.GET("/export", handler.Export)
		api.POST("/reset", handler.Reset)
	}
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
