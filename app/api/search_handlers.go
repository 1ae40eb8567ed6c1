package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-buckets/app/library"
)

func (h *Handler) ListSearches(c *gin.Context) {
	searches := h.library.SearchConfigs()

	c.JSON(http.StatusOK, gin.H{
		"searches": searches,
		"total":    len(searches),
	})
}

func (h *Handler) SaveSearch(c *gin.Context) {
	var req library.SearchConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	saved, err := h.library.SaveSearchConfig(req)
	if err != nil {
		respondError(c, "save_search", err, http.StatusBadRequest)
		return
	}

	if !h.persist(c, "save_search") {
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (h *Handler) RemoveSearch(c *gin.Context) {
	if err := h.library.RemoveSearchConfig(c.Param("id")); err != nil {
		respondError(c, "remove_search", err, http.StatusInternalServerError)
		return
	}

	if !h.persist(c, "remove_search") {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) RunSearch(c *gin.Context) {
	articles, err := h.library.RunSearchConfig(c.Param("id"))
	if err != nil {
		respondError(c, "run_search", err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    len(articles),
	})
}
