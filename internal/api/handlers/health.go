package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skistats/fis-analytics/internal/services"
	"github.com/skistats/fis-analytics/pkg/database"
)

type HealthHandler struct {
	db    *database.DB
	cache *services.CacheService
}

func NewHealthHandler(db *database.DB, cache *services.CacheService) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
	}
}

// GetHealth reports liveness plus dependency reachability and the age of
// the precomputed aggregates.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK

	dbStatus := "ok"
	if err := h.db.Ping(); err != nil {
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}

	cacheStatus := "ok"
	refreshedAt := ""
	if err := h.cache.Ping(ctx); err != nil {
		cacheStatus = "unreachable"
	} else if at, err := h.cache.RefreshedAt(ctx); err == nil && !at.IsZero() {
		refreshedAt = at.Format(time.RFC3339)
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":        overall,
		"service":       "fis-analytics",
		"time":          time.Now().UTC().Format(time.RFC3339),
		"database":      dbStatus,
		"cache":         cacheStatus,
		"aggregates_at": refreshedAt,
	})
}
