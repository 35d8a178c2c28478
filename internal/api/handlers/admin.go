package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/skistats/fis-analytics/internal/services"
	"github.com/skistats/fis-analytics/pkg/utils"
)

// AdminHandler exposes the manual refresh trigger and refresh-run audit.
type AdminHandler struct {
	precomputer *services.Precomputer
	logger      *logrus.Logger
}

func NewAdminHandler(precomputer *services.Precomputer, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		precomputer: precomputer,
		logger:      logger,
	}
}

// TriggerRefresh starts a full aggregate rebuild in the background and
// returns immediately; progress lands in the refresh-run audit table.
func (h *AdminHandler) TriggerRefresh(c *gin.Context) {
	go func() {
		if _, err := h.precomputer.RefreshAll(context.Background()); err != nil {
			h.logger.WithError(err).Error("Manual aggregate refresh failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status": "refresh started",
	})
}

// GetLatestRefresh returns the most recent refresh-run audit row.
func (h *AdminHandler) GetLatestRefresh(c *gin.Context) {
	run, err := h.precomputer.LatestRun(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load refresh run")
		utils.SendInternalError(c, "Failed to load refresh run")
		return
	}
	if run == nil {
		utils.SendNotFound(c, "No refresh has run yet")
		return
	}
	utils.SendSuccess(c, run)
}
