package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/skistats/fis-analytics/internal/analytics"
	"github.com/skistats/fis-analytics/internal/services"
	"github.com/skistats/fis-analytics/pkg/utils"
)

// RaceHandler serves race-level endpoints.
type RaceHandler struct {
	orchestrator *services.Orchestrator
	logger       *logrus.Logger
}

func NewRaceHandler(orchestrator *services.Orchestrator, logger *logrus.Logger) *RaceHandler {
	return &RaceHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// GetFieldStats returns the field distribution for one race.
func (h *RaceHandler) GetFieldStats(c *gin.Context) {
	fs, err := h.orchestrator.FieldStats(c.Request.Context(), c.Param("raceId"))
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrNotFound):
			utils.SendNotFound(c, "Race not found")
		case errors.Is(err, analytics.ErrInsufficientField):
			utils.SendInsufficientData(c, "Fewer than two scored results in this race")
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			utils.SendStoreUnavailable(c, "Result store temporarily unavailable")
		default:
			h.logger.WithError(err).Error("Field stats request failed")
			utils.SendInternalError(c, "Failed to compute field statistics")
		}
		return
	}
	utils.SendSuccess(c, fs)
}
