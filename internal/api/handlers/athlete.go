package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/skistats/fis-analytics/internal/analytics"
	"github.com/skistats/fis-analytics/internal/models"
	"github.com/skistats/fis-analytics/internal/services"
	"github.com/skistats/fis-analytics/internal/store"
	"github.com/skistats/fis-analytics/pkg/utils"
)

const maxSeriesLimit = 200

var validDisciplines = map[string]struct{}{
	models.DisciplineSlalom:      {},
	models.DisciplineGiantSlalom: {},
	models.DisciplineSuperG:      {},
	models.DisciplineDownhill:    {},
}

// AthleteHandler serves the per-athlete analytics endpoints.
type AthleteHandler struct {
	orchestrator *services.Orchestrator
	logger       *logrus.Logger
}

func NewAthleteHandler(orchestrator *services.Orchestrator, logger *logrus.Logger) *AthleteHandler {
	return &AthleteHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// parseFilter reads the shared discipline/year/limit query parameters.
// Returns false after writing the error response when a parameter is
// malformed.
func parseFilter(c *gin.Context) (store.Filter, bool) {
	var f store.Filter

	if discipline := c.Query("discipline"); discipline != "" {
		if _, ok := validDisciplines[discipline]; !ok {
			utils.SendValidationError(c, "Invalid discipline", "must be one of SL, GS, SG, DH")
			return f, false
		}
		f.Discipline = discipline
	}

	if yearParam := c.Query("year"); yearParam != "" {
		year, err := strconv.Atoi(yearParam)
		if err != nil || year < 1900 || year > 2100 {
			utils.SendValidationError(c, "Invalid year", "must be a four-digit calendar year")
			return f, false
		}
		f.Year = &year
	}

	if limitParam := c.Query("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 1 {
			utils.SendValidationError(c, "Invalid limit", "must be a positive integer")
			return f, false
		}
		if limit > maxSeriesLimit {
			limit = maxSeriesLimit
		}
		f.Limit = limit
	}

	return f, true
}

// sendAnalyticsError maps service and analytics errors onto the response
// taxonomy. Insufficient-data sentinels are 422s, not server failures.
func (h *AthleteHandler) sendAnalyticsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		utils.SendNotFound(c, "Athlete not found")
	case errors.Is(err, analytics.ErrInsufficientSample):
		utils.SendInsufficientData(c, "Not enough qualifying races for this statistic")
	case errors.Is(err, analytics.ErrInsufficientField):
		utils.SendInsufficientData(c, "Race fields too small to anchor this statistic")
	case errors.Is(err, analytics.ErrNoBibData):
		utils.SendInsufficientData(c, "No bib data recorded for this athlete")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		utils.SendStoreUnavailable(c, "Result store temporarily unavailable")
	default:
		h.logger.WithError(err).Error("Analytics request failed")
		utils.SendInternalError(c, "Failed to compute statistic")
	}
}

// GetProfile returns the athlete headline card: career counts, tier and
// momentum trend.
func (h *AthleteHandler) GetProfile(c *gin.Context) {
	profile, source, err := h.orchestrator.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendAnalyticsError(c, err)
		return
	}
	utils.SendSuccessFrom(c, profile, source)
}

// GetRaces returns the athlete's scored race history with per-race z-scores.
func (h *AthleteHandler) GetRaces(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}

	records, source, err := h.orchestrator.RaceHistory(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		h.sendAnalyticsError(c, err)
		return
	}
	utils.SendSuccessFrom(c, gin.H{
		"athlete_id": c.Param("id"),
		"races":      records,
		"count":      len(records),
	}, source)
}

// GetStrokesGained returns the plain strokes-gained series.
func (h *AthleteHandler) GetStrokesGained(c *gin.Context) {
	h.strokesGained(c, false)
}

// GetStrokesGainedBib returns the bib-adjusted strokes-gained series.
func (h *AthleteHandler) GetStrokesGainedBib(c *gin.Context) {
	h.strokesGained(c, true)
}

func (h *AthleteHandler) strokesGained(c *gin.Context, bibAdjusted bool) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}

	var (
		records []analytics.StrokesGainedRecord
		source  string
		err     error
	)
	if bibAdjusted {
		records, source, err = h.orchestrator.StrokesGainedBib(c.Request.Context(), c.Param("id"), f)
	} else {
		records, source, err = h.orchestrator.StrokesGained(c.Request.Context(), c.Param("id"), f)
	}
	if err != nil {
		h.sendAnalyticsError(c, err)
		return
	}
	utils.SendSuccessFrom(c, gin.H{
		"athlete_id": c.Param("id"),
		"records":    records,
		"count":      len(records),
	}, source)
}

// GetRegression returns the course-characteristic regression.
func (h *AthleteHandler) GetRegression(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}

	result, source, err := h.orchestrator.Regression(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		h.sendAnalyticsError(c, err)
		return
	}
	utils.SendSuccessFrom(c, result, source)
}

// GetCourseTraits returns the quintile breakdown by course characteristic.
func (h *AthleteHandler) GetCourseTraits(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}

	records, source, err := h.orchestrator.CourseTraits(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		h.sendAnalyticsError(c, err)
		return
	}
	utils.SendSuccessFrom(c, gin.H{
		"athlete_id": c.Param("id"),
		"quintiles":  records,
	}, source)
}

// GetMomentum returns the exponentially-weighted momentum series.
func (h *AthleteHandler) GetMomentum(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}

	records, source, err := h.orchestrator.Momentum(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		h.sendAnalyticsError(c, err)
		return
	}

	trend := analytics.TrendNeutral
	if len(records) > 0 {
		trend = records[len(records)-1].Trend
	}
	utils.SendSuccessFrom(c, gin.H{
		"athlete_id": c.Param("id"),
		"records":    records,
		"trend":      trend,
	}, source)
}

// GetCoursePerformance returns per-venue z-score aggregates.
func (h *AthleteHandler) GetCoursePerformance(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}

	minRaces := 3
	if minParam := c.Query("min_races"); minParam != "" {
		parsed, err := strconv.Atoi(minParam)
		if err != nil || parsed < 1 {
			utils.SendValidationError(c, "Invalid min_races", "must be a positive integer")
			return
		}
		minRaces = parsed
	}

	performances, err := h.orchestrator.CoursePerformance(c.Request.Context(), c.Param("id"), f.Discipline, minRaces)
	if err != nil {
		h.sendAnalyticsError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{
		"athlete_id": c.Param("id"),
		"locations":  performances,
		"min_races":  minRaces,
	})
}
