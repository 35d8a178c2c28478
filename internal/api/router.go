package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/skistats/fis-analytics/internal/api/handlers"
	"github.com/skistats/fis-analytics/internal/services"
)

// SetupRoutes registers the analytics API on the given router group.
func SetupRoutes(group *gin.RouterGroup, orchestrator *services.Orchestrator, precomputer *services.Precomputer, logger *logrus.Logger) {
	athleteHandler := handlers.NewAthleteHandler(orchestrator, logger)
	raceHandler := handlers.NewRaceHandler(orchestrator, logger)
	adminHandler := handlers.NewAdminHandler(precomputer, logger)

	// Race endpoints
	group.GET("/races/:raceId/field-stats", raceHandler.GetFieldStats)

	// Athlete analytics endpoints
	group.GET("/athletes/:id", athleteHandler.GetProfile)
	group.GET("/athletes/:id/races", athleteHandler.GetRaces)
	group.GET("/athletes/:id/strokes-gained", athleteHandler.GetStrokesGained)
	group.GET("/athletes/:id/strokes-gained-bib", athleteHandler.GetStrokesGainedBib)
	group.GET("/athletes/:id/regression", athleteHandler.GetRegression)
	group.GET("/athletes/:id/course-traits", athleteHandler.GetCourseTraits)
	group.GET("/athletes/:id/momentum", athleteHandler.GetMomentum)
	group.GET("/athletes/:id/courses", athleteHandler.GetCoursePerformance)

	// Admin endpoints (should sit behind ingress auth in production)
	group.POST("/admin/refresh", adminHandler.TriggerRefresh)
	group.GET("/admin/refresh/latest", adminHandler.GetLatestRefresh)
}
