package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skistats/fis-analytics/internal/analytics"
	"github.com/skistats/fis-analytics/internal/models"
	"github.com/skistats/fis-analytics/internal/services"
	"github.com/skistats/fis-analytics/internal/store"
)

// stubStore serves a fixed result set regardless of filters; enough to
// drive the handlers end to end.
type stubStore struct {
	results []models.RaceResult
}

func (s *stubStore) AthleteResults(_ context.Context, athleteID string, f store.Filter) ([]models.RaceResult, error) {
	var out []models.RaceResult
	for i := range s.results {
		if s.results[i].AthleteID == athleteID {
			out = append(out, s.results[i])
		}
	}
	return out, nil
}

func (s *stubStore) RaceField(_ context.Context, raceID string) ([]models.RaceResult, error) {
	var out []models.RaceResult
	for i := range s.results {
		if s.results[i].RaceID == raceID {
			out = append(out, s.results[i])
		}
	}
	return out, nil
}

func (s *stubStore) RaceFields(ctx context.Context, raceIDs []string) (map[string][]models.RaceResult, error) {
	fields := make(map[string][]models.RaceResult)
	for _, raceID := range raceIDs {
		field, _ := s.RaceField(ctx, raceID)
		if len(field) > 0 {
			fields[raceID] = field
		}
	}
	return fields, nil
}

func (s *stubStore) Races(_ context.Context, raceIDs []string) (map[string]models.Race, error) {
	return map[string]models.Race{}, nil
}

func (s *stubStore) CourseTraitValues(_ context.Context) (map[string][]float64, error) {
	return map[string][]float64{}, nil
}

func (s *stubStore) AthleteIDs(_ context.Context) ([]string, error) {
	return []string{"A1"}, nil
}

// missCache always misses so every request takes the live path.
type missCache struct{}

func (missCache) GetAggregate(context.Context, string, string, interface{}) error {
	return services.ErrCacheMiss
}
func (missCache) SetAggregate(context.Context, string, string, interface{}) error { return nil }

func (missCache) MarkRefreshed(context.Context, time.Time) error { return nil }

func (missCache) RefreshedAt(context.Context) (time.Time, error) { return time.Time{}, nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fp := func(v float64) *float64 { return &v }
	ip := func(v int) *int { return &v }
	date := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

	st := &stubStore{results: []models.RaceResult{
		{AthleteID: "A1", AthleteName: "Test Athlete", RaceID: "R1", Discipline: models.DisciplineSlalom, Date: date, Rank: ip(1), Bib: ip(3), FISPoints: fp(5), Location: "Levi"},
		{AthleteID: "B1", RaceID: "R1", Discipline: models.DisciplineSlalom, Date: date, Rank: ip(2), Bib: ip(7), FISPoints: fp(9), Location: "Levi"},
		{AthleteID: "C1", RaceID: "R1", Discipline: models.DisciplineSlalom, Date: date, Rank: ip(3), Bib: ip(11), FISPoints: fp(13), Location: "Levi"},
	}}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	orchestrator := services.NewOrchestrator(st, missCache{}, analytics.NewEngine(), logger)

	router := gin.New()
	athleteHandler := NewAthleteHandler(orchestrator, logger)
	raceHandler := NewRaceHandler(orchestrator, logger)
	router.GET("/athletes/:id", athleteHandler.GetProfile)
	router.GET("/athletes/:id/races", athleteHandler.GetRaces)
	router.GET("/athletes/:id/strokes-gained", athleteHandler.GetStrokesGained)
	router.GET("/athletes/:id/regression", athleteHandler.GetRegression)
	router.GET("/athletes/:id/momentum", athleteHandler.GetMomentum)
	router.GET("/races/:raceId/field-stats", raceHandler.GetFieldStats)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestGetProfile(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/athletes/A1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "live", body["source"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Test Athlete", data["name"])
	assert.Equal(t, "Elite", data["tier"])
}

func TestGetProfileNotFound(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/athletes/nobody")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestGetRaces(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/athletes/A1/races")
	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
}

func TestGetRacesInvalidDiscipline(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/athletes/A1/races?discipline=XX")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
}

func TestGetRacesInvalidYear(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doRequest(t, router, "/athletes/A1/races?year=24")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, router, "/athletes/A1/races?year=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRacesInvalidLimit(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doRequest(t, router, "/athletes/A1/races?limit=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStrokesGained(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/athletes/A1/strokes-gained")
	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	records := data["records"].([]interface{})
	require.Len(t, records, 1)
	rec := records[0].(map[string]interface{})
	assert.InDelta(t, 4.0, rec["strokes_gained"].(float64), 1e-9)
}

func TestGetRegressionInsufficientSample(t *testing.T) {
	router := newTestRouter(t)

	// One race is far below the regression minimum.
	w, body := doRequest(t, router, "/athletes/A1/regression")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_DATA", errBody["code"])
}

func TestGetMomentum(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/athletes/A1/momentum")
	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "hot", data["trend"])
}

func TestGetFieldStats(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/races/R1/field-stats")
	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.InDelta(t, 9.0, data["mean"].(float64), 1e-9)
	assert.Equal(t, float64(3), data["n"])

	w, _ = doRequest(t, router, "/races/R404/field-stats")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
