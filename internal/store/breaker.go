package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/skistats/fis-analytics/internal/models"
)

// BreakerStore wraps a ResultStore with circuit breaker protection so a
// struggling database fails fast instead of piling up blocked requests.
type BreakerStore struct {
	inner   ResultStore
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

func NewBreakerStore(inner ResultStore, threshold int, timeout time.Duration, logger *logrus.Logger) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        "result-store",
		MaxRequests: uint32(threshold),
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"store":     name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &BreakerStore{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// State exposes the breaker state for health reporting.
func (s *BreakerStore) State() gobreaker.State {
	return s.breaker.State()
}

func (s *BreakerStore) AthleteResults(ctx context.Context, athleteID string, f Filter) ([]models.RaceResult, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.AthleteResults(ctx, athleteID, f)
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.RaceResult), nil
}

func (s *BreakerStore) RaceField(ctx context.Context, raceID string) ([]models.RaceResult, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.RaceField(ctx, raceID)
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.RaceResult), nil
}

func (s *BreakerStore) RaceFields(ctx context.Context, raceIDs []string) (map[string][]models.RaceResult, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.RaceFields(ctx, raceIDs)
	})
	if err != nil {
		return nil, err
	}
	return out.(map[string][]models.RaceResult), nil
}

func (s *BreakerStore) Races(ctx context.Context, raceIDs []string) (map[string]models.Race, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.Races(ctx, raceIDs)
	})
	if err != nil {
		return nil, err
	}
	return out.(map[string]models.Race), nil
}

func (s *BreakerStore) CourseTraitValues(ctx context.Context) (map[string][]float64, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.CourseTraitValues(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.(map[string][]float64), nil
}

func (s *BreakerStore) AthleteIDs(ctx context.Context) ([]string, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.AthleteIDs(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}
