package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aggregate kinds stored by the precomputer. One redis key per
// (kind, athlete) pair so the orchestrator can fetch exactly the
// statistic a request needs.
const (
	AggregateZScores          = "zscores"
	AggregateStrokesGained    = "strokes_gained"
	AggregateStrokesGainedBib = "strokes_gained_bib"
	AggregateRegression       = "regression"
	AggregateCourseTraits     = "course_traits"
	AggregateMomentum         = "momentum"
	AggregateProfile          = "profile"
)

// ErrCacheMiss is returned when no precomputed aggregate exists for a key.
// A miss is routine, not a failure: callers fall back to live computation.
var ErrCacheMiss = errors.New("aggregate not in cache")

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    ttl,
	}
}

func AggregateKey(kind, athleteID string) string {
	return fmt.Sprintf("agg:%s:%s", kind, athleteID)
}

const refreshedAtKey = "agg:refreshed_at"

func (s *CacheService) SetAggregate(ctx context.Context, kind, athleteID string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}

	if err := s.client.Set(ctx, AggregateKey(kind, athleteID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set aggregate: %w", err)
	}

	return nil
}

func (s *CacheService) GetAggregate(ctx context.Context, kind, athleteID string, dest interface{}) error {
	data, err := s.client.Get(ctx, AggregateKey(kind, athleteID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get aggregate: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal aggregate: %w", err)
	}

	return nil
}

func (s *CacheService) DeleteAggregates(ctx context.Context, athleteID string, kinds ...string) error {
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, AggregateKey(kind, athleteID))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete aggregates: %w", err)
	}
	return nil
}

// MarkRefreshed records the completion time of a full precompute pass.
func (s *CacheService) MarkRefreshed(ctx context.Context, at time.Time) error {
	if err := s.client.Set(ctx, refreshedAtKey, at.UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("failed to mark refresh: %w", err)
	}
	return nil
}

// RefreshedAt returns the completion time of the last full precompute pass,
// or the zero time if no pass has completed yet.
func (s *CacheService) RefreshedAt(ctx context.Context) (time.Time, error) {
	data, err := s.client.Get(ctx, refreshedAtKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get refresh time: %w", err)
	}

	at, err := time.Parse(time.RFC3339, data)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse refresh time: %w", err)
	}
	return at, nil
}

func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
