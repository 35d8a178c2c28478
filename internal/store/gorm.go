package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/skistats/fis-analytics/internal/analytics"
	"github.com/skistats/fis-analytics/internal/models"
)

// GormStore is the production ResultStore backed by the race-result tables.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) AthleteResults(ctx context.Context, athleteID string, f Filter) ([]models.RaceResult, error) {
	query := s.db.WithContext(ctx).
		Where("athlete_id = ?", athleteID)

	if f.Discipline != "" {
		query = query.Where("discipline = ?", f.Discipline)
	}
	if f.Year != nil {
		start := time.Date(*f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0)
		query = query.Where("date >= ? AND date < ?", start, end)
	}

	query = query.Order("date DESC")
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var results []models.RaceResult
	if err := query.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to scan athlete results: %w", err)
	}
	return results, nil
}

func (s *GormStore) RaceField(ctx context.Context, raceID string) ([]models.RaceResult, error) {
	var results []models.RaceResult
	err := s.db.WithContext(ctx).
		Where("race_id = ?", raceID).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan race field: %w", err)
	}
	return results, nil
}

func (s *GormStore) RaceFields(ctx context.Context, raceIDs []string) (map[string][]models.RaceResult, error) {
	if len(raceIDs) == 0 {
		return map[string][]models.RaceResult{}, nil
	}

	var results []models.RaceResult
	err := s.db.WithContext(ctx).
		Where("race_id IN ?", raceIDs).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan race fields: %w", err)
	}

	fields := make(map[string][]models.RaceResult, len(raceIDs))
	for i := range results {
		fields[results[i].RaceID] = append(fields[results[i].RaceID], results[i])
	}
	return fields, nil
}

func (s *GormStore) Races(ctx context.Context, raceIDs []string) (map[string]models.Race, error) {
	if len(raceIDs) == 0 {
		return map[string]models.Race{}, nil
	}

	var races []models.Race
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("race_id IN ?", raceIDs).
		Find(&races).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan races: %w", err)
	}

	byID := make(map[string]models.Race, len(races))
	for i := range races {
		byID[races[i].RaceID] = races[i]
	}
	return byID, nil
}

func (s *GormStore) CourseTraitValues(ctx context.Context) (map[string][]float64, error) {
	var courses []models.Course
	if err := s.db.WithContext(ctx).Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to scan courses: %w", err)
	}

	values := map[string][]float64{
		analytics.TraitVerticalDrop:  nil,
		analytics.TraitGateCount:     nil,
		analytics.TraitStartAltitude: nil,
	}
	for i := range courses {
		if v := courses[i].VerticalDrop; v != nil {
			values[analytics.TraitVerticalDrop] = append(values[analytics.TraitVerticalDrop], *v)
		}
		if v := courses[i].GateCount; v != nil {
			values[analytics.TraitGateCount] = append(values[analytics.TraitGateCount], *v)
		}
		if v := courses[i].StartAltitude; v != nil {
			values[analytics.TraitStartAltitude] = append(values[analytics.TraitStartAltitude], *v)
		}
	}
	return values, nil
}

func (s *GormStore) AthleteIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.RaceResult{}).
		Distinct("athlete_id").
		Pluck("athlete_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}
	return ids, nil
}
