// Package store is the result-store boundary: read-only, filtered access to
// the historical race-result table. The analytics layer never mutates it.
package store

import (
	"context"

	"github.com/skistats/fis-analytics/internal/models"
)

// Filter narrows a result scan. Discipline is an exact match; Year restricts
// to races dated in that calendar year; Limit caps the newest-first result
// count (0 = no cap).
type Filter struct {
	Discipline string
	Year       *int
	Limit      int
}

// ResultStore exposes the scan operations the analytics need. All methods
// are read-only and safe for concurrent use.
type ResultStore interface {
	// AthleteResults returns the athlete's results matching the filter,
	// newest first.
	AthleteResults(ctx context.Context, athleteID string, f Filter) ([]models.RaceResult, error)

	// RaceField returns every result in one race, the comparison
	// population for field statistics.
	RaceField(ctx context.Context, raceID string) ([]models.RaceResult, error)

	// RaceFields returns the full field for each of the given races in
	// one scan.
	RaceFields(ctx context.Context, raceIDs []string) (map[string][]models.RaceResult, error)

	// Races returns race rows with their course characteristics preloaded.
	Races(ctx context.Context, raceIDs []string) (map[string]models.Race, error)

	// CourseTraitValues returns, per trait, every known value across the
	// ENTIRE course population. Quintile boundaries are computed from
	// this, independent of any athlete or filter.
	CourseTraitValues(ctx context.Context) (map[string][]float64, error)

	// AthleteIDs lists every athlete with at least one result, for the
	// aggregate precomputer.
	AthleteIDs(ctx context.Context) ([]string, error)
}
