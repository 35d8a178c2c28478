package analytics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/skistats/fis-analytics/internal/models"
)

// FieldMeasures extracts the performance measures of the valid (scored)
// results in a race field. DNF/DSQ/DNS rows are excluded from the statistic
// but remain part of the raw result set.
func FieldMeasures(field []models.RaceResult) []float64 {
	measures := make([]float64, 0, len(field))
	for i := range field {
		if field[i].FISPoints != nil {
			measures = append(measures, *field[i].FISPoints)
		}
	}
	return measures
}

// ComputeFieldStatistics computes the mean and population standard deviation
// of the performance measure across all valid results in one race. A field
// with fewer than two valid results has no defined distribution and returns
// ErrInsufficientField; callers must never substitute a sentinel.
func ComputeFieldStatistics(raceID string, field []models.RaceResult) (FieldStatistics, error) {
	measures := FieldMeasures(field)
	if len(measures) < 2 {
		return FieldStatistics{}, ErrInsufficientField
	}

	mean := stat.Mean(measures, nil)
	std := stat.PopStdDev(measures, nil)

	return FieldStatistics{
		RaceID: raceID,
		Mean:   mean,
		StdDev: std,
		N:      len(measures),
	}, nil
}
