package analytics

import (
	"github.com/skistats/fis-analytics/internal/models"
)

// ZScore expresses one performance measure relative to its field. FIS points
// are lower-is-better, so the difference is taken as (mean - measure): the
// result is already sign-adjusted and positive always means better than the
// field. A zero-spread field has no defined z-score.
func ZScore(measure float64, fs FieldStatistics) (float64, error) {
	if fs.N < 2 || fs.StdDev == 0 {
		return 0, ErrInsufficientField
	}
	return (fs.Mean - measure) / fs.StdDev, nil
}

// ResultZScore computes the z-score record for one scored result against its
// race field statistics.
func ResultZScore(result models.RaceResult, fs FieldStatistics) (ZScoreRecord, error) {
	if result.FISPoints == nil {
		return ZScoreRecord{}, ErrInsufficientField
	}
	z, err := ZScore(*result.FISPoints, fs)
	if err != nil {
		return ZScoreRecord{}, err
	}
	return ZScoreRecord{
		RaceID:     result.RaceID,
		Date:       result.Date,
		Discipline: result.Discipline,
		Location:   result.Location,
		Rank:       result.Rank,
		FISPoints:  *result.FISPoints,
		ZScore:     z,
	}, nil
}
