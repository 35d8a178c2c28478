package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/skistats/fis-analytics/internal/models"
)

// StrokesGained converts one scored result into advantage units over the
// field average: mean minus measure, so positive means the athlete beat the
// field. The percentile ranks the result's measure within the field on a
// 0-100 scale with ties resolved by rank averaging.
func StrokesGained(result models.RaceResult, fs FieldStatistics, field []models.RaceResult) (StrokesGainedRecord, error) {
	if result.FISPoints == nil {
		return StrokesGainedRecord{}, ErrInsufficientField
	}
	if fs.N < 2 {
		return StrokesGainedRecord{}, ErrInsufficientField
	}

	measures := FieldMeasures(field)

	return StrokesGainedRecord{
		RaceID:        result.RaceID,
		Date:          result.Date,
		Discipline:    result.Discipline,
		Location:      result.Location,
		Rank:          result.Rank,
		StrokesGained: fs.Mean - *result.FISPoints,
		Percentile:    fieldPercentile(*result.FISPoints, measures),
	}, nil
}

// BibAdjustedStrokesGained regresses finishing rank on start bib across the
// field, then reports the residual between the bib-expected rank and the
// actual rank as a signed bib advantage (positive = finished better than the
// start order predicted). Technical disciplines run worst-last, so an early
// bib is a real, measurable edge; this strips it out.
func (e *Engine) BibAdjustedStrokesGained(result models.RaceResult, field []models.RaceResult) (StrokesGainedRecord, error) {
	if result.Bib == nil {
		return StrokesGainedRecord{}, ErrNoBibData
	}
	if result.Rank == nil {
		return StrokesGainedRecord{}, ErrInsufficientField
	}

	var bibs, ranks []float64
	for i := range field {
		if field[i].Bib != nil && field[i].Rank != nil {
			bibs = append(bibs, float64(*field[i].Bib))
			ranks = append(ranks, float64(*field[i].Rank))
		}
	}
	if len(bibs) < e.MinBibFieldSize {
		return StrokesGainedRecord{}, ErrInsufficientField
	}

	intercept, slope := stat.LinearRegression(bibs, ranks, nil, false)

	expected := intercept + slope*float64(*result.Bib)
	advantage := expected - float64(*result.Rank)

	return StrokesGainedRecord{
		RaceID:       result.RaceID,
		Date:         result.Date,
		Discipline:   result.Discipline,
		Location:     result.Location,
		Rank:         result.Rank,
		Bib:          result.Bib,
		ExpectedRank: &expected,
		BibAdvantage: &advantage,
	}, nil
}

// fieldPercentile is the 0-100 percentile rank of measure within the field,
// where a lower measure (better) maps to a higher percentile. Ties share the
// average of their ranks.
func fieldPercentile(measure float64, measures []float64) float64 {
	n := len(measures)
	if n < 2 {
		return 0
	}

	sorted := append([]float64(nil), measures...)
	sort.Float64s(sorted)

	// average rank of this measure, 1 = best (lowest points)
	first := sort.SearchFloat64s(sorted, measure)
	last := first
	for last+1 < n && sorted[last+1] == measure {
		last++
	}
	avgRank := float64(first+last)/2 + 1

	return 100 * (float64(n) - avgRank) / float64(n-1)
}
