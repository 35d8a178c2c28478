package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skistats/fis-analytics/internal/models"
)

func TestStrokesGained(t *testing.T) {
	field := fieldOf(10, 12, 14)
	fs, err := ComputeFieldStatistics("R1", field)
	require.NoError(t, err)

	rec, err := StrokesGained(field[0], fs, field)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rec.StrokesGained, 1e-9, "mean 12 minus 10 points")
	assert.InDelta(t, 100.0, rec.Percentile, 1e-9)

	rec, err = StrokesGained(field[2], fs, field)
	require.NoError(t, err)
	assert.InDelta(t, -2.0, rec.StrokesGained, 1e-9)
	assert.InDelta(t, 0.0, rec.Percentile, 1e-9)
}

func TestStrokesGainedTiedPercentile(t *testing.T) {
	field := fieldOf(10, 12, 12, 14)
	fs, err := ComputeFieldStatistics("R1", field)
	require.NoError(t, err)

	rec, err := StrokesGained(field[1], fs, field)
	require.NoError(t, err)
	// Tied measures share the average of ranks 2 and 3.
	assert.InDelta(t, 50.0, rec.Percentile, 1e-9)
}

func TestStrokesGainedUnscoredResult(t *testing.T) {
	field := fieldOf(10, 12, 14)
	fs, err := ComputeFieldStatistics("R1", field)
	require.NoError(t, err)

	_, err = StrokesGained(models.RaceResult{RaceID: "R1"}, fs, field)
	assert.ErrorIs(t, err, ErrInsufficientField)
}

func bibField(pairs ...[2]int) []models.RaceResult {
	field := make([]models.RaceResult, len(pairs))
	for i, pair := range pairs {
		bib, r := pair[0], pair[1]
		field[i] = models.RaceResult{
			AthleteID: string(rune('A' + i)),
			RaceID:    "R1",
			Bib:       &bib,
			Rank:      &r,
			FISPoints: fpts(float64(10 + i)),
		}
	}
	return field
}

func TestBibAdjustedStrokesGainedPerfectTrend(t *testing.T) {
	e := NewEngine()

	// Rank tracks bib exactly: every athlete finished where the start
	// order predicted, so every advantage is zero.
	field := bibField([2]int{1, 1}, [2]int{2, 2}, [2]int{3, 3}, [2]int{4, 4})
	for i := range field {
		rec, err := e.BibAdjustedStrokesGained(field[i], field)
		require.NoError(t, err)
		require.NotNil(t, rec.BibAdvantage)
		assert.InDelta(t, 0.0, *rec.BibAdvantage, 1e-9)
		require.NotNil(t, rec.ExpectedRank)
		assert.InDelta(t, float64(*field[i].Rank), *rec.ExpectedRank, 1e-9)
	}
}

func TestBibAdjustedStrokesGainedBeatExpectation(t *testing.T) {
	e := NewEngine()

	// Late bib, early finish: positive advantage.
	field := bibField([2]int{1, 2}, [2]int{2, 3}, [2]int{3, 4}, [2]int{20, 1})
	rec, err := e.BibAdjustedStrokesGained(field[3], field)
	require.NoError(t, err)
	require.NotNil(t, rec.BibAdvantage)
	assert.Greater(t, *rec.BibAdvantage, 0.0)
}

func TestBibAdjustedStrokesGainedTooFewPairs(t *testing.T) {
	e := NewEngine()

	field := bibField([2]int{1, 1}, [2]int{2, 2})
	_, err := e.BibAdjustedStrokesGained(field[0], field)
	assert.ErrorIs(t, err, ErrInsufficientField)
}

func TestBibAdjustedStrokesGainedMissingBib(t *testing.T) {
	e := NewEngine()
	field := bibField([2]int{1, 1}, [2]int{2, 2}, [2]int{3, 3})

	noBib := models.RaceResult{RaceID: "R1", Rank: rank(5), FISPoints: fpts(20)}
	_, err := e.BibAdjustedStrokesGained(noBib, field)
	assert.ErrorIs(t, err, ErrNoBibData)
}

func TestBibAdjustedStrokesGainedIgnoresPartialRows(t *testing.T) {
	e := NewEngine()

	// Rows missing either bib or rank don't count toward the minimum.
	field := bibField([2]int{1, 1}, [2]int{2, 2})
	field = append(field, models.RaceResult{AthleteID: "X", RaceID: "R1", Bib: rank(9)})

	_, err := e.BibAdjustedStrokesGained(field[0], field)
	assert.ErrorIs(t, err, ErrInsufficientField)
}
