package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skistats/fis-analytics/internal/models"
)

func fpts(v float64) *float64 { return &v }
func rank(v int) *int         { return &v }

func fieldOf(points ...float64) []models.RaceResult {
	field := make([]models.RaceResult, len(points))
	for i, p := range points {
		field[i] = models.RaceResult{
			AthleteID: string(rune('A' + i)),
			RaceID:    "R1",
			FISPoints: fpts(p),
		}
	}
	return field
}

func TestComputeFieldStatistics(t *testing.T) {
	fs, err := ComputeFieldStatistics("R1", fieldOf(10, 12, 14))
	require.NoError(t, err)

	assert.Equal(t, "R1", fs.RaceID)
	assert.Equal(t, 3, fs.N)
	assert.InDelta(t, 12.0, fs.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(8.0/3.0), fs.StdDev, 1e-9) // population stddev, ~1.63
}

func TestComputeFieldStatisticsExcludesUnscored(t *testing.T) {
	field := fieldOf(10, 20)
	field = append(field, models.RaceResult{AthleteID: "dnf", RaceID: "R1"})

	fs, err := ComputeFieldStatistics("R1", field)
	require.NoError(t, err)
	assert.Equal(t, 2, fs.N)
	assert.InDelta(t, 15.0, fs.Mean, 1e-9)
}

func TestComputeFieldStatisticsInsufficientField(t *testing.T) {
	_, err := ComputeFieldStatistics("R1", fieldOf(10))
	assert.ErrorIs(t, err, ErrInsufficientField)

	_, err = ComputeFieldStatistics("R1", nil)
	assert.ErrorIs(t, err, ErrInsufficientField)

	// One scored result among several unscored is still one.
	field := fieldOf(10)
	field = append(field, models.RaceResult{AthleteID: "dnf", RaceID: "R1"})
	_, err = ComputeFieldStatistics("R1", field)
	assert.ErrorIs(t, err, ErrInsufficientField)
}

func TestZScoreSignFlip(t *testing.T) {
	fs, err := ComputeFieldStatistics("R1", fieldOf(10, 12, 14))
	require.NoError(t, err)

	// Lowest points is the best result and must score positive.
	best, err := ZScore(10, fs)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/math.Sqrt(8.0/3.0), best, 1e-9) // ~ +1.22

	worst, err := ZScore(14, fs)
	require.NoError(t, err)
	assert.InDelta(t, -best, worst, 1e-9)

	mid, err := ZScore(12, fs)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, mid, 1e-9)
}

func TestZScoresOfFieldAreStandardized(t *testing.T) {
	points := []float64{3.2, 8.9, 15.4, 22.0, 30.7, 41.3, 55.6}
	field := fieldOf(points...)
	fs, err := ComputeFieldStatistics("R1", field)
	require.NoError(t, err)

	var sum, sumSq float64
	for _, p := range points {
		z, err := ZScore(p, fs)
		require.NoError(t, err)
		sum += z
		sumSq += z * z
	}
	n := float64(len(points))
	mean := sum / n
	assert.InDelta(t, 0.0, mean, 1e-9)
	assert.InDelta(t, 1.0, math.Sqrt(sumSq/n-mean*mean), 1e-9)
}

func TestZScoreBestInFieldIsMaximal(t *testing.T) {
	points := []float64{5.1, 9.4, 12.8, 19.9, 33.3}
	fs, err := ComputeFieldStatistics("R1", fieldOf(points...))
	require.NoError(t, err)

	bestZ := math.Inf(-1)
	var bestPoints float64
	for _, p := range points {
		z, err := ZScore(p, fs)
		require.NoError(t, err)
		if z > bestZ {
			bestZ = z
			bestPoints = p
		}
	}
	assert.Equal(t, 5.1, bestPoints)
}

func TestZScoreZeroSpreadField(t *testing.T) {
	fs, err := ComputeFieldStatistics("R1", fieldOf(12, 12, 12))
	require.NoError(t, err)
	assert.Zero(t, fs.StdDev)

	_, err = ZScore(12, fs)
	assert.ErrorIs(t, err, ErrInsufficientField)
}

func TestResultZScoreCarriesResultFields(t *testing.T) {
	field := fieldOf(10, 12, 14)
	field[0].Discipline = models.DisciplineSlalom
	field[0].Location = "Levi"
	field[0].Rank = rank(1)

	fs, err := ComputeFieldStatistics("R1", field)
	require.NoError(t, err)

	rec, err := ResultZScore(field[0], fs)
	require.NoError(t, err)
	assert.Equal(t, "R1", rec.RaceID)
	assert.Equal(t, models.DisciplineSlalom, rec.Discipline)
	assert.Equal(t, "Levi", rec.Location)
	assert.InDelta(t, 1.2247, rec.ZScore, 1e-4)

	_, err = ResultZScore(models.RaceResult{RaceID: "R1"}, fs)
	assert.ErrorIs(t, err, ErrInsufficientField)
}
