package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func momentumObs(zs ...float64) []RaceObservation {
	obs := make([]RaceObservation, len(zs))
	for i, z := range zs {
		obs[i] = RaceObservation{
			RaceID: string(rune('a' + i)),
			Date:   time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			ZScore: z,
		}
	}
	return obs
}

func TestMomentumSingleRace(t *testing.T) {
	e := NewEngine()

	records, err := e.Momentum(momentumObs(0.8))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 0.8, records[0].ZScore, 1e-12)
	assert.InDelta(t, 0.8, records[0].WeightedZ, 1e-12, "weighted equals instantaneous")
	assert.Equal(t, TrendHot, records[0].Trend)
}

func TestMomentumRecurrence(t *testing.T) {
	e := NewEngine()

	records, err := e.Momentum(momentumObs(1.0, 0.0, -1.0))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.InDelta(t, 1.0, records[0].WeightedZ, 1e-12)
	assert.InDelta(t, 0.8*1.0, records[1].WeightedZ, 1e-12)
	assert.InDelta(t, 0.2*(-1.0)+0.8*0.8, records[2].WeightedZ, 1e-12)
}

func TestMomentumChronologicalOrder(t *testing.T) {
	e := NewEngine()

	obs := momentumObs(0.1, 0.2, 0.3)
	// Shuffle: newest first.
	obs[0], obs[2] = obs[2], obs[0]

	records, err := e.Momentum(obs)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].RaceID)
	assert.Equal(t, "c", records[2].RaceID)
	assert.True(t, records[0].Date.Before(records[1].Date))
	assert.InDelta(t, 0.1, records[0].WeightedZ, 1e-12, "seed from the earliest race")
}

func TestMomentumClassification(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name string
		z    float64
		want string
	}{
		{"well above cutoff", 1.4, TrendHot},
		{"exactly at cutoff", 0.5, TrendNeutral},
		{"around zero", -0.2, TrendNeutral},
		{"exactly at negative cutoff", -0.5, TrendNeutral},
		{"well below cutoff", -1.1, TrendCold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := e.Momentum(momentumObs(tt.z))
			require.NoError(t, err)
			assert.Equal(t, tt.want, records[0].Trend)
		})
	}
}

func TestMomentumEmptyInput(t *testing.T) {
	e := NewEngine()
	_, err := e.Momentum(nil)
	assert.ErrorIs(t, err, ErrInsufficientSample)
}

func TestMomentumDoesNotMutateInput(t *testing.T) {
	e := NewEngine()

	obs := momentumObs(0.1, 0.2)
	obs[0], obs[1] = obs[1], obs[0]
	firstID := obs[0].RaceID

	_, err := e.Momentum(obs)
	require.NoError(t, err)
	assert.Equal(t, firstID, obs[0].RaceID)
}
