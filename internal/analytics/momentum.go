package analytics

import (
	"sort"
)

// Momentum computes the exponentially-weighted moving z-score over the
// athlete's races in chronological order, producing one record per race.
// The weighted value seeds from the first race's z-score, so a single race
// yields exactly one record whose weighted value equals its instantaneous
// z-score. Classification thresholds are fixed policy, not learned.
func (e *Engine) Momentum(obs []RaceObservation) ([]MomentumRecord, error) {
	if len(obs) == 0 {
		return nil, ErrInsufficientSample
	}

	ordered := append([]RaceObservation(nil), obs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	records := make([]MomentumRecord, len(ordered))
	weighted := ordered[0].ZScore
	for i := range ordered {
		if i > 0 {
			weighted = e.MomentumDecay*ordered[i].ZScore + (1-e.MomentumDecay)*weighted
		}
		records[i] = MomentumRecord{
			RaceID:    ordered[i].RaceID,
			Date:      ordered[i].Date,
			ZScore:    ordered[i].ZScore,
			WeightedZ: weighted,
			Trend:     e.classify(weighted),
		}
	}
	return records, nil
}

func (e *Engine) classify(weighted float64) string {
	switch {
	case weighted > e.MomentumHotCutoff:
		return TrendHot
	case weighted < -e.MomentumHotCutoff:
		return TrendCold
	default:
		return TrendNeutral
	}
}
