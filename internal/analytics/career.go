package analytics

import (
	"github.com/skistats/fis-analytics/internal/models"
)

// Performance tiers by average FIS points. Lower points are better; the
// cutoffs mirror the bands the scouting views group athletes into.
const (
	TierElite      = "Elite"
	TierContender  = "Contender"
	TierMiddle     = "Middle"
	TierDeveloping = "Developing"
)

// Career summarizes an athlete's full result history: starts, wins, podiums
// and average FIS points over scored results. DNF rows count as starts but
// contribute nothing to the average.
func Career(results []models.RaceResult) CareerStats {
	stats := CareerStats{Starts: len(results)}

	var pointsSum float64
	var scored int
	for i := range results {
		if r := results[i].Rank; r != nil {
			if *r == 1 {
				stats.Wins++
			}
			if *r <= 3 {
				stats.Podiums++
			}
		}
		if results[i].FISPoints != nil {
			pointsSum += *results[i].FISPoints
			scored++
		}
	}
	if scored > 0 {
		avg := pointsSum / float64(scored)
		stats.AvgFISPoints = &avg
	}
	return stats
}

// Tier classifies an average FIS points figure into a performance band.
func Tier(avgFISPoints float64) string {
	switch {
	case avgFISPoints <= 15:
		return TierElite
	case avgFISPoints <= 40:
		return TierContender
	case avgFISPoints <= 80:
		return TierMiddle
	default:
		return TierDeveloping
	}
}
