package analytics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ComputeQuintileBoundaries derives the 20/40/60/80th percentile cuts of one
// trait's value distribution using linear interpolation between order
// statistics. The input must be the ENTIRE course population's values, never
// an athlete's subset: boundaries are filter-independent so that quintile
// labels mean the same thing for every athlete and query.
func ComputeQuintileBoundaries(trait string, values []float64) (QuintileBoundaries, error) {
	if len(values) < 2 {
		return QuintileBoundaries{}, ErrInsufficientSample
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	b := QuintileBoundaries{Trait: trait}
	for i, p := range []float64{0.2, 0.4, 0.6, 0.8} {
		b.Cuts[i] = stat.Quantile(p, stat.LinInterp, sorted, nil)
	}
	return b, nil
}

// Quintile assigns a trait value to its cohort, 1 (lowest) through 5.
func (b QuintileBoundaries) Quintile(value float64) int {
	for i, cut := range b.Cuts {
		if value <= cut {
			return i + 1
		}
	}
	return 5
}

// BucketByTrait aggregates the athlete's races into the five quintile
// cohorts of one trait. All five records are always returned; a quintile
// with no matching races keeps RaceCount 0 and nil aggregates rather than
// being omitted.
func BucketByTrait(b QuintileBoundaries, obs []RaceObservation) []QuintileRecord {
	type acc struct {
		zSum    float64
		rankSum float64
		ranked  int
		count   int
	}
	var buckets [5]acc

	for i := range obs {
		v := obs[i].Trait(b.Trait)
		if v == nil {
			continue
		}
		q := b.Quintile(*v) - 1
		buckets[q].count++
		buckets[q].zSum += obs[i].ZScore
		if obs[i].Rank != nil {
			buckets[q].rankSum += float64(*obs[i].Rank)
			buckets[q].ranked++
		}
	}

	records := make([]QuintileRecord, 5)
	for q := range buckets {
		rec := QuintileRecord{
			Trait:     b.Trait,
			Quintile:  q + 1,
			Label:     fmt.Sprintf("Q%d", q+1),
			RaceCount: buckets[q].count,
		}
		if buckets[q].count > 0 {
			meanZ := buckets[q].zSum / float64(buckets[q].count)
			rec.MeanZ = &meanZ
		}
		if buckets[q].ranked > 0 {
			meanRank := buckets[q].rankSum / float64(buckets[q].ranked)
			rec.MeanRank = &meanRank
		}
		records[q] = rec
	}
	return records
}
