package services

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skistats/fis-analytics/internal/analytics"
	"github.com/skistats/fis-analytics/internal/models"
	"github.com/skistats/fis-analytics/internal/store"
	"github.com/skistats/fis-analytics/pkg/utils"
)

// Provenance values reported on analytics responses.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

// AggregateCache is the read/write surface the orchestrator and precomputer
// need from the cache. Satisfied by CacheService; tests substitute an
// in-memory double.
type AggregateCache interface {
	GetAggregate(ctx context.Context, kind, athleteID string, dest interface{}) error
	SetAggregate(ctx context.Context, kind, athleteID string, value interface{}) error
	MarkRefreshed(ctx context.Context, at time.Time) error
	RefreshedAt(ctx context.Context) (time.Time, error)
}

// ProfileSummary is the athlete headline card: career counts, tier and
// current momentum trend.
type ProfileSummary struct {
	AthleteID string                `json:"athlete_id"`
	Name      string                `json:"name"`
	Country   string                `json:"country,omitempty"`
	Career    analytics.CareerStats `json:"career"`
	Tier      string                `json:"tier,omitempty"`
	Trend     string                `json:"trend"`
	LastRace  *time.Time            `json:"last_race,omitempty"`
}

// LocationPerformance aggregates an athlete's z-scores at one venue.
type LocationPerformance struct {
	Location  string  `json:"location"`
	RaceCount int     `json:"race_count"`
	MeanZ     float64 `json:"mean_z_score"`
	BestRank  *int    `json:"best_rank,omitempty"`
}

// Cached aggregate payloads are keyed by discipline, with "" holding the
// all-disciplines variant, so a discipline filter resolves against the
// cache instead of forcing a live recompute.
type regressionAggregate map[string]analytics.RegressionResult
type quintileAggregate map[string][]analytics.QuintileRecord
type momentumAggregate map[string][]analytics.MomentumRecord

// Orchestrator routes each analytics request to precomputed aggregates or a
// live computation against the result store. The rule: a year filter always
// goes live (aggregates are unfiltered by year); otherwise the cache is
// consulted first and a miss falls through to live. A discipline filter
// never forces live.
type Orchestrator struct {
	store  store.ResultStore
	cache  AggregateCache
	engine *analytics.Engine
	logger *logrus.Logger
}

func NewOrchestrator(st store.ResultStore, cache AggregateCache, engine *analytics.Engine, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		store:  st,
		cache:  cache,
		engine: engine,
		logger: logger,
	}
}

func (o *Orchestrator) cacheEligible(f store.Filter) bool {
	return f.Year == nil
}

// FieldStats computes the field distribution for one race. Race-level, never
// cached: the field table is small and the computation is a single pass.
func (o *Orchestrator) FieldStats(ctx context.Context, raceID string) (analytics.FieldStatistics, error) {
	field, err := o.store.RaceField(ctx, raceID)
	if err != nil {
		return analytics.FieldStatistics{}, err
	}
	if len(field) == 0 {
		return analytics.FieldStatistics{}, utils.ErrNotFound
	}
	return analytics.ComputeFieldStatistics(raceID, field)
}

// Profile serves the athlete headline card.
func (o *Orchestrator) Profile(ctx context.Context, athleteID string) (ProfileSummary, string, error) {
	var cached ProfileSummary
	if err := o.cache.GetAggregate(ctx, AggregateProfile, athleteID, &cached); err == nil {
		return cached, SourceCache, nil
	} else if err != ErrCacheMiss {
		o.logger.WithError(err).Warn("Profile cache read failed, computing live")
	}

	profile, err := o.liveProfile(ctx, athleteID)
	if err != nil {
		return ProfileSummary{}, "", err
	}
	return profile, SourceLive, nil
}

func (o *Orchestrator) liveProfile(ctx context.Context, athleteID string) (ProfileSummary, error) {
	results, err := o.store.AthleteResults(ctx, athleteID, store.Filter{})
	if err != nil {
		return ProfileSummary{}, err
	}
	if len(results) == 0 {
		return ProfileSummary{}, utils.ErrNotFound
	}

	career := analytics.Career(results)
	profile := ProfileSummary{
		AthleteID: athleteID,
		Name:      results[0].AthleteName,
		Country:   results[0].Country,
		Career:    career,
		Trend:     analytics.TrendNeutral,
	}
	last := results[0].Date
	profile.LastRace = &last
	if career.AvgFISPoints != nil {
		profile.Tier = analytics.Tier(*career.AvgFISPoints)
	}

	obs, _, err := o.observationsFromResults(ctx, results)
	if err != nil {
		return ProfileSummary{}, err
	}
	if momentum, err := o.engine.Momentum(obs); err == nil && len(momentum) > 0 {
		profile.Trend = momentum[len(momentum)-1].Trend
	}

	return profile, nil
}

// RaceHistory serves the athlete's scored races with per-race z-scores,
// newest first.
func (o *Orchestrator) RaceHistory(ctx context.Context, athleteID string, f store.Filter) ([]analytics.ZScoreRecord, string, error) {
	if o.cacheEligible(f) {
		var cached []analytics.ZScoreRecord
		err := o.cache.GetAggregate(ctx, AggregateZScores, athleteID, &cached)
		if err == nil {
			return limitZScores(filterZScores(cached, f.Discipline), f.Limit), SourceCache, nil
		}
		if err != ErrCacheMiss {
			o.logger.WithError(err).Warn("Z-score cache read failed, computing live")
		}
	}

	_, records, err := o.liveObservations(ctx, athleteID, f)
	if err != nil {
		return nil, "", err
	}
	return records, SourceLive, nil
}

// StrokesGained serves the plain strokes-gained series.
func (o *Orchestrator) StrokesGained(ctx context.Context, athleteID string, f store.Filter) ([]analytics.StrokesGainedRecord, string, error) {
	return o.strokesGainedSeries(ctx, athleteID, f, false)
}

// StrokesGainedBib serves the bib-adjusted strokes-gained series. Races
// without bib data are omitted rather than failing the request.
func (o *Orchestrator) StrokesGainedBib(ctx context.Context, athleteID string, f store.Filter) ([]analytics.StrokesGainedRecord, string, error) {
	return o.strokesGainedSeries(ctx, athleteID, f, true)
}

func (o *Orchestrator) strokesGainedSeries(ctx context.Context, athleteID string, f store.Filter, bibAdjusted bool) ([]analytics.StrokesGainedRecord, string, error) {
	kind := AggregateStrokesGained
	if bibAdjusted {
		kind = AggregateStrokesGainedBib
	}

	if o.cacheEligible(f) {
		var cached []analytics.StrokesGainedRecord
		err := o.cache.GetAggregate(ctx, kind, athleteID, &cached)
		if err == nil {
			return limitStrokesGained(filterStrokesGained(cached, f.Discipline), f.Limit), SourceCache, nil
		}
		if err != ErrCacheMiss {
			o.logger.WithError(err).Warn("Strokes-gained cache read failed, computing live")
		}
	}

	records, err := o.liveStrokesGained(ctx, athleteID, f, bibAdjusted)
	if err != nil {
		return nil, "", err
	}
	return records, SourceLive, nil
}

func (o *Orchestrator) liveStrokesGained(ctx context.Context, athleteID string, f store.Filter, bibAdjusted bool) ([]analytics.StrokesGainedRecord, error) {
	results, err := o.store.AthleteResults(ctx, athleteID, f)
	if err != nil {
		return nil, err
	}

	fields, err := o.fieldsFor(ctx, results)
	if err != nil {
		return nil, err
	}

	records := make([]analytics.StrokesGainedRecord, 0, len(results))
	for i := range results {
		result := results[i]
		if !result.Scored() {
			continue
		}
		field := fields[result.RaceID]

		var rec analytics.StrokesGainedRecord
		if bibAdjusted {
			rec, err = o.engine.BibAdjustedStrokesGained(result, field)
		} else {
			var fs analytics.FieldStatistics
			fs, err = analytics.ComputeFieldStatistics(result.RaceID, field)
			if err == nil {
				rec, err = analytics.StrokesGained(result, fs, field)
			}
		}
		if err != nil {
			o.logger.WithFields(logrus.Fields{
				"athlete_id": athleteID,
				"race_id":    result.RaceID,
			}).WithError(err).Debug("Skipping race in strokes-gained series")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Regression serves the course-characteristic regression.
func (o *Orchestrator) Regression(ctx context.Context, athleteID string, f store.Filter) (analytics.RegressionResult, string, error) {
	if o.cacheEligible(f) {
		var cached regressionAggregate
		err := o.cache.GetAggregate(ctx, AggregateRegression, athleteID, &cached)
		if err == nil {
			result, ok := cached[f.Discipline]
			if !ok {
				return analytics.RegressionResult{}, SourceCache, analytics.ErrInsufficientSample
			}
			return result, SourceCache, nil
		}
		if err != ErrCacheMiss {
			o.logger.WithError(err).Warn("Regression cache read failed, computing live")
		}
	}

	obs, _, err := o.liveObservations(ctx, athleteID, store.Filter{Discipline: f.Discipline, Year: f.Year})
	if err != nil {
		return analytics.RegressionResult{}, "", err
	}
	result, err := o.engine.CourseRegression(athleteID, f.Discipline, f.Year, obs)
	if err != nil {
		return analytics.RegressionResult{}, SourceLive, err
	}
	return result, SourceLive, nil
}

// CourseTraits serves the quintile breakdown of performance by course
// characteristic. Always five records per trait; traits whose course
// population is too small to cut are omitted.
func (o *Orchestrator) CourseTraits(ctx context.Context, athleteID string, f store.Filter) ([]analytics.QuintileRecord, string, error) {
	if o.cacheEligible(f) {
		var cached quintileAggregate
		err := o.cache.GetAggregate(ctx, AggregateCourseTraits, athleteID, &cached)
		if err == nil {
			records, ok := cached[f.Discipline]
			if !ok {
				return nil, SourceCache, analytics.ErrInsufficientSample
			}
			return records, SourceCache, nil
		}
		if err != ErrCacheMiss {
			o.logger.WithError(err).Warn("Course-trait cache read failed, computing live")
		}
	}

	records, err := o.liveCourseTraits(ctx, athleteID, store.Filter{Discipline: f.Discipline, Year: f.Year})
	if err != nil {
		return nil, "", err
	}
	return records, SourceLive, nil
}

func (o *Orchestrator) liveCourseTraits(ctx context.Context, athleteID string, f store.Filter) ([]analytics.QuintileRecord, error) {
	obs, _, err := o.liveObservations(ctx, athleteID, f)
	if err != nil {
		return nil, err
	}

	traitValues, err := o.store.CourseTraitValues(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]analytics.QuintileRecord, 0, 5*len(analytics.Traits))
	for _, trait := range analytics.Traits {
		boundaries, err := analytics.ComputeQuintileBoundaries(trait, traitValues[trait])
		if err != nil {
			o.logger.WithField("trait", trait).WithError(err).
				Warn("Skipping trait with unusable course population")
			continue
		}
		records = append(records, analytics.BucketByTrait(boundaries, obs)...)
	}
	return records, nil
}

// Momentum serves the exponentially-weighted momentum series in
// chronological order. Limit keeps the newest records of the computed
// series rather than truncating its input, so the weighted values always
// reflect the athlete's full qualifying history.
func (o *Orchestrator) Momentum(ctx context.Context, athleteID string, f store.Filter) ([]analytics.MomentumRecord, string, error) {
	if o.cacheEligible(f) {
		var cached momentumAggregate
		err := o.cache.GetAggregate(ctx, AggregateMomentum, athleteID, &cached)
		if err == nil {
			records, ok := cached[f.Discipline]
			if !ok {
				return nil, SourceCache, analytics.ErrInsufficientSample
			}
			return limitMomentum(records, f.Limit), SourceCache, nil
		}
		if err != ErrCacheMiss {
			o.logger.WithError(err).Warn("Momentum cache read failed, computing live")
		}
	}

	obs, _, err := o.liveObservations(ctx, athleteID, store.Filter{Discipline: f.Discipline, Year: f.Year})
	if err != nil {
		return nil, "", err
	}
	records, err := o.engine.Momentum(obs)
	if err != nil {
		return nil, SourceLive, err
	}
	return limitMomentum(records, f.Limit), SourceLive, nil
}

// CoursePerformance aggregates the athlete's z-scores per venue, keeping
// locations with at least minRaces scored races, best mean first. Live
// only: the venue grouping is cheap relative to the observation assembly
// it shares with the other live paths.
func (o *Orchestrator) CoursePerformance(ctx context.Context, athleteID string, discipline string, minRaces int) ([]LocationPerformance, error) {
	obs, _, err := o.liveObservations(ctx, athleteID, store.Filter{Discipline: discipline})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		count    int
		zSum     float64
		bestRank *int
	}
	buckets := make(map[string]*bucket)
	for i := range obs {
		b := buckets[obs[i].Location]
		if b == nil {
			b = &bucket{}
			buckets[obs[i].Location] = b
		}
		b.count++
		b.zSum += obs[i].ZScore
		if r := obs[i].Rank; r != nil && (b.bestRank == nil || *r < *b.bestRank) {
			b.bestRank = r
		}
	}

	performances := make([]LocationPerformance, 0, len(buckets))
	for location, b := range buckets {
		if location == "" || b.count < minRaces {
			continue
		}
		performances = append(performances, LocationPerformance{
			Location:  location,
			RaceCount: b.count,
			MeanZ:     b.zSum / float64(b.count),
			BestRank:  b.bestRank,
		})
	}
	sort.Slice(performances, func(i, j int) bool {
		if performances[i].MeanZ != performances[j].MeanZ {
			return performances[i].MeanZ > performances[j].MeanZ
		}
		return performances[i].Location < performances[j].Location
	})
	return performances, nil
}

// liveObservations assembles an athlete's scored races into observations
// joined with course characteristics, plus the parallel z-score records.
// Races whose field cannot anchor a z-score (fewer than two valid results,
// zero spread) are skipped, matching the per-statistic unavailability rule.
func (o *Orchestrator) liveObservations(ctx context.Context, athleteID string, f store.Filter) ([]analytics.RaceObservation, []analytics.ZScoreRecord, error) {
	results, err := o.store.AthleteResults(ctx, athleteID, f)
	if err != nil {
		return nil, nil, err
	}
	return o.observationsFromResults(ctx, results)
}

func (o *Orchestrator) observationsFromResults(ctx context.Context, results []models.RaceResult) ([]analytics.RaceObservation, []analytics.ZScoreRecord, error) {
	fields, err := o.fieldsFor(ctx, results)
	if err != nil {
		return nil, nil, err
	}

	raceIDs := make([]string, 0, len(fields))
	for raceID := range fields {
		raceIDs = append(raceIDs, raceID)
	}
	races, err := o.store.Races(ctx, raceIDs)
	if err != nil {
		return nil, nil, err
	}

	obs := make([]analytics.RaceObservation, 0, len(results))
	records := make([]analytics.ZScoreRecord, 0, len(results))
	for i := range results {
		result := results[i]
		if !result.Scored() {
			continue
		}
		fs, err := analytics.ComputeFieldStatistics(result.RaceID, fields[result.RaceID])
		if err != nil {
			continue
		}
		rec, err := analytics.ResultZScore(result, fs)
		if err != nil {
			continue
		}
		records = append(records, rec)

		observation := analytics.RaceObservation{
			RaceID:     result.RaceID,
			Date:       result.Date,
			Discipline: result.Discipline,
			Location:   result.Location,
			ZScore:     rec.ZScore,
			Rank:       result.Rank,
		}
		if race, ok := races[result.RaceID]; ok && race.Course != nil {
			observation.VerticalDrop = race.Course.VerticalDrop
			observation.GateCount = race.Course.GateCount
			observation.StartAltitude = race.Course.StartAltitude
		}
		obs = append(obs, observation)
	}
	return obs, records, nil
}

func (o *Orchestrator) fieldsFor(ctx context.Context, results []models.RaceResult) (map[string][]models.RaceResult, error) {
	seen := make(map[string]struct{}, len(results))
	raceIDs := make([]string, 0, len(results))
	for i := range results {
		if _, ok := seen[results[i].RaceID]; ok {
			continue
		}
		seen[results[i].RaceID] = struct{}{}
		raceIDs = append(raceIDs, results[i].RaceID)
	}
	return o.store.RaceFields(ctx, raceIDs)
}

func filterZScores(records []analytics.ZScoreRecord, discipline string) []analytics.ZScoreRecord {
	if discipline == "" {
		return records
	}
	out := make([]analytics.ZScoreRecord, 0, len(records))
	for i := range records {
		if records[i].Discipline == discipline {
			out = append(out, records[i])
		}
	}
	return out
}

func limitZScores(records []analytics.ZScoreRecord, limit int) []analytics.ZScoreRecord {
	if limit <= 0 || limit >= len(records) {
		return records
	}
	return records[:limit]
}

func filterStrokesGained(records []analytics.StrokesGainedRecord, discipline string) []analytics.StrokesGainedRecord {
	if discipline == "" {
		return records
	}
	out := make([]analytics.StrokesGainedRecord, 0, len(records))
	for i := range records {
		if records[i].Discipline == discipline {
			out = append(out, records[i])
		}
	}
	return out
}

func limitStrokesGained(records []analytics.StrokesGainedRecord, limit int) []analytics.StrokesGainedRecord {
	if limit <= 0 || limit >= len(records) {
		return records
	}
	return records[:limit]
}

// limitMomentum keeps the newest records of a chronological series.
func limitMomentum(records []analytics.MomentumRecord, limit int) []analytics.MomentumRecord {
	if limit <= 0 || limit >= len(records) {
		return records
	}
	return records[len(records)-limit:]
}
