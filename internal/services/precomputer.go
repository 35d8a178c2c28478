package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/skistats/fis-analytics/internal/analytics"
	"github.com/skistats/fis-analytics/internal/models"
	"github.com/skistats/fis-analytics/internal/store"
)

// allKinds is the full set of aggregates a refresh pass rebuilds.
var allKinds = []string{
	AggregateZScores,
	AggregateStrokesGained,
	AggregateStrokesGainedBib,
	AggregateRegression,
	AggregateCourseTraits,
	AggregateMomentum,
	AggregateProfile,
}

// disciplineKeys are the cache map keys a per-discipline aggregate is built
// under; "" is the all-disciplines variant.
var disciplineKeys = []string{
	"",
	models.DisciplineSlalom,
	models.DisciplineGiantSlalom,
	models.DisciplineSuperG,
	models.DisciplineDownhill,
}

// Precomputer rebuilds the unfiltered per-athlete aggregates on a cron
// schedule and records each pass in the aggregate_refresh_runs audit table.
// It is the only writer of the aggregate cache; the orchestrator only reads.
type Precomputer struct {
	db           *gorm.DB
	store        store.ResultStore
	cache        AggregateCache
	orchestrator *Orchestrator
	engine       *analytics.Engine
	logger       *logrus.Logger
	cron         *cron.Cron
	schedule     string

	mu        sync.Mutex
	isRunning bool
}

func NewPrecomputer(
	db *gorm.DB,
	st store.ResultStore,
	cache AggregateCache,
	orchestrator *Orchestrator,
	engine *analytics.Engine,
	logger *logrus.Logger,
	schedule string,
) *Precomputer {
	return &Precomputer{
		db:           db,
		store:        st,
		cache:        cache,
		orchestrator: orchestrator,
		engine:       engine,
		logger:       logger,
		cron:         cron.New(),
		schedule:     schedule,
	}
}

// Start schedules the recurring refresh. When refreshOnStart is set an
// initial pass runs immediately in the background so a cold deploy serves
// from cache without waiting for the first scheduled slot.
func (p *Precomputer) Start(refreshOnStart bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("precomputer is already running")
	}

	_, err := p.cron.AddFunc(p.schedule, func() {
		if _, err := p.RefreshAll(context.Background()); err != nil {
			p.logger.WithError(err).Error("Scheduled aggregate refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule aggregate refresh: %w", err)
	}

	p.cron.Start()
	p.isRunning = true

	if refreshOnStart {
		go func() {
			if _, err := p.RefreshAll(context.Background()); err != nil {
				p.logger.WithError(err).Error("Initial aggregate refresh failed")
			}
		}()
	}

	p.logger.WithField("schedule", p.schedule).Info("Precomputer started")
	return nil
}

// Stop halts the schedule and waits for an in-flight scheduled run.
func (p *Precomputer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return
	}

	ctx := p.cron.Stop()
	<-ctx.Done()

	p.isRunning = false
	p.logger.Info("Precomputer stopped")
}

// RefreshAll rebuilds every aggregate for every known athlete and swaps the
// new values into the cache. Per-athlete failures are logged and skipped so
// one bad athlete cannot starve the rest of the cache.
func (p *Precomputer) RefreshAll(ctx context.Context) (models.RefreshRun, error) {
	run := models.RefreshRun{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Status:    models.RefreshRunning,
		Kinds:     pq.StringArray(allKinds),
	}
	if err := p.db.WithContext(ctx).Create(&run).Error; err != nil {
		return run, fmt.Errorf("failed to record refresh run: %w", err)
	}

	athleteIDs, err := p.store.AthleteIDs(ctx)
	if err != nil {
		p.finishRun(ctx, &run, 0, err)
		return run, fmt.Errorf("failed to list athletes for refresh: %w", err)
	}

	refreshed := 0
	for _, athleteID := range athleteIDs {
		if err := ctx.Err(); err != nil {
			p.finishRun(ctx, &run, refreshed, err)
			return run, err
		}
		if err := p.refreshAthlete(ctx, athleteID); err != nil {
			p.logger.WithField("athlete_id", athleteID).WithError(err).
				Warn("Skipping athlete in aggregate refresh")
			continue
		}
		refreshed++
	}

	now := time.Now().UTC()
	if err := p.cache.MarkRefreshed(ctx, now); err != nil {
		p.logger.WithError(err).Warn("Failed to mark refresh timestamp")
	}

	p.finishRun(ctx, &run, refreshed, nil)
	p.logger.WithFields(logrus.Fields{
		"athletes": refreshed,
		"duration": now.Sub(run.StartedAt).String(),
	}).Info("Aggregate refresh completed")
	return run, nil
}

func (p *Precomputer) finishRun(ctx context.Context, run *models.RefreshRun, athleteCount int, cause error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.AthleteCount = athleteCount
	run.Status = models.RefreshCompleted
	if cause != nil {
		run.Status = models.RefreshFailed
		run.Error = cause.Error()
	}
	if err := p.db.WithContext(ctx).Save(run).Error; err != nil {
		p.logger.WithError(err).Warn("Failed to finalize refresh run record")
	}
}

// refreshAthlete recomputes the athlete's aggregates from the store. The
// series kinds are stored unfiltered; the discipline-shaped kinds carry one
// entry per discipline so filtered reads stay on the cache path.
func (p *Precomputer) refreshAthlete(ctx context.Context, athleteID string) error {
	_, zscores, err := p.orchestrator.liveObservations(ctx, athleteID, store.Filter{})
	if err != nil {
		return err
	}
	if err := p.cache.SetAggregate(ctx, AggregateZScores, athleteID, zscores); err != nil {
		return err
	}

	for _, bibAdjusted := range []bool{false, true} {
		kind := AggregateStrokesGained
		if bibAdjusted {
			kind = AggregateStrokesGainedBib
		}
		records, err := p.orchestrator.liveStrokesGained(ctx, athleteID, store.Filter{}, bibAdjusted)
		if err != nil {
			return err
		}
		if err := p.cache.SetAggregate(ctx, kind, athleteID, records); err != nil {
			return err
		}
	}

	regressions := regressionAggregate{}
	quintiles := quintileAggregate{}
	momentum := momentumAggregate{}
	for _, discipline := range disciplineKeys {
		obs, _, err := p.orchestrator.liveObservations(ctx, athleteID, store.Filter{Discipline: discipline})
		if err != nil {
			return err
		}

		if result, err := p.engine.CourseRegression(athleteID, discipline, nil, obs); err == nil {
			regressions[discipline] = result
		}
		if records, err := p.orchestrator.liveCourseTraits(ctx, athleteID, store.Filter{Discipline: discipline}); err == nil {
			quintiles[discipline] = records
		}
		if records, err := p.engine.Momentum(obs); err == nil {
			momentum[discipline] = records
		}
	}
	if err := p.cache.SetAggregate(ctx, AggregateRegression, athleteID, regressions); err != nil {
		return err
	}
	if err := p.cache.SetAggregate(ctx, AggregateCourseTraits, athleteID, quintiles); err != nil {
		return err
	}
	if err := p.cache.SetAggregate(ctx, AggregateMomentum, athleteID, momentum); err != nil {
		return err
	}

	profile, err := p.orchestrator.liveProfile(ctx, athleteID)
	if err != nil {
		return err
	}
	return p.cache.SetAggregate(ctx, AggregateProfile, athleteID, profile)
}

// LatestRun returns the most recent refresh audit row, if any.
func (p *Precomputer) LatestRun(ctx context.Context) (*models.RefreshRun, error) {
	var run models.RefreshRun
	err := p.db.WithContext(ctx).Order("started_at DESC").First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest refresh run: %w", err)
	}
	return &run, nil
}
