package analytics

import (
	"time"
)

// Course characteristic names used by the regression and quintile analytics.
const (
	TraitVerticalDrop  = "vertical_drop"
	TraitGateCount     = "gate_count"
	TraitStartAltitude = "start_altitude"
)

// Traits lists the course characteristics in stable output order.
var Traits = []string{TraitVerticalDrop, TraitGateCount, TraitStartAltitude}

// Momentum trend classifications.
const (
	TrendHot     = "hot"
	TrendCold    = "cold"
	TrendNeutral = "neutral"
)

// FieldStatistics is the distribution of the performance measure across all
// valid results in one race. Derived and transient; recompute, never cache
// inside the engine.
type FieldStatistics struct {
	RaceID string  `json:"race_id"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	N      int     `json:"n"`
}

// ZScoreRecord is one athlete result expressed relative to its field.
// Positive always means better than the field.
type ZScoreRecord struct {
	RaceID     string    `json:"race_id"`
	Date       time.Time `json:"date"`
	Discipline string    `json:"discipline"`
	Location   string    `json:"location"`
	Rank       *int      `json:"rank"`
	FISPoints  float64   `json:"fis_points"`
	ZScore     float64   `json:"z_score"`
}

// StrokesGainedRecord is a signed advantage-over-field-average figure.
// The bib-adjusted fields are only populated by the bib variant.
type StrokesGainedRecord struct {
	RaceID        string    `json:"race_id"`
	Date          time.Time `json:"date"`
	Discipline    string    `json:"discipline"`
	Location      string    `json:"location"`
	Rank          *int      `json:"rank"`
	Bib           *int      `json:"bib,omitempty"`
	StrokesGained float64   `json:"strokes_gained"`
	Percentile    float64   `json:"percentile"`
	ExpectedRank  *float64  `json:"expected_rank,omitempty"`
	BibAdvantage  *float64  `json:"bib_advantage,omitempty"`
}

// Coefficient is one fitted simple-regression row: the athlete's z-score
// regressed on a single course characteristic.
type Coefficient struct {
	Characteristic string  `json:"characteristic"`
	Slope          float64 `json:"slope"`
	StdError       float64 `json:"std_error"`
	PValue         float64 `json:"p_value"`
	RSquared       float64 `json:"r_squared"`
	N              int     `json:"n"`
}

// RegressionResult holds one coefficient per usable course characteristic.
// Degenerate lists zero-variance characteristics that were skipped rather
// than fitted; Insufficient lists characteristics with too few measured
// courses to regress on.
type RegressionResult struct {
	AthleteID    string        `json:"athlete_id"`
	Discipline   string        `json:"discipline"`
	Year         *int          `json:"year,omitempty"`
	SampleSize   int           `json:"sample_size"`
	Coefficients []Coefficient `json:"coefficients"`
	Degenerate   []string      `json:"degenerate,omitempty"`
	Insufficient []string      `json:"insufficient,omitempty"`
}

// QuintileRecord aggregates an athlete's performance over the races whose
// course trait value falls in one quintile of the full course population.
// Quintiles with no matching races keep RaceCount 0 and nil aggregates;
// callers always see all five.
type QuintileRecord struct {
	Trait     string   `json:"trait"`
	Quintile  int      `json:"quintile"` // 1..5, lowest trait values first
	Label     string   `json:"label"`
	RaceCount int      `json:"race_count"`
	MeanZ     *float64 `json:"mean_z_score"`
	MeanRank  *float64 `json:"mean_rank"`
}

// QuintileBoundaries are the 20/40/60/80th percentile cuts of one trait,
// computed over the entire course population so labels stay comparable
// across athletes and filters.
type QuintileBoundaries struct {
	Trait string     `json:"trait"`
	Cuts  [4]float64 `json:"cuts"`
}

// MomentumRecord carries both the single-race z-score and the running
// exponentially-weighted value as of that race.
type MomentumRecord struct {
	RaceID    string    `json:"race_id"`
	Date      time.Time `json:"date"`
	ZScore    float64   `json:"z_score"`
	WeightedZ float64   `json:"weighted_z"`
	Trend     string    `json:"trend"`
}

// CareerStats is the athlete's headline career summary.
type CareerStats struct {
	Starts       int      `json:"starts"`
	Wins         int      `json:"wins"`
	Podiums      int      `json:"podiums"`
	AvgFISPoints *float64 `json:"avg_fis_points"`
}

// RaceObservation is one of the athlete's scored races joined with its
// course characteristics, the unit of input for the regression, quintile
// and momentum analytics. Assembled by the orchestrator from store rows.
type RaceObservation struct {
	RaceID        string    `json:"race_id"`
	Date          time.Time `json:"date"`
	Discipline    string    `json:"discipline"`
	Location      string    `json:"location"`
	ZScore        float64   `json:"z_score"`
	Rank          *int      `json:"rank"`
	VerticalDrop  *float64  `json:"vertical_drop"`
	GateCount     *float64  `json:"gate_count"`
	StartAltitude *float64  `json:"start_altitude"`
}

// Trait returns the observation's value for the named characteristic, or
// nil when the course record does not carry it.
func (o *RaceObservation) Trait(name string) *float64 {
	switch name {
	case TraitVerticalDrop:
		return o.VerticalDrop
	case TraitGateCount:
		return o.GateCount
	case TraitStartAltitude:
		return o.StartAltitude
	}
	return nil
}
