package analytics

// Engine bundles the tunable policy constants for the statistics that carry
// minimum-sample guards. All methods are pure functions over data the caller
// already fetched; the engine holds no connections and no mutable state, so
// a single instance is safe for any number of concurrent requests.
type Engine struct {
	// MinBibFieldSize is the smallest field (with bib and rank recorded)
	// on which a bib-vs-rank trend is fitted.
	MinBibFieldSize int

	// MinRegressionSample is the smallest qualifying race count for the
	// course-characteristic regression.
	MinRegressionSample int

	// MomentumDecay is the EWMA smoothing factor applied to the newest
	// z-score; 0.2 makes roughly the last nine races dominate the weight.
	MomentumDecay float64

	// MomentumHotCutoff classifies the weighted value: above +cutoff is
	// hot, below -cutoff is cold.
	MomentumHotCutoff float64
}

// NewEngine returns an engine with the default policy thresholds.
func NewEngine() *Engine {
	return &Engine{
		MinBibFieldSize:     3,
		MinRegressionSample: 5,
		MomentumDecay:       0.2,
		MomentumHotCutoff:   0.5,
	}
}
