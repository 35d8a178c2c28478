package analytics

import "errors"

// Expected, reportable conditions. Handlers surface these as "no data
// available for this metric under these filters" rather than as failures;
// each statistic fails independently.
var (
	// ErrInsufficientField means a race's field has too few valid results
	// for the requested statistic.
	ErrInsufficientField = errors.New("insufficient field for statistic")

	// ErrInsufficientSample means an athlete's qualifying race count is
	// below the statistic's minimum.
	ErrInsufficientSample = errors.New("insufficient sample for statistic")

	// ErrNoBibData means a bib-adjusted statistic was requested for a
	// result with no recorded start bib.
	ErrNoBibData = errors.New("no bib data for result")

	// ErrDegenerateCharacteristic means a regressor has zero variance
	// across the sample, so no slope can be fitted.
	ErrDegenerateCharacteristic = errors.New("degenerate characteristic")
)
