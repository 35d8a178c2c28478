package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// varianceEps is the floor below which a regressor's spread is treated as
// zero variance.
const varianceEps = 1e-12

// CourseRegression fits one ordinary-least-squares regression per course
// characteristic independently: z-score on that single characteristic, never
// multivariate, so each characteristic's correlation is isolated rather than
// confounded. Fewer than MinRegressionSample qualifying races returns
// ErrInsufficientSample. A characteristic with zero variance across the
// sample is reported under Degenerate and omitted from the coefficients.
func (e *Engine) CourseRegression(athleteID, discipline string, year *int, obs []RaceObservation) (RegressionResult, error) {
	if len(obs) < e.MinRegressionSample {
		return RegressionResult{}, ErrInsufficientSample
	}

	result := RegressionResult{
		AthleteID:  athleteID,
		Discipline: discipline,
		Year:       year,
		SampleSize: len(obs),
	}

	for _, trait := range Traits {
		var xs, ys []float64
		for i := range obs {
			if v := obs[i].Trait(trait); v != nil {
				xs = append(xs, *v)
				ys = append(ys, obs[i].ZScore)
			}
		}

		if len(xs) < e.MinRegressionSample {
			result.Insufficient = append(result.Insufficient, trait)
			continue
		}
		if stat.Variance(xs, nil) < varianceEps {
			result.Degenerate = append(result.Degenerate, trait)
			continue
		}

		coeff := fitSimpleOLS(trait, xs, ys)
		result.Coefficients = append(result.Coefficients, coeff)
	}

	return result, nil
}

// fitSimpleOLS computes slope, standard error, two-tailed p-value and R² for
// a simple linear regression of ys on xs. Caller guarantees len(xs) >= 3 and
// non-zero variance in xs.
func fitSimpleOLS(trait string, xs, ys []float64) Coefficient {
	n := len(xs)
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	rsq := stat.RSquared(xs, ys, nil, intercept, slope)

	// residual sum of squares and Sxx for the slope's standard error
	xMean := stat.Mean(xs, nil)
	var sse, sxx float64
	for i := range xs {
		resid := ys[i] - (intercept + slope*xs[i])
		sse += resid * resid
		dx := xs[i] - xMean
		sxx += dx * dx
	}

	df := float64(n - 2)
	stdErr := math.Sqrt(sse / df / sxx)

	var pValue float64
	if stdErr > 0 {
		t := math.Abs(slope / stdErr)
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		pValue = 2 * dist.Survival(t)
	}

	return Coefficient{
		Characteristic: trait,
		Slope:          slope,
		StdError:       stdErr,
		PValue:         pValue,
		RSquared:       rsq,
		N:              n,
	}
}
