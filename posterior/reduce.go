package posterior

import (
	"sort"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MeanAxis0 returns the column means of m (mean along the draw axis).
func MeanAxis0(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		out[j] = stat.Mean(col, nil)
	}
	return out
}

// StdAxis0 returns the population standard deviation of each column of m.
func StdAxis0(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		_, out[j] = stat.PopMeanStdDev(col, nil)
	}
	return out
}

// MeanStdAxis0 returns column means and population standard deviations.
func MeanStdAxis0(m mat.Matrix) (mean, std []float64) {
	r, c := m.Dims()
	mean = make([]float64, c)
	std = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		mean[j], std[j] = stat.PopMeanStdDev(col, nil)
	}
	return mean, std
}

// PopCovariance returns the population covariance of the columns of m
// (rows are draws).
func PopCovariance(m mat.Matrix) *mat.SymDense {
	r, c := m.Dims()
	means := MeanAxis0(m)

	centered := mat.NewDense(r, c, nil)
	centered.Apply(func(_, j int, v float64) float64 {
		return v - means[j]
	}, m)

	cov := mat.NewSymDense(c, nil)
	cov.SymOuterK(1/float64(r), centered.T())
	return cov
}

// Quantile returns the empirical quantile p in [0, 1] of values.
func Quantile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.NewValueError("posterior.Quantile", "no values")
	}
	if p < 0 || p > 1 {
		return 0, errors.NewValidationError("p", "must be in [0, 1]", p)
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil), nil
}

// EqualTailedInterval returns the central credible interval holding level
// of the mass of values, e.g. level 0.9 gives the 5% and 95% quantiles.
func EqualTailedInterval(values []float64, level float64) (lower, upper float64, err error) {
	if level <= 0 || level >= 1 {
		return 0, 0, errors.NewValidationError("level", "must be in (0, 1)", level)
	}
	tail := (1 - level) / 2
	if lower, err = Quantile(values, tail); err != nil {
		return 0, 0, err
	}
	if upper, err = Quantile(values, 1-tail); err != nil {
		return 0, 0, err
	}
	return lower, upper, nil
}

// Summary describes the marginal posterior of one scalar component.
type Summary struct {
	Mean   float64
	Std    float64
	Median float64
	Lower  float64
	Upper  float64
}

// Summarize reduces values to mean, population std, median and the central
// interval at level.
func Summarize(values []float64, level float64) (Summary, error) {
	median, err := stats.Median(values)
	if err != nil {
		return Summary{}, errors.Wrap(err, "posterior.Summarize")
	}
	lower, upper, err := EqualTailedInterval(values, level)
	if err != nil {
		return Summary{}, err
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return Summary{Mean: mean, Std: std, Median: median, Lower: lower, Upper: upper}, nil
}
