package posterior

import (
	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PredictiveSamples maps a variable name to a draws×n_samples matrix of
// posterior predictive draws, one column per requested input row.
type PredictiveSamples map[string]*mat.Dense

// Matrix returns variable name, checking that it has one column per input
// row and at least one draw.
func (p PredictiveSamples) Matrix(name string, nSamples int) (*mat.Dense, error) {
	const op = "PredictiveSamples.Matrix"

	m, ok := p[name]
	if !ok || m == nil {
		return nil, errors.NewValueError(op, "predictive samples have no variable "+name)
	}
	if m.IsEmpty() {
		return nil, errors.NewValueError(op, "variable "+name+" has no draws")
	}
	r, c := m.Dims()
	if c != nSamples {
		return nil, errors.NewDimensionError(op+" ("+name+")", nSamples, c, 1)
	}
	if err := errors.CheckMatrix(name, m, r, c); err != nil {
		return nil, err
	}
	return m, nil
}

// Reduce returns the per-sample mean and population standard deviation of
// variable name across draws.
func (p PredictiveSamples) Reduce(name string, nSamples int) (mean, std []float64, err error) {
	m, err := p.Matrix(name, nSamples)
	if err != nil {
		return nil, nil, err
	}
	mean, std = MeanStdAxis0(m)
	return mean, std, nil
}
