package posterior

import (
	"sort"
)

// Standard variable names of a Bayesian linear regression trace.
const (
	Alpha       = "alpha"
	Betas       = "betas"
	Sigma       = "sigma"
	Observation = "obs"
)

// Draw maps variable name to its value in one posterior draw.
// Scalar variables are stored as length-1 vectors.
type Draw map[string][]float64

// Scalar returns the value of a scalar variable.
func (d Draw) Scalar(name string) (float64, bool) {
	v, ok := d[name]
	if !ok || len(v) != 1 {
		return 0, false
	}
	return v[0], true
}

// Vector returns the value of a variable.
func (d Draw) Vector(name string) ([]float64, bool) {
	v, ok := d[name]
	return v, ok
}

// LinearDraw builds the draw of a linear model alpha + betas·x with noise sigma.
func LinearDraw(alpha float64, betas []float64, sigma float64) Draw {
	return Draw{
		Alpha: {alpha},
		Betas: append([]float64(nil), betas...),
		Sigma: {sigma},
	}
}

// Trace is the ordered sequence of draws returned by a sampler.
type Trace []Draw

// Len returns the number of draws.
func (t Trace) Len() int { return len(t) }

// Variables returns the sorted union of variable names across all draws.
func (t Trace) Variables() []string {
	seen := make(map[string]struct{})
	for _, d := range t {
		for name := range d {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
