package bayesian

import (
	"github.com/YuminosukeSato/bayesreg/pkg/log"
)

// EstimationOption configures BayesianLinearEstimation.
type EstimationOption func(*BayesianLinearEstimation)

// WithWarmup sets how many leading draws are discarded (default 100).
func WithWarmup(n int) EstimationOption {
	return func(e *BayesianLinearEstimation) {
		e.warmup = n
	}
}

// WithPropagation selects the uncertainty propagation mode.
func WithPropagation(p Propagation) EstimationOption {
	return func(e *BayesianLinearEstimation) {
		e.propagation = p
	}
}

// WithNoise adds the posterior mean of sigma² to the predictive variance, so
// PredictWithStd describes a new observation instead of the regression mean.
// The sampler must then return "sigma" draws.
func WithNoise(include bool) EstimationOption {
	return func(e *BayesianLinearEstimation) {
		e.includeNoise = include
	}
}

// WithMinChainLength sets the chain length below which Fit emits a
// SmallChainWarning (default 50). Zero disables the warning.
func WithMinChainLength(n int) EstimationOption {
	return func(e *BayesianLinearEstimation) {
		e.minChainLength = n
	}
}

// WithNJobs sets the number of goroutines used for large prediction batches.
// -1 uses all CPU cores.
func WithNJobs(n int) EstimationOption {
	return func(e *BayesianLinearEstimation) {
		e.nJobs = n
	}
}

// WithLogger overrides the component logger.
func WithLogger(l log.Logger) EstimationOption {
	return func(e *BayesianLinearEstimation) {
		e.logger = l
	}
}

// PredictiveOption configures BayesianLinearRegression.
type PredictiveOption func(*BayesianLinearRegression)

// WithObservationVar sets the key of the predictive draws (default "obs").
func WithObservationVar(name string) PredictiveOption {
	return func(r *BayesianLinearRegression) {
		r.variable = name
	}
}

// WithPredictiveLogger overrides the component logger.
func WithPredictiveLogger(l log.Logger) PredictiveOption {
	return func(r *BayesianLinearRegression) {
		r.logger = l
	}
}
