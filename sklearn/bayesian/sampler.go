package bayesian

import (
	"context"

	"github.com/YuminosukeSato/bayesreg/posterior"
	"gonum.org/v1/gonum/mat"
)

// EstimationSampler produces posterior parameter draws of the linear model
// y = alpha + X·betas + noise(sigma) given training data.
//
// Each returned draw must carry "alpha" (scalar) and "betas" (one value per
// column of X); "sigma" is optional. Implementations may take minutes and
// should honour ctx cancellation.
type EstimationSampler interface {
	SampleParams(ctx context.Context, X, y mat.Matrix) (posterior.Trace, error)
}

// EstimationSamplerFunc adapts a function to EstimationSampler.
type EstimationSamplerFunc func(ctx context.Context, X, y mat.Matrix) (posterior.Trace, error)

// SampleParams calls f(ctx, X, y).
func (f EstimationSamplerFunc) SampleParams(ctx context.Context, X, y mat.Matrix) (posterior.Trace, error) {
	return f(ctx, X, y)
}

// PredictiveSampler produces posterior predictive draws for the rows of X.
// The result must hold a draws×rows(X) matrix under the observation variable
// ("obs" unless configured otherwise).
type PredictiveSampler interface {
	SamplePredictive(ctx context.Context, X mat.Matrix) (posterior.PredictiveSamples, error)
}

// PredictiveSamplerFunc adapts a function to PredictiveSampler.
type PredictiveSamplerFunc func(ctx context.Context, X mat.Matrix) (posterior.PredictiveSamples, error)

// SamplePredictive calls f(ctx, X).
func (f PredictiveSamplerFunc) SamplePredictive(ctx context.Context, X mat.Matrix) (posterior.PredictiveSamples, error) {
	return f(ctx, X)
}
