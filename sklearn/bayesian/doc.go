// Package bayesian provides scikit-learn style wrappers around an external
// Bayesian linear regression engine.
//
// The engine is injected as a sampler; this package never runs MCMC itself.
// Two estimators are provided:
//
//   - BayesianLinearRegression asks a PredictiveSampler for posterior
//     predictive draws of the requested rows and reduces them to a mean and
//     standard deviation per row.
//   - BayesianLinearEstimation asks an EstimationSampler once, at Fit, for
//     parameter draws (alpha, betas, sigma), keeps the chain after warm-up
//     and predicts from posterior means, propagating parameter uncertainty
//     through the linear predictor.
//
// Basic usage:
//
//	sampler := trace.NewFileSampler("fit_trace.csv")
//	est := bayesian.NewBayesianLinearEstimation(sampler,
//	    bayesian.WithWarmup(500),
//	)
//	if err := est.Fit(X, y); err != nil {
//	    return err
//	}
//	out, err := est.PredictWithStd(Xtest) // column 0: mean, column 1: std
//
// Standard deviations use the population convention (divide by N).
package bayesian
