// Package posterior holds posterior draws produced by an external inference
// engine and reduces them along the draw axis.
//
// A Trace is what a sampler returns: an ordered slice of Draws, each mapping
// a variable name to its value (scalars are length-1 vectors). NewChain
// discards the warm-up prefix and stores the rest column-wise, one
// draws×dim matrix per variable, so means, population standard deviations,
// covariances and quantiles are single passes over contiguous columns.
//
// PredictiveSamples is the predictive counterpart: variable name to a
// draws×n_samples matrix of posterior predictive draws.
//
// All standard deviations and covariances here use the population
// convention (divide by N), matching numpy's default reduction.
package posterior
