// Package trace reads posterior draws exported by an external inference
// engine and replays them through the bayesian sampler interfaces.
//
// A trace table has one header row and one draw per row. Lines starting with
// '#' are ignored, so Stan CSV output can be read as is. Vector components
// are recognised in the common exporter spellings:
//
//	betas.1, betas.2     Stan (1-based)
//	betas[0], betas[1]   PyMC (0-based)
//	betas__0, betas__1   ArviZ (0-based)
//
// Other columns (alpha, sigma, lp__, accept_stat__) become scalar variables.
// Tables are read from .csv files or from the first sheet of .xlsx workbooks.
package trace
