// Package bayesreg provides scikit-learn style estimators around an external
// Bayesian linear regression engine, for Go backend services that need
// predictions with uncertainty.
//
// The inference engine (Stan, PyMC, NumPyro or anything that exports draws)
// stays outside the process. bayesreg takes its posterior draws, either
// through a sampler callback or from an exported trace file, and turns them
// into predictions with a mean and a standard deviation per row.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/bayesreg/sklearn/bayesian"
//	    "github.com/YuminosukeSato/bayesreg/trace"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // alpha, betas[0], betas[1], sigma の列を持つトレース
//	    est := bayesian.NewBayesianLinearEstimation(
//	        trace.NewFileSampler("fit_trace.csv"),
//	        bayesian.WithWarmup(500),
//	    )
//	    X := mat.NewDense(1, 2, []float64{3, 4})
//	    if err := est.Fit(X, mat.NewDense(1, 1, nil)); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    out, err := est.PredictWithStd(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("mean:", out.At(0, 0), "std:", out.At(0, 1))
//	}
//
// # Packages
//
//   - sklearn/bayesian: BayesianLinearRegression (posterior predictive draws)
//     and BayesianLinearEstimation (parameter draws with uncertainty propagation)
//   - posterior: draw containers, warm-up handling and axis-0 reductions
//   - trace: Stan / PyMC / ArviZ trace readers for CSV and Excel files
//   - metrics: R², RMSE, MAE, Gaussian NLL and interval coverage
//   - viz: trace plots and prediction bands
//   - core/model: estimator interfaces, fit state and persistence
//   - core/parallel: row-parallel execution for large inputs
//   - cmd/bayespredict: command line and HTTP front end
//
// # Conventions
//
// Standard deviations are population standard deviations (divide by N).
// Prediction over more than 1000 rows is split across CPU cores.
package bayesreg
