package main

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/YuminosukeSato/bayesreg/metrics"
	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/pkg/log"
	"github.com/YuminosukeSato/bayesreg/posterior"
	"github.com/YuminosukeSato/bayesreg/sklearn/bayesian"
	"github.com/YuminosukeSato/bayesreg/trace"
	"github.com/YuminosukeSato/bayesreg/viz"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// app holds one run: the config, the inputs and the fitted estimator.
type app struct {
	cfg    *Config
	runID  string
	logger log.Logger
	est    *bayesian.BayesianLinearEstimation

	traceOpts []trace.Option

	features *trace.Table
	target   *mat.Dense
}

func newApp(cfg *Config) (*app, error) {
	var traceOpts []trace.Option
	for from, to := range cfg.Aliases {
		traceOpts = append(traceOpts, trace.WithAlias(from, to))
	}
	if cfg.Sheet != "" {
		traceOpts = append(traceOpts, trace.WithSheet(cfg.Sheet))
	}

	runID := uuid.NewString()
	logger := log.GetLoggerWithName("bayespredict").With("run_id", runID)
	opts := append(cfg.estimatorOptions(), bayesian.WithLogger(logger))

	return &app{
		cfg:       cfg,
		runID:     runID,
		logger:    logger,
		est:       bayesian.NewBayesianLinearEstimation(trace.NewFileSampler(cfg.Trace, traceOpts...), opts...),
		traceOpts: traceOpts,
	}, nil
}

// load reads the feature and target tables concurrently.
func (a *app) load(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	if a.cfg.Features != "" {
		g.Go(func() error {
			t, err := trace.ReadMatrix(a.cfg.Features)
			if err != nil {
				return errors.Wrap(err, "features")
			}
			a.features = t
			return nil
		})
	}
	if a.cfg.Target != "" {
		g.Go(func() error {
			t, err := trace.ReadMatrix(a.cfg.Target)
			if err != nil {
				return errors.Wrap(err, "target")
			}
			if _, c := t.Data.Dims(); c != 1 {
				return errors.NewDimensionError("target", 1, c, 1)
			}
			a.target = t.Data
			return nil
		})
	}
	return g.Wait()
}

// fit loads the inputs and fits the estimator from the trace. The file
// sampler ignores the training data, so the feature table only fixes the
// number of features; without a feature table it is taken from the trace.
func (a *app) fit(ctx context.Context) error {
	if err := a.load(ctx); err != nil {
		return err
	}

	var X mat.Matrix
	if a.features != nil {
		X = a.features.Data
	} else {
		n, err := a.traceFeatureCount()
		if err != nil {
			return err
		}
		X = mat.NewDense(1, n, nil)
	}
	rows, _ := X.Dims()
	var y mat.Matrix = mat.NewDense(rows, 1, nil)
	if a.target != nil {
		if r, _ := a.target.Dims(); r != rows {
			return errors.NewDimensionError("target", rows, r, 0)
		}
		y = a.target
	}

	if err := a.est.FitContext(ctx, X, y); err != nil {
		return err
	}
	a.logger.Info("Model ready",
		log.ChainDrawsKey, a.est.Chain().Len(),
		log.PropagationKey, a.cfg.Propagation,
	)

	if a.cfg.SaveChain != "" {
		if err := a.est.Save(a.cfg.SaveChain); err != nil {
			return err
		}
	}
	if a.cfg.TracePlot != "" {
		p, err := viz.TracePlot(a.est.Chain(), posterior.Alpha, 0)
		if err != nil {
			return err
		}
		if err := viz.Save(p, a.cfg.TracePlot); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) traceFeatureCount() (int, error) {
	tr, err := trace.ReadFile(a.cfg.Trace, a.traceOpts...)
	if err != nil {
		return 0, err
	}
	if len(tr) == 0 {
		return 0, errors.NewValueError("bayespredict", "trace has no draws")
	}
	betas, ok := tr[len(tr)-1].Vector(posterior.Betas)
	if !ok {
		return 0, errors.NewValueError("bayespredict", "trace has no betas")
	}
	return len(betas), nil
}

// predict writes prediction[,std][,lower,upper] rows as CSV.
func (a *app) predict(ctx context.Context, w io.Writer) error {
	X := a.features.Data

	var (
		pred mat.Matrix
		err  error
	)
	if a.cfg.ReturnStd || a.cfg.Plot != "" || a.target != nil {
		pred, err = a.est.PredictWithStdContext(ctx, X)
	} else {
		pred, err = a.est.PredictContext(ctx, X)
	}
	if err != nil {
		return err
	}

	var interval mat.Matrix
	if a.cfg.IntervalLevel > 0 {
		if interval, err = a.est.PredictInterval(X, a.cfg.IntervalLevel); err != nil {
			return err
		}
	}

	if err := writePredictions(w, pred, a.cfg.ReturnStd, interval); err != nil {
		return err
	}

	if a.target != nil {
		if err := a.evaluate(pred, interval); err != nil {
			return err
		}
	}
	if a.cfg.Plot != "" {
		var observed []float64
		if a.target != nil {
			observed = mat.Col(nil, 0, a.target)
		}
		p, err := viz.PredictionBand(mat.Col(nil, 0, X), pred, 2, observed)
		if err != nil {
			return err
		}
		return viz.Save(p, a.cfg.Plot)
	}
	return nil
}

func (a *app) evaluate(pred, interval mat.Matrix) error {
	r2, err := metrics.R2ScoreMatrix(a.target, pred)
	if err != nil {
		return err
	}
	yTrue, _ := metrics.ColumnVector("evaluate", a.target)
	yPred, _ := metrics.ColumnVector("evaluate", pred)
	rmse, err := metrics.RMSE(yTrue, yPred)
	if err != nil {
		return err
	}
	nll, err := metrics.GaussianNLL(a.target, pred)
	if err != nil {
		return err
	}

	fields := []any{
		log.R2ScoreKey, r2,
		"metrics.rmse", rmse,
		"metrics.gaussian_nll", nll,
	}
	if interval != nil {
		coverage, err := metrics.Coverage(a.target, interval)
		if err != nil {
			return err
		}
		fields = append(fields, "metrics.coverage", coverage)
	}
	a.logger.Info("Evaluation", fields...)
	return nil
}

func writePredictions(w io.Writer, pred mat.Matrix, withStd bool, interval mat.Matrix) error {
	cw := csv.NewWriter(w)
	header := []string{"prediction"}
	if withStd {
		header = append(header, "std")
	}
	if interval != nil {
		header = append(header, "lower", "upper")
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}

	rows, _ := pred.Dims()
	record := make([]string, len(header))
	for i := 0; i < rows; i++ {
		record = record[:0]
		record = append(record, formatFloat(pred.At(i, 0)))
		if withStd {
			record = append(record, formatFloat(pred.At(i, 1)))
		}
		if interval != nil {
			record = append(record, formatFloat(interval.At(i, 0)), formatFloat(interval.At(i, 1)))
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
