package bayesian

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bayesreg/core/model"
	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/pkg/log"
	"github.com/YuminosukeSato/bayesreg/posterior"
)

// linearTrace は warmup 個のダミードローの後に、alphas と betas を並べたトレースを作る
// ウォームアップのドローは平均に混ざると一目で分かる値にしておく。
func linearTrace(warmup int, alphas []float64, betas [][]float64) posterior.Trace {
	nFeatures := len(betas[0])
	trace := make(posterior.Trace, 0, warmup+len(alphas))
	junk := make([]float64, nFeatures)
	for f := range junk {
		junk[f] = 1000
	}
	for i := 0; i < warmup; i++ {
		trace = append(trace, posterior.Draw{
			posterior.Alpha: {1000},
			posterior.Betas: append([]float64(nil), junk...),
		})
	}
	for i := range alphas {
		trace = append(trace, posterior.Draw{
			posterior.Alpha: {alphas[i]},
			posterior.Betas: append([]float64(nil), betas[i]...),
		})
	}
	return trace
}

func fixedSampler(trace posterior.Trace) EstimationSampler {
	return EstimationSamplerFunc(func(context.Context, mat.Matrix, mat.Matrix) (posterior.Trace, error) {
		return trace, nil
	})
}

func trainingData(rows, cols int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, float64(i+j))
		}
		y.Set(i, 0, float64(i))
	}
	return X, y
}

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelError)
	return l
}

func fitted(t *testing.T, trace posterior.Trace, nFeatures int, opts ...EstimationOption) *BayesianLinearEstimation {
	t.Helper()
	opts = append([]EstimationOption{WithLogger(quietLogger()), WithMinChainLength(0)}, opts...)
	est := NewBayesianLinearEstimation(fixedSampler(trace), opts...)
	X, y := trainingData(3, nFeatures)
	require.NoError(t, est.Fit(X, y))
	return est
}

func TestEstimationPredictUsesPosteriorMean(t *testing.T) {
	trace := linearTrace(100,
		[]float64{2, 2},
		[][]float64{{1, 1}, {1, 1}},
	)
	est := fitted(t, trace, 2)

	pred, err := est.Predict(mat.NewDense(1, 2, []float64{3, 4}))
	require.NoError(t, err)
	r, c := pred.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 1, c)
	assert.InDelta(t, 9.0, pred.At(0, 0), 1e-12)

	withStd, err := est.PredictWithStd(mat.NewDense(1, 2, []float64{3, 4}))
	require.NoError(t, err)
	assert.InDelta(t, 9.0, withStd.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, withStd.At(0, 1))
}

func TestEstimationInterceptUncertainty(t *testing.T) {
	trace := linearTrace(100,
		[]float64{1, 3},
		[][]float64{{0}, {0}},
	)
	est := fitted(t, trace, 1)

	out, err := est.PredictWithStd(mat.NewDense(2, 1, []float64{0, 5}))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(0, 1), 1e-12)
	// beta の標準偏差が0なので x に依らない
	assert.InDelta(t, 1.0, out.At(1, 1), 1e-12)

	assert.InDelta(t, 2.0, est.Intercept(), 1e-12)
	assert.InDelta(t, 1.0, est.InterceptStd(), 1e-12)
	assert.Equal(t, []float64{0}, est.Coef())
	assert.Equal(t, []float64{0}, est.CoefStd())
}

func TestEstimationWarmupIsExcluded(t *testing.T) {
	trace := linearTrace(100,
		[]float64{1, 2, 3},
		[][]float64{{0}, {0}, {0}},
	)
	est := fitted(t, trace, 1)

	assert.InDelta(t, 2.0, est.Intercept(), 1e-12)
	chain := est.Chain()
	require.NotNil(t, chain)
	assert.Equal(t, 3, chain.Len())
	assert.Equal(t, 100, chain.Warmup())
	assert.Equal(t, 103, chain.Total())
}

func TestEstimationCustomWarmup(t *testing.T) {
	trace := linearTrace(5,
		[]float64{4, 6},
		[][]float64{{1}, {1}},
	)
	est := fitted(t, trace, 1, WithWarmup(5))

	assert.InDelta(t, 5.0, est.Intercept(), 1e-12)
}

func TestEstimationInsufficientSamples(t *testing.T) {
	for _, n := range []int{0, 50, 100} {
		trace := make(posterior.Trace, n)
		for i := range trace {
			trace[i] = posterior.LinearDraw(1, []float64{1}, 1)
		}
		est := NewBayesianLinearEstimation(fixedSampler(trace), WithLogger(quietLogger()))
		X, y := trainingData(3, 1)

		err := est.Fit(X, y)
		var insufficient *errors.InsufficientSamplesError
		require.ErrorAs(t, err, &insufficient, "n=%d", n)
		assert.Equal(t, n, insufficient.Draws)
		assert.Equal(t, 100, insufficient.Warmup)
		assert.False(t, est.IsFitted())
		assert.Nil(t, est.Chain())
	}
}

func TestEstimationSingleDrawAfterWarmup(t *testing.T) {
	trace := linearTrace(100, []float64{7}, [][]float64{{0.5}})
	est := fitted(t, trace, 1)

	out, err := est.PredictWithStd(mat.NewDense(1, 1, []float64{2}))
	require.NoError(t, err)
	assert.InDelta(t, 8.0, out.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, out.At(0, 1))
}

func TestEstimationNotFitted(t *testing.T) {
	est := NewBayesianLinearEstimation(fixedSampler(nil), WithLogger(quietLogger()))
	X := mat.NewDense(1, 1, []float64{1})

	_, err := est.Predict(X)
	var notFitted *errors.NotFittedError
	require.ErrorAs(t, err, &notFitted)
	assert.Equal(t, "Predict", notFitted.Method)

	_, err = est.PredictWithStd(X)
	require.ErrorAs(t, err, &notFitted)

	_, err = est.PredictInterval(X, 0.9)
	require.ErrorAs(t, err, &notFitted)

	_, err = est.ExportWeights()
	require.ErrorAs(t, err, &notFitted)

	assert.Nil(t, est.Coef())
	assert.Equal(t, 0.0, est.Intercept())
}

func TestEstimationFailedFitKeepsPreviousChain(t *testing.T) {
	good := linearTrace(100, []float64{1, 1}, [][]float64{{1}, {1}})
	calls := 0
	sampler := EstimationSamplerFunc(func(context.Context, mat.Matrix, mat.Matrix) (posterior.Trace, error) {
		calls++
		if calls == 1 {
			return good, nil
		}
		return good[:10], nil
	})
	est := NewBayesianLinearEstimation(sampler, WithLogger(quietLogger()), WithMinChainLength(0))
	X, y := trainingData(3, 1)

	require.NoError(t, est.Fit(X, y))
	var insufficient *errors.InsufficientSamplesError
	require.ErrorAs(t, est.Fit(X, y), &insufficient)

	assert.True(t, est.IsFitted())
	pred, err := est.Predict(mat.NewDense(1, 1, []float64{2}))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, pred.At(0, 0), 1e-12)
}

func TestEstimationRowPermutation(t *testing.T) {
	trace := linearTrace(100,
		[]float64{0.5, 1.5, 1.0},
		[][]float64{{1, -1}, {2, 0}, {3, 1}},
	)
	est := fitted(t, trace, 2)

	X := mat.NewDense(3, 2, []float64{
		1, 2,
		-1, 0.5,
		3, 3,
	})
	perm := []int{2, 0, 1}
	Xp := mat.NewDense(3, 2, nil)
	for i, p := range perm {
		Xp.SetRow(i, mat.Row(nil, p, X))
	}

	out, err := est.PredictWithStd(X)
	require.NoError(t, err)
	outP, err := est.PredictWithStd(Xp)
	require.NoError(t, err)

	for i, p := range perm {
		assert.InDelta(t, out.At(p, 0), outP.At(i, 0), 1e-12)
		assert.InDelta(t, out.At(p, 1), outP.At(i, 1), 1e-12)
	}
}

func TestEstimationPropagationModes(t *testing.T) {
	// beta が alpha と完全に相関しているチェーン
	trace := linearTrace(100,
		[]float64{1, 3},
		[][]float64{{1}, {3}},
	)
	X := mat.NewDense(1, 1, []float64{2})

	independent := fitted(t, trace, 1)
	out, err := independent.PredictWithStd(X)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, math.Sqrt(5), out.At(0, 1), 1e-12)

	covariance := fitted(t, trace, 1, WithPropagation(PropagationCovariance))
	out, err = covariance.PredictWithStd(X)
	require.NoError(t, err)
	// ドローごとの予測値 3 と 9 の母標準偏差
	assert.InDelta(t, 3.0, out.At(0, 1), 1e-12)
}

func TestEstimationPropagationCorrelation(t *testing.T) {
	X := mat.NewDense(1, 1, []float64{2})
	predictStd := func(trace posterior.Trace, p Propagation) float64 {
		out, err := fitted(t, trace, 1, WithPropagation(p)).PredictWithStd(X)
		require.NoError(t, err)
		return out.At(0, 1)
	}

	// alpha と beta が無相関になるように組んだチェーン
	uncorrelated := linearTrace(100,
		[]float64{1, 3, 1, 3},
		[][]float64{{1}, {1}, {3}, {3}},
	)
	assert.InDelta(t,
		predictStd(uncorrelated, PropagationIndependent),
		predictStd(uncorrelated, PropagationCovariance),
		1e-12)

	antiCorrelated := linearTrace(100,
		[]float64{1, 3},
		[][]float64{{3}, {1}},
	)
	assert.InDelta(t, math.Sqrt(5), predictStd(antiCorrelated, PropagationIndependent), 1e-12)
	assert.InDelta(t, 1.0, predictStd(antiCorrelated, PropagationCovariance), 1e-12)
}

func TestEstimationIncludeNoise(t *testing.T) {
	trace := make(posterior.Trace, 0, 102)
	for i := 0; i < 102; i++ {
		trace = append(trace, posterior.LinearDraw(1, []float64{1}, 2))
	}
	est := fitted(t, trace, 1, WithNoise(true))

	out, err := est.PredictWithStd(mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, out.At(0, 1), 1e-12)

	noSigma := linearTrace(100, []float64{1, 1}, [][]float64{{1}, {1}})
	est = NewBayesianLinearEstimation(fixedSampler(noSigma), WithLogger(quietLogger()), WithNoise(true))
	X, y := trainingData(3, 1)
	var valueErr *errors.ValueError
	require.ErrorAs(t, est.Fit(X, y), &valueErr)
}

func TestEstimationSamplerFailures(t *testing.T) {
	X, y := trainingData(3, 1)
	engineDown := errors.New("engine down")

	t.Run("error", func(t *testing.T) {
		est := NewBayesianLinearEstimation(EstimationSamplerFunc(
			func(context.Context, mat.Matrix, mat.Matrix) (posterior.Trace, error) {
				return nil, engineDown
			}), WithLogger(quietLogger()))

		err := est.Fit(X, y)
		var modelErr *errors.ModelError
		require.ErrorAs(t, err, &modelErr)
		assert.Equal(t, "sampler failed", modelErr.Kind)
		assert.True(t, errors.Is(err, engineDown))
		assert.False(t, est.IsFitted())
	})

	t.Run("panic", func(t *testing.T) {
		est := NewBayesianLinearEstimation(EstimationSamplerFunc(
			func(context.Context, mat.Matrix, mat.Matrix) (posterior.Trace, error) {
				panic("divergent transitions")
			}), WithLogger(quietLogger()))

		err := est.Fit(X, y)
		var panicErr *errors.PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "divergent transitions", panicErr.PanicValue)
	})

	t.Run("nil sampler", func(t *testing.T) {
		est := NewBayesianLinearEstimation(nil, WithLogger(quietLogger()))
		assert.True(t, errors.Is(est.Fit(X, y), errors.ErrNoSampler))
	})

	t.Run("nan draw", func(t *testing.T) {
		trace := linearTrace(100, []float64{1, math.NaN()}, [][]float64{{1}, {1}})
		est := NewBayesianLinearEstimation(fixedSampler(trace), WithLogger(quietLogger()))
		var numErr *errors.NumericalInstabilityError
		require.ErrorAs(t, est.Fit(X, y), &numErr)
		assert.Equal(t, 101, numErr.Index)
	})
}

func TestEstimationFeatureCountChecks(t *testing.T) {
	trace := linearTrace(100, []float64{1}, [][]float64{{1, 2, 3}})
	est := NewBayesianLinearEstimation(fixedSampler(trace), WithLogger(quietLogger()))
	X, y := trainingData(3, 2)

	var dimErr *errors.DimensionError
	require.ErrorAs(t, est.Fit(X, y), &dimErr)
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)

	ok := fitted(t, linearTrace(100, []float64{1}, [][]float64{{1, 2}}), 2)
	_, err := ok.Predict(mat.NewDense(1, 3, []float64{1, 2, 3}))
	require.ErrorAs(t, err, &dimErr)

	_, err = ok.Predict(&mat.Dense{})
	require.Error(t, err)
}

func TestEstimationFitValidatesInput(t *testing.T) {
	est := NewBayesianLinearEstimation(fixedSampler(nil), WithLogger(quietLogger()))

	var dimErr *errors.DimensionError
	require.ErrorAs(t, est.Fit(mat.NewDense(3, 1, nil), mat.NewDense(2, 1, nil)), &dimErr)

	var valueErr *errors.ValueError
	require.ErrorAs(t, est.Fit(mat.NewDense(3, 1, nil), mat.NewDense(3, 2, nil)), &valueErr)

	assert.True(t, errors.Is(est.Fit(&mat.Dense{}, &mat.Dense{}), errors.ErrEmptyData))
}

func TestEstimationSamplerReceivesContextAndData(t *testing.T) {
	type ctxKey struct{}
	X, y := trainingData(4, 1)

	var seenRows int
	var seenValue interface{}
	sampler := EstimationSamplerFunc(func(ctx context.Context, gotX, gotY mat.Matrix) (posterior.Trace, error) {
		seenRows, _ = gotY.Dims()
		seenValue = ctx.Value(ctxKey{})
		return linearTrace(100, []float64{0}, [][]float64{{1}}), nil
	})
	est := NewBayesianLinearEstimation(sampler, WithLogger(quietLogger()), WithMinChainLength(0))

	ctx := context.WithValue(context.Background(), ctxKey{}, "run-1")
	require.NoError(t, est.FitContext(ctx, X, y))
	assert.Equal(t, 4, seenRows)
	assert.Equal(t, "run-1", seenValue)
}

func TestEstimationCanceledPredict(t *testing.T) {
	est := fitted(t, linearTrace(100, []float64{1}, [][]float64{{1}}), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := est.PredictContext(ctx, mat.NewDense(1, 1, []float64{1}))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEstimationPredictInterval(t *testing.T) {
	alphas := make([]float64, 100)
	betas := make([][]float64, 100)
	for i := range alphas {
		alphas[i] = float64(i + 1)
		betas[i] = []float64{0}
	}
	est := fitted(t, linearTrace(100, alphas, betas), 1)

	interval, err := est.PredictInterval(mat.NewDense(2, 1, []float64{0, 10}), 0.9)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		assert.InDelta(t, 5.0, interval.At(i, 0), 1.0)
		assert.InDelta(t, 95.0, interval.At(i, 1), 1.0)
		assert.Less(t, interval.At(i, 0), est.Intercept())
		assert.Greater(t, interval.At(i, 1), est.Intercept())
	}

	var validationErr *errors.ValidationError
	_, err = est.PredictInterval(mat.NewDense(1, 1, []float64{0}), 1.5)
	require.ErrorAs(t, err, &validationErr)
}

func TestEstimationScore(t *testing.T) {
	est := fitted(t, linearTrace(100, []float64{1, 1}, [][]float64{{2}, {2}}), 1)

	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{1, 3, 5, 7})
	score, err := est.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)
}

func TestEstimationParallelMatchesSequential(t *testing.T) {
	trace := linearTrace(100,
		[]float64{0.5, 1.5, 1.0},
		[][]float64{{1, -1}, {2, 0}, {3, 1}},
	)
	sequential := fitted(t, trace, 2)
	concurrent := fitted(t, trace, 2, WithNJobs(4))

	rows := 2500
	X := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		X.Set(i, 0, float64(i)/100)
		X.Set(i, 1, float64(rows-i)/50)
	}

	want, err := sequential.PredictWithStd(X)
	require.NoError(t, err)
	got, err := concurrent.PredictWithStd(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}

func TestEstimationParams(t *testing.T) {
	est := NewBayesianLinearEstimation(nil)

	params := est.GetParams(true)
	assert.Equal(t, 100, params["warmup"])
	assert.Equal(t, "independent", params["propagation"])
	assert.Equal(t, false, params["include_noise"])
	assert.Equal(t, 50, params["min_chain_length"])

	require.NoError(t, est.SetParams(map[string]interface{}{
		"warmup":      500.0,
		"propagation": "covariance",
		"n_jobs":      -1,
	}))
	params = est.GetParams(false)
	assert.Equal(t, 500, params["warmup"])
	assert.Equal(t, "covariance", params["propagation"])
	assert.Equal(t, -1, params["n_jobs"])

	var validationErr *errors.ValidationError
	require.ErrorAs(t, est.SetParams(map[string]interface{}{"warmup": -1}), &validationErr)
	require.ErrorAs(t, est.SetParams(map[string]interface{}{"warmup": 1.5}), &validationErr)
	require.ErrorAs(t, est.SetParams(map[string]interface{}{"propagation": "magic"}), &validationErr)
	require.ErrorAs(t, est.SetParams(map[string]interface{}{"alpha": 1.0}), &validationErr)

	assert.Contains(t, est.String(), "warmup=500")
	assert.Contains(t, est.String(), "fitted=false")
}

func TestEstimationSetParamsIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"unknown key", map[string]interface{}{"warmup": 5, "propagation": "covariance", "bogus": 1}},
		{"invalid warmup", map[string]interface{}{"n_jobs": 4, "include_noise": true, "warmup": -3}},
		{"invalid propagation", map[string]interface{}{"warmup": 5, "min_chain_length": 7, "propagation": "magic"}},
		{"invalid bool", map[string]interface{}{"warmup": 5, "include_noise": "yes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := NewBayesianLinearEstimation(nil)
			before := est.GetParams(true)
			// map の走査順に依存しないことを確かめるため何度も試す
			for i := 0; i < 50; i++ {
				require.Error(t, est.SetParams(tt.params))
				require.Equal(t, before, est.GetParams(true))
			}
		})
	}
}

func TestEstimationThroughModelInterfaces(t *testing.T) {
	trace := linearTrace(100, []float64{1, 3}, [][]float64{{2}, {2}})
	X, y := trainingData(3, 1)

	var estimator model.Estimator = NewBayesianLinearEstimation(fixedSampler(trace),
		WithLogger(quietLogger()), WithMinChainLength(0))
	require.NoError(t, estimator.Fit(X, y))

	probabilistic, ok := estimator.(model.ProbabilisticPredictor)
	require.True(t, ok)
	out, err := probabilistic.PredictWithStd(mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)
	assert.InDelta(t, 4.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(0, 1), 1e-12)

	interval, err := estimator.(model.IntervalPredictor).PredictInterval(mat.NewDense(1, 1, []float64{1}), 0.5)
	require.NoError(t, err)
	assert.LessOrEqual(t, interval.At(0, 0), interval.At(0, 1))

	linear := estimator.(model.LinearModel)
	assert.Equal(t, []float64{2}, linear.Coef())
	assert.InDelta(t, 2.0, linear.Intercept(), 1e-12)

	weights, err := estimator.(model.WeightExporter).ExportWeights()
	require.NoError(t, err)
	assert.True(t, weights.IsFitted)

	score, err := estimator.(model.Scorer).Score(X, y)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(score))
}

func TestEstimationCloneKeepsFit(t *testing.T) {
	est := fitted(t, linearTrace(100, []float64{1, 3}, [][]float64{{2}, {2}}), 1,
		WithPropagation(PropagationCovariance))

	clone, ok := est.Clone().(*BayesianLinearEstimation)
	require.True(t, ok)
	assert.Equal(t, est.GetParams(true), clone.GetParams(true))

	X := mat.NewDense(1, 1, []float64{1})
	want, err := est.PredictWithStd(X)
	require.NoError(t, err)
	got, err := clone.PredictWithStd(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))

	clone.Reset()
	assert.False(t, clone.IsFitted())
	assert.True(t, est.IsFitted())
}

func TestEstimationExportWeights(t *testing.T) {
	est := fitted(t, linearTrace(100, []float64{1, 3}, [][]float64{{2, 0}, {4, 0}}), 2)

	w, err := est.ExportWeights()
	require.NoError(t, err)
	require.NoError(t, w.Validate())
	assert.Equal(t, "BayesianLinearEstimation", w.ModelType)
	assert.InDelta(t, 2.0, w.Intercept, 1e-12)
	assert.InDelta(t, 1.0, w.InterceptStd, 1e-12)
	assert.InDeltaSlice(t, []float64{3, 0}, w.Coefficients, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0}, w.CoefficientsStd, 1e-12)
	assert.Equal(t, 2, w.Metadata["chain_draws"])
}

func TestEstimationSaveLoad(t *testing.T) {
	est := fitted(t, linearTrace(100, []float64{1, 3}, [][]float64{{1}, {3}}), 1,
		WithPropagation(PropagationCovariance), WithWarmup(100))
	X := mat.NewDense(2, 1, []float64{2, -1})
	want, err := est.PredictWithStd(X)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "chain.gob")
	require.NoError(t, est.Save(path))

	// サンプラーなしでも保存したチェーンから予測できる
	loaded := NewBayesianLinearEstimation(nil, WithLogger(quietLogger()))
	require.NoError(t, loaded.Load(path))
	assert.True(t, loaded.IsFitted())
	assert.Equal(t, "covariance", loaded.GetParams(true)["propagation"])

	got, err := loaded.PredictWithStd(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))

	var buf bytes.Buffer
	require.NoError(t, est.SaveTo(&buf))
	again := NewBayesianLinearEstimation(nil, WithLogger(quietLogger()))
	require.NoError(t, again.LoadFrom(&buf))
	assert.Equal(t, est.Coef(), again.Coef())

	unfitted := NewBayesianLinearEstimation(nil)
	var notFitted *errors.NotFittedError
	require.ErrorAs(t, unfitted.Save(filepath.Join(t.TempDir(), "x.gob")), &notFitted)
}

func TestEstimationSummary(t *testing.T) {
	est := fitted(t, linearTrace(100, []float64{1, 2, 3}, [][]float64{{0}, {0}, {0}}), 1)

	s, err := est.Summary(posterior.Alpha, 0, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.Median, 1e-12)
	assert.LessOrEqual(t, s.Lower, s.Median)
	assert.GreaterOrEqual(t, s.Upper, s.Median)
}

func TestEstimationLogging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	est := NewBayesianLinearEstimation(
		fixedSampler(linearTrace(100, []float64{1, 1}, [][]float64{{1}, {1}})),
		WithLogger(logger),
		WithMinChainLength(0),
	)
	X, y := trainingData(3, 1)
	require.NoError(t, est.Fit(X, y))
	_, err := est.PredictWithStd(mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("Fit completed"))
	assert.True(t, logger.ContainsField(log.ChainDrawsKey, 2.0))
	assert.True(t, logger.ContainsField(log.ChainWarmupKey, 100.0))
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationPredictStd))
	assert.True(t, logger.ContainsField(log.PropagationKey, "independent"))
}

func TestEstimationSmallChainWarning(t *testing.T) {
	provider, buf := log.NewTestLoggerProvider(log.LevelDebug)
	prev := log.SetProvider(provider)
	t.Cleanup(func() { log.SetProvider(prev) })

	est := NewBayesianLinearEstimation(fixedSampler(linearTrace(100, []float64{1, 1}, [][]float64{{1}, {1}})))
	X, y := trainingData(3, 1)
	require.NoError(t, est.Fit(X, y))

	assert.Contains(t, buf.String(), "chain has only 2 draws after warm-up")
	assert.Contains(t, buf.String(), `"ml.component":"warnings"`)
	assert.True(t, est.IsFitted())
}
