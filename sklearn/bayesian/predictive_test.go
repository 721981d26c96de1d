package bayesian

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bayesreg/core/model"
	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/pkg/log"
	"github.com/YuminosukeSato/bayesreg/posterior"
)

// fixedPredictive は X の行数に関係なく draws を "obs" として返す
func fixedPredictive(draws *mat.Dense) PredictiveSampler {
	return PredictiveSamplerFunc(func(context.Context, mat.Matrix) (posterior.PredictiveSamples, error) {
		return posterior.PredictiveSamples{posterior.Observation: draws}, nil
	})
}

func quietPredictive(sampler PredictiveSampler, opts ...PredictiveOption) *BayesianLinearRegression {
	return NewBayesianLinearRegression(sampler, append([]PredictiveOption{WithPredictiveLogger(quietLogger())}, opts...)...)
}

func TestPredictiveReducesDraws(t *testing.T) {
	draws := mat.NewDense(2, 3, []float64{
		1, 10, 4,
		3, 10, 6,
	})
	reg := quietPredictive(fixedPredictive(draws))
	X := mat.NewDense(3, 1, []float64{0, 1, 2})

	pred, err := reg.Predict(X)
	require.NoError(t, err)
	r, c := pred.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
	assert.InDeltaSlice(t, []float64{2, 10, 5}, mat.Col(nil, 0, pred), 1e-12)

	withStd, err := reg.PredictWithStd(X)
	require.NoError(t, err)
	_, c = withStd.Dims()
	assert.Equal(t, 2, c)
	assert.InDeltaSlice(t, []float64{2, 10, 5}, mat.Col(nil, 0, withStd), 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0, 1}, mat.Col(nil, 1, withStd), 1e-12)

	last := reg.LastSamples()
	require.NotNil(t, last)
	assert.Same(t, draws, last[posterior.Observation])
}

func TestPredictiveSamplerSeesRequestedRows(t *testing.T) {
	var seen int
	sampler := PredictiveSamplerFunc(func(_ context.Context, X mat.Matrix) (posterior.PredictiveSamples, error) {
		seen, _ = X.Dims()
		return posterior.PredictiveSamples{posterior.Observation: mat.NewDense(4, seen, nil)}, nil
	})
	reg := quietPredictive(sampler)

	_, err := reg.Predict(mat.NewDense(5, 2, nil))
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
}

func TestPredictiveFitDoesNotSample(t *testing.T) {
	calls := 0
	sampler := PredictiveSamplerFunc(func(_ context.Context, X mat.Matrix) (posterior.PredictiveSamples, error) {
		calls++
		r, _ := X.Dims()
		return posterior.PredictiveSamples{posterior.Observation: mat.NewDense(2, r, nil)}, nil
	})
	reg := quietPredictive(sampler)

	require.NoError(t, reg.Fit(mat.NewDense(3, 2, nil), mat.NewDense(3, 1, nil)))
	assert.Equal(t, 0, calls)
	assert.True(t, reg.IsFitted())

	var dimErr *errors.DimensionError
	_, err := reg.Predict(mat.NewDense(1, 3, nil))
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 0, calls)

	_, err = reg.Predict(mat.NewDense(1, 2, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	reg.Reset()
	assert.False(t, reg.IsFitted())
	assert.Nil(t, reg.LastSamples())
}

func TestPredictiveBadSamples(t *testing.T) {
	X := mat.NewDense(2, 1, nil)

	t.Run("missing variable", func(t *testing.T) {
		reg := quietPredictive(PredictiveSamplerFunc(func(context.Context, mat.Matrix) (posterior.PredictiveSamples, error) {
			return posterior.PredictiveSamples{"mu": mat.NewDense(2, 2, nil)}, nil
		}))
		var valueErr *errors.ValueError
		_, err := reg.Predict(X)
		require.ErrorAs(t, err, &valueErr)
	})

	t.Run("wrong column count", func(t *testing.T) {
		reg := quietPredictive(fixedPredictive(mat.NewDense(2, 3, nil)))
		var dimErr *errors.DimensionError
		_, err := reg.PredictWithStd(X)
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 2, dimErr.Expected)
		assert.Equal(t, 3, dimErr.Got)
	})

	t.Run("sampler error", func(t *testing.T) {
		boom := errors.New("boom")
		reg := quietPredictive(PredictiveSamplerFunc(func(context.Context, mat.Matrix) (posterior.PredictiveSamples, error) {
			return nil, boom
		}))
		_, err := reg.Predict(X)
		var modelErr *errors.ModelError
		require.ErrorAs(t, err, &modelErr)
		assert.True(t, errors.Is(err, boom))
		assert.Nil(t, reg.LastSamples())
	})

	t.Run("sampler panic", func(t *testing.T) {
		reg := quietPredictive(PredictiveSamplerFunc(func(context.Context, mat.Matrix) (posterior.PredictiveSamples, error) {
			panic("out of memory")
		}))
		_, err := reg.Predict(X)
		var panicErr *errors.PanicError
		require.ErrorAs(t, err, &panicErr)
	})

	t.Run("nil sampler", func(t *testing.T) {
		reg := quietPredictive(nil)
		_, err := reg.Predict(X)
		assert.True(t, errors.Is(err, errors.ErrNoSampler))
	})
}

func TestPredictiveObservationVar(t *testing.T) {
	sampler := PredictiveSamplerFunc(func(context.Context, mat.Matrix) (posterior.PredictiveSamples, error) {
		return posterior.PredictiveSamples{
			posterior.Observation: mat.NewDense(1, 1, []float64{100}),
			"y_new":               mat.NewDense(2, 1, []float64{1, 3}),
		}, nil
	})
	reg := quietPredictive(sampler, WithObservationVar("y_new"))

	out, err := reg.PredictWithStd(mat.NewDense(1, 1, nil))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(0, 1), 1e-12)

	assert.Equal(t, "y_new", reg.GetParams(true)["observation_var"])
	require.NoError(t, reg.SetParams(map[string]interface{}{"observation_var": "obs"}))
	out, err = reg.Predict(mat.NewDense(1, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, 100.0, out.At(0, 0))

	var validationErr *errors.ValidationError
	require.ErrorAs(t, reg.SetParams(map[string]interface{}{"observation_var": ""}), &validationErr)
}

func TestPredictiveSetParamsIsAllOrNothing(t *testing.T) {
	reg := quietPredictive(nil, WithObservationVar("y"))
	for i := 0; i < 50; i++ {
		require.Error(t, reg.SetParams(map[string]interface{}{"observation_var": "obs", "bogus": 1}))
		require.Equal(t, "y", reg.GetParams(true)["observation_var"])
	}
}

func TestPredictiveThroughModelInterfaces(t *testing.T) {
	draws := mat.NewDense(2, 1, []float64{1, 3})
	var estimator model.Estimator = quietPredictive(fixedPredictive(draws))
	require.NoError(t, estimator.Fit(mat.NewDense(1, 1, nil), mat.NewDense(1, 1, nil)))

	out, err := estimator.(model.ProbabilisticPredictor).PredictWithStd(mat.NewDense(1, 1, nil))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(0, 1), 1e-12)

	interval, err := estimator.(model.IntervalPredictor).PredictInterval(mat.NewDense(1, 1, nil), 0.5)
	require.NoError(t, err)
	assert.LessOrEqual(t, interval.At(0, 0), interval.At(0, 1))

	_, err = estimator.(model.Scorer).Score(mat.NewDense(1, 1, nil), mat.NewDense(1, 1, []float64{2}))
	// 1 行では全平方和が 0 になり R² は定義されない
	require.Error(t, err)
}

func TestPredictiveIntervalAndScore(t *testing.T) {
	draws := mat.NewDense(5, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
		5, 50,
	})
	reg := quietPredictive(fixedPredictive(draws))
	X := mat.NewDense(2, 1, nil)

	interval, err := reg.PredictInterval(X, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2.0, interval.At(0, 0))
	assert.Equal(t, 4.0, interval.At(0, 1))
	assert.Equal(t, 20.0, interval.At(1, 0))
	assert.Equal(t, 40.0, interval.At(1, 1))

	score, err := reg.Score(X, mat.NewDense(2, 1, []float64{3, 30}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)
}

func TestPredictiveCloneAndString(t *testing.T) {
	reg := quietPredictive(fixedPredictive(mat.NewDense(1, 1, nil)), WithObservationVar("y"))
	require.NoError(t, reg.Fit(mat.NewDense(1, 1, nil), mat.NewDense(1, 1, nil)))

	var _ model.SKLearnCompatible = reg
	clone := reg.Clone().(*BayesianLinearRegression)
	assert.Equal(t, reg.GetParams(true), clone.GetParams(true))
	assert.False(t, clone.IsFitted())
	assert.Contains(t, reg.String(), "observation_var=y")
}

func TestPredictiveLogging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	reg := NewBayesianLinearRegression(fixedPredictive(mat.NewDense(3, 1, nil)), WithPredictiveLogger(logger))

	_, err := reg.PredictWithStd(mat.NewDense(1, 1, nil))
	require.NoError(t, err)
	assert.True(t, logger.ContainsField(log.DrawsKey, 3.0))
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationPredictStd))
	assert.True(t, logger.ContainsField(log.VariableKey, "obs"))

	logger.Clear()
	_, err = reg.Predict(mat.NewDense(1, 1, nil))
	require.NoError(t, err)
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationPredict))
	assert.False(t, logger.ContainsField(log.OperationKey, log.OperationPredictStd))
}

func TestParsePropagation(t *testing.T) {
	p, err := ParsePropagation("Covariance")
	require.NoError(t, err)
	assert.Equal(t, PropagationCovariance, p)

	p, err = ParsePropagation("")
	require.NoError(t, err)
	assert.Equal(t, PropagationIndependent, p)

	_, err = ParsePropagation("bootstrap")
	require.Error(t, err)
	assert.Equal(t, "unknown", Propagation(7).String())
}
