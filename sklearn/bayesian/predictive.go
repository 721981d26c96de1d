package bayesian

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YuminosukeSato/bayesreg/core/model"
	"github.com/YuminosukeSato/bayesreg/metrics"
	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/pkg/log"
	"github.com/YuminosukeSato/bayesreg/posterior"
	"gonum.org/v1/gonum/mat"
)

const predictiveName = "BayesianLinearRegression"

// BayesianLinearRegression は事後予測分布のドローを要約する推定器
//
// Predict / PredictWithStd のたびに PredictiveSampler を呼び出し、
// 各入力行について予測ドローの平均と母標準偏差を返す。
// Fit は入力の形状を記録するだけで、サンプラーは呼び出さない。
type BayesianLinearRegression struct {
	state    *model.StateManager
	sampler  PredictiveSampler
	variable string
	logger   log.Logger

	mu          sync.Mutex
	lastSamples posterior.PredictiveSamples
}

var (
	_ model.Estimator              = (*BayesianLinearRegression)(nil)
	_ model.ProbabilisticPredictor = (*BayesianLinearRegression)(nil)
	_ model.IntervalPredictor      = (*BayesianLinearRegression)(nil)
	_ model.Scorer                 = (*BayesianLinearRegression)(nil)
	_ model.SKLearnCompatible      = (*BayesianLinearRegression)(nil)
)

// NewBayesianLinearRegression は新しい推定器を作成する
func NewBayesianLinearRegression(sampler PredictiveSampler, opts ...PredictiveOption) *BayesianLinearRegression {
	r := &BayesianLinearRegression{
		state:    model.NewStateManager(),
		sampler:  sampler,
		variable: posterior.Observation,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName(predictiveName)
	}
	return r
}

// Fit は X と y の形状を検証し、特徴量数を記録する
//
// 事後分布はサンプラー側が保持しているため、ここでは学習を行わない。
func (r *BayesianLinearRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := validateTrainingData("BayesianLinearRegression.Fit", X, y)
	if err != nil {
		return err
	}
	return r.state.Commit(nFeatures, nSamples, func() error { return nil })
}

// Predict は各行の予測平均を n×1 行列で返す
func (r *BayesianLinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	return r.PredictContext(context.Background(), X)
}

// PredictContext は ctx をサンプラーに渡す Predict
func (r *BayesianLinearRegression) PredictContext(ctx context.Context, X mat.Matrix) (mat.Matrix, error) {
	mean, _, err := r.reduce(ctx, "BayesianLinearRegression.Predict", log.OperationPredict, X)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(len(mean), 1, mean), nil
}

// PredictWithStd は各行の (予測平均, 予測標準偏差) を n×2 行列で返す
func (r *BayesianLinearRegression) PredictWithStd(X mat.Matrix) (mat.Matrix, error) {
	return r.PredictWithStdContext(context.Background(), X)
}

// PredictWithStdContext は ctx をサンプラーに渡す PredictWithStd
func (r *BayesianLinearRegression) PredictWithStdContext(ctx context.Context, X mat.Matrix) (mat.Matrix, error) {
	mean, std, err := r.reduce(ctx, "BayesianLinearRegression.PredictWithStd", log.OperationPredictStd, X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(mean), 2, nil)
	out.SetCol(0, mean)
	out.SetCol(1, std)
	return out, nil
}

// PredictInterval は予測ドローの経験分位点による中央区間を n×2 行列で返す
func (r *BayesianLinearRegression) PredictInterval(X mat.Matrix, level float64) (mat.Matrix, error) {
	const op = "BayesianLinearRegression.PredictInterval"
	if level <= 0 || level >= 1 {
		return nil, errors.NewValidationError("level", "must be in (0, 1)", level)
	}
	draws, err := r.sample(context.Background(), op, log.OperationPredictInterval, X)
	if err != nil {
		return nil, err
	}

	nDraws, n := draws.Dims()
	out := mat.NewDense(n, 2, nil)
	col := make([]float64, nDraws)
	for j := 0; j < n; j++ {
		mat.Col(col, j, draws)
		lo, hi, err := posterior.EqualTailedInterval(col, level)
		if err != nil {
			return nil, err
		}
		out.Set(j, 0, lo)
		out.Set(j, 1, hi)
	}
	return out, nil
}

// Score は予測平均の決定係数 R² を返す
func (r *BayesianLinearRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

func (r *BayesianLinearRegression) reduce(ctx context.Context, op, operation string, X mat.Matrix) (mean, std []float64, err error) {
	draws, err := r.sample(ctx, op, operation, X)
	if err != nil {
		return nil, nil, err
	}
	mean, std = posterior.MeanStdAxis0(draws)
	return mean, std, nil
}

// sample はサンプラーを呼び出し、検証済みの draws×n 行列を返す
func (r *BayesianLinearRegression) sample(ctx context.Context, op, operation string, X mat.Matrix) (*mat.Dense, error) {
	start := time.Now()
	if r.sampler == nil {
		return nil, errors.NewModelError(op, "no sampler", errors.ErrNoSampler)
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewValueError(op, "X has no rows")
	}
	if nFeatures, _ := r.state.GetDimensions(); r.state.IsFitted() && cols != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, cols, 1)
	}

	logger := r.logger.With(
		log.OperationKey, operation,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, rows,
	)

	var samples posterior.PredictiveSamples
	err := errors.SafeExecute("PredictiveSampler.SamplePredictive", func() error {
		var sampleErr error
		samples, sampleErr = r.sampler.SamplePredictive(ctx, X)
		return sampleErr
	})
	if err != nil {
		logger.Error("Sampler failed", err, log.ErrorCodeKey, log.ErrorSamplerFailed)
		return nil, errors.NewModelError(op, "sampler failed", err)
	}

	draws, err := samples.Matrix(r.variable, rows)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.lastSamples = samples
	r.mu.Unlock()

	nDraws, _ := draws.Dims()
	logger.Debug("Predictive draws reduced",
		log.VariableKey, r.variable,
		log.DrawsKey, nDraws,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return draws, nil
}

// LastSamples は直近の予測で得たドローを返す（まだなければ nil）
func (r *BayesianLinearRegression) LastSamples() posterior.PredictiveSamples {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSamples
}

// IsFitted は Fit が呼ばれたかどうかを返す
func (r *BayesianLinearRegression) IsFitted() bool {
	return r.state.IsFitted()
}

// Reset は記録した形状と直近のドローを破棄する
func (r *BayesianLinearRegression) Reset() {
	r.state.Reset()
	r.mu.Lock()
	r.lastSamples = nil
	r.mu.Unlock()
}

// GetParams はモデルのハイパーパラメータを取得する
func (r *BayesianLinearRegression) GetParams(deep bool) map[string]interface{} {
	return map[string]interface{}{
		"observation_var": r.variable,
	}
}

// SetParams はモデルのハイパーパラメータを設定する
// エラー時は何も変更されない。
func (r *BayesianLinearRegression) SetParams(params map[string]interface{}) error {
	variable := r.variable
	for key, value := range params {
		switch key {
		case "observation_var":
			v, ok := value.(string)
			if !ok || v == "" {
				return errors.NewValidationError(key, "must be a non-empty string", value)
			}
			variable = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	r.variable = variable
	return nil
}

// Clone は同じサンプラーとパラメータを持つ未学習のインスタンスを作成する
func (r *BayesianLinearRegression) Clone() model.SKLearnCompatible {
	return NewBayesianLinearRegression(r.sampler,
		WithObservationVar(r.variable),
		WithPredictiveLogger(r.logger),
	)
}

// String はモデルの文字列表現を返す
func (r *BayesianLinearRegression) String() string {
	return fmt.Sprintf("BayesianLinearRegression(observation_var=%s, fitted=%t)", r.variable, r.state.IsFitted())
}
