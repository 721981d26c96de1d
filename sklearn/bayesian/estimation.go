package bayesian

import (
	"context"
	"fmt"
	"time"

	"github.com/YuminosukeSato/bayesreg/core/model"
	"github.com/YuminosukeSato/bayesreg/core/parallel"
	"github.com/YuminosukeSato/bayesreg/metrics"
	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/pkg/log"
	"github.com/YuminosukeSato/bayesreg/posterior"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const estimationName = "BayesianLinearEstimation"

// DefaultMinChainLength は SmallChainWarning を出す閾値のデフォルト値
const DefaultMinChainLength = 50

// BayesianLinearEstimation は事後パラメータのドローから点推定と不確実性を求める推定器
//
// Fit でサンプラーを一度だけ呼び出し、ウォームアップを除いたチェーンを保持する。
// Predict は事後平均 mean(alpha) + Σ mean(beta_f)·x_f を返し、
// PredictWithStd はパラメータの不確実性を線形予測子へ伝播させた標準偏差を併せて返す。
type BayesianLinearEstimation struct {
	state   *model.StateManager
	sampler EstimationSampler
	logger  log.Logger

	// ハイパーパラメータ
	warmup         int
	propagation    Propagation
	includeNoise   bool
	minChainLength int
	nJobs          int

	// 学習済みパラメータ（state のロック下で入れ替える）
	fitted *estimates
}

// estimates は Fit で得たチェーンとその要約
type estimates struct {
	chain     *posterior.Chain
	alphaMean float64
	alphaStd  float64
	betaMean  []float64
	betaStd   []float64
	// covariance は [alpha, betas...] の事後共分散
	covariance *mat.SymDense
	// sigma2Mean は sigma² の事後平均（hasSigma のときのみ有効）
	sigma2Mean float64
	hasSigma   bool
}

var (
	_ model.Estimator              = (*BayesianLinearEstimation)(nil)
	_ model.ProbabilisticPredictor = (*BayesianLinearEstimation)(nil)
	_ model.IntervalPredictor      = (*BayesianLinearEstimation)(nil)
	_ model.Scorer                 = (*BayesianLinearEstimation)(nil)
	_ model.LinearModel            = (*BayesianLinearEstimation)(nil)
	_ model.WeightExporter         = (*BayesianLinearEstimation)(nil)
	_ model.SKLearnCompatible      = (*BayesianLinearEstimation)(nil)
)

// NewBayesianLinearEstimation は新しい推定器を作成する
func NewBayesianLinearEstimation(sampler EstimationSampler, opts ...EstimationOption) *BayesianLinearEstimation {
	e := &BayesianLinearEstimation{
		state:          model.NewStateManager(),
		sampler:        sampler,
		warmup:         posterior.DefaultWarmup,
		propagation:    PropagationIndependent,
		minChainLength: DefaultMinChainLength,
		nJobs:          1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.GetLoggerWithName(estimationName)
	}
	return e
}

// Fit は学習データを渡してサンプラーを実行し、事後チェーンを保持する
func (e *BayesianLinearEstimation) Fit(X, y mat.Matrix) error {
	return e.FitContext(context.Background(), X, y)
}

// FitContext は ctx をサンプラーに渡す Fit
//
// 失敗した場合、以前に学習したチェーンはそのまま残る。
func (e *BayesianLinearEstimation) FitContext(ctx context.Context, X, y mat.Matrix) error {
	const op = "BayesianLinearEstimation.Fit"
	start := time.Now()

	nSamples, nFeatures, err := validateTrainingData(op, X, y)
	if err != nil {
		return err
	}
	if e.warmup < 0 {
		return errors.NewValidationError("warmup", "must be non-negative", e.warmup)
	}
	if e.sampler == nil {
		return errors.NewModelError(op, "no sampler", errors.ErrNoSampler)
	}

	logger := e.logger.With(
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
	)
	logger.Debug("Starting sampler")

	var trace posterior.Trace
	err = errors.SafeExecute("EstimationSampler.SampleParams", func() error {
		var sampleErr error
		trace, sampleErr = e.sampler.SampleParams(ctx, X, y)
		return sampleErr
	})
	if err != nil {
		logger.Error("Sampler failed", err, log.ErrorCodeKey, log.ErrorSamplerFailed)
		return errors.NewModelError(op, "sampler failed", err)
	}

	chain, err := posterior.NewChain(trace, e.warmup)
	if err != nil {
		var insufficient *errors.InsufficientSamplesError
		if errors.As(err, &insufficient) {
			logger.Error("Not enough draws after warm-up", err,
				log.ErrorCodeKey, log.ErrorInsufficientSamples,
				log.DrawsKey, len(trace),
				log.ChainWarmupKey, e.warmup,
			)
		}
		return err
	}

	est, err := summarizeChain(op, chain, nFeatures)
	if err != nil {
		return err
	}
	if e.includeNoise && !est.hasSigma {
		return errors.NewValueError(op, "include_noise requires sigma draws")
	}

	if e.minChainLength > 0 && chain.Len() < e.minChainLength {
		errors.Warn(errors.NewSmallChainWarning(estimationName, chain.Len(), e.minChainLength))
	}

	if err := e.state.Commit(nFeatures, nSamples, func() error {
		e.fitted = est
		return nil
	}); err != nil {
		return err
	}

	logger.Info("Fit completed",
		log.DrawsKey, chain.Total(),
		log.ChainDrawsKey, chain.Len(),
		log.ChainWarmupKey, chain.Warmup(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// summarizeChain は alpha, betas の事後平均・標準偏差・共分散を計算する
func summarizeChain(op string, chain *posterior.Chain, nFeatures int) (*estimates, error) {
	for _, name := range []string{posterior.Alpha, posterior.Betas} {
		if !chain.Has(name) {
			return nil, errors.NewValueError(op, "chain has no variable "+name)
		}
	}
	if d := chain.Dim(posterior.Alpha); d != 1 {
		return nil, errors.NewDimensionError(op+" (alpha)", 1, d, 1)
	}
	if d := chain.Dim(posterior.Betas); d != nFeatures {
		return nil, errors.NewDimensionError(op+" (betas)", nFeatures, d, 1)
	}

	alphaDraws, _ := chain.Draws(posterior.Alpha)
	betaDraws, _ := chain.Draws(posterior.Betas)
	alphaMean, alphaStd := posterior.MeanStdAxis0(alphaDraws)
	betaMean, betaStd := posterior.MeanStdAxis0(betaDraws)

	cov, err := chain.Covariance(posterior.Alpha, posterior.Betas)
	if err != nil {
		return nil, err
	}

	est := &estimates{
		chain:      chain,
		alphaMean:  alphaMean[0],
		alphaStd:   alphaStd[0],
		betaMean:   betaMean,
		betaStd:    betaStd,
		covariance: cov,
	}

	if chain.Has(posterior.Sigma) {
		sigma, err := chain.Column(posterior.Sigma, 0)
		if err != nil {
			return nil, err
		}
		var s2 float64
		for _, s := range sigma {
			s2 += s * s
		}
		est.sigma2Mean = s2 / float64(len(sigma))
		est.hasSigma = true
	}

	return est, nil
}

// snapshot は学習済みパラメータを取り出す。未学習なら NotFittedError。
func (e *BayesianLinearEstimation) snapshot(method string) (*estimates, int, error) {
	var (
		est       *estimates
		nFeatures int
	)
	err := e.state.WithState(func() error {
		if e.state.State != model.Fitted || e.fitted == nil {
			return errors.NewNotFittedError(estimationName, method)
		}
		est = e.fitted
		nFeatures = e.state.NFeatures
		return nil
	})
	return est, nFeatures, err
}

func (e *BayesianLinearEstimation) checkInput(op, method string, X mat.Matrix) (*estimates, int, error) {
	est, nFeatures, err := e.snapshot(method)
	if err != nil {
		return nil, 0, err
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, 0, errors.NewValueError(op, "X has no rows")
	}
	if cols != nFeatures {
		return nil, 0, errors.NewDimensionError(op, nFeatures, cols, 1)
	}
	return est, rows, nil
}

// Predict は事後平均による点予測を n×1 行列で返す
func (e *BayesianLinearEstimation) Predict(X mat.Matrix) (mat.Matrix, error) {
	return e.PredictContext(context.Background(), X)
}

// PredictContext は ctx がキャンセル済みなら何もせずに返す Predict
func (e *BayesianLinearEstimation) PredictContext(ctx context.Context, X mat.Matrix) (mat.Matrix, error) {
	const op = "BayesianLinearEstimation.Predict"
	est, rows, err := e.checkInput(op, "Predict", X)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, op)
	}

	out := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, parallel.DefaultThreshold, parallel.Workers(e.nJobs), func(start, end int) {
		x := make([]float64, len(est.betaMean))
		for i := start; i < end; i++ {
			mat.Row(x, i, X)
			out.Set(i, 0, est.linear(x))
		}
	})

	e.logger.Debug("Predict completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, rows,
	)
	return out, nil
}

// PredictWithStd は各行の (予測平均, 予測標準偏差) を n×2 行列で返す
//
// 標準偏差は母標準偏差（N で割る）を用いる。伝播方法は WithPropagation で選ぶ。
func (e *BayesianLinearEstimation) PredictWithStd(X mat.Matrix) (mat.Matrix, error) {
	return e.PredictWithStdContext(context.Background(), X)
}

// PredictWithStdContext は ctx を受け取る PredictWithStd
func (e *BayesianLinearEstimation) PredictWithStdContext(ctx context.Context, X mat.Matrix) (mat.Matrix, error) {
	const op = "BayesianLinearEstimation.PredictWithStd"
	est, rows, err := e.checkInput(op, "PredictWithStd", X)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, op)
	}
	if e.includeNoise && !est.hasSigma {
		return nil, errors.NewValueError(op, "include_noise requires sigma draws")
	}

	propagation := e.propagation
	noise := 0.0
	if e.includeNoise {
		noise = est.sigma2Mean
	}

	out := mat.NewDense(rows, 2, nil)
	parallel.ParallelizeWithThreshold(rows, parallel.DefaultThreshold, parallel.Workers(e.nJobs), func(start, end int) {
		x := make([]float64, len(est.betaMean))
		a := mat.NewVecDense(len(x)+1, nil)
		for i := start; i < end; i++ {
			mat.Row(x, i, X)
			var variance float64
			if propagation == PropagationCovariance {
				variance = covarianceVariance(est.covariance, x, a)
			} else {
				variance = independentVariance(est.alphaStd, est.betaStd, x)
			}
			out.Set(i, 0, est.linear(x))
			out.Set(i, 1, sqrtNonNeg(variance+noise))
		}
	})

	e.logger.Debug("PredictWithStd completed",
		log.OperationKey, log.OperationPredictStd,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, rows,
		log.PropagationKey, propagation.String(),
	)
	return out, nil
}

// PredictInterval は各行の線形予測子の中央信用区間 (下限, 上限) を n×2 行列で返す
//
// 区間はドローごとの alpha + betas·x の経験分位点から求める。
func (e *BayesianLinearEstimation) PredictInterval(X mat.Matrix, level float64) (mat.Matrix, error) {
	const op = "BayesianLinearEstimation.PredictInterval"
	if level <= 0 || level >= 1 {
		return nil, errors.NewValidationError("level", "must be in (0, 1)", level)
	}
	est, rows, err := e.checkInput(op, "PredictInterval", X)
	if err != nil {
		return nil, err
	}

	alphaCol, _ := est.chain.Column(posterior.Alpha, 0)
	alpha := mat.NewVecDense(len(alphaCol), alphaCol)
	betas, _ := est.chain.Draws(posterior.Betas)

	workers := parallel.Workers(e.nJobs)
	if rows <= parallel.DefaultThreshold {
		workers = 1
	}
	chunk := (rows + workers - 1) / workers

	out := mat.NewDense(rows, 2, nil)
	var g errgroup.Group
	for start := 0; start < rows; start += chunk {
		start, end := start, min(start+chunk, rows)
		g.Go(func() error {
			x := mat.NewVecDense(len(est.betaMean), nil)
			linear := mat.NewVecDense(len(alphaCol), nil)
			for i := start; i < end; i++ {
				mat.Row(x.RawVector().Data, i, X)
				linear.MulVec(betas, x)
				linear.AddVec(linear, alpha)
				lo, hi, err := posterior.EqualTailedInterval(linear.RawVector().Data, level)
				if err != nil {
					return err
				}
				out.Set(i, 0, lo)
				out.Set(i, 1, hi)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("PredictInterval completed",
		log.OperationKey, log.OperationPredictInterval,
		log.SamplesKey, rows,
	)
	return out, nil
}

// Score は事後平均予測の決定係数 R² を返す
func (e *BayesianLinearEstimation) Score(X, y mat.Matrix) (float64, error) {
	pred, err := e.Predict(X)
	if err != nil {
		return 0, err
	}
	score, err := metrics.R2ScoreMatrix(y, pred)
	if err != nil {
		return 0, err
	}
	e.logger.Debug("Score computed", log.OperationKey, log.OperationScore, log.R2ScoreKey, score)
	return score, nil
}

func (est *estimates) linear(x []float64) float64 {
	v := est.alphaMean
	for f, b := range est.betaMean {
		v += b * x[f]
	}
	return v
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BayesianLinearEstimation) IsFitted() bool {
	return e.state.IsFitted()
}

// Reset は学習済みのチェーンを破棄する
func (e *BayesianLinearEstimation) Reset() {
	_ = e.state.WithStateMut(func() error {
		e.fitted = nil
		e.state.State = model.NotFitted
		e.state.NFeatures = 0
		e.state.NSamples = 0
		return nil
	})
}

// Chain は保持しているチェーンを返す（未学習なら nil）
func (e *BayesianLinearEstimation) Chain() *posterior.Chain {
	est, _, err := e.snapshot("Chain")
	if err != nil {
		return nil
	}
	return est.chain
}

// Coef は係数の事後平均を返す
func (e *BayesianLinearEstimation) Coef() []float64 {
	est, _, err := e.snapshot("Coef")
	if err != nil {
		return nil
	}
	return append([]float64(nil), est.betaMean...)
}

// CoefStd は係数の事後標準偏差を返す
func (e *BayesianLinearEstimation) CoefStd() []float64 {
	est, _, err := e.snapshot("CoefStd")
	if err != nil {
		return nil
	}
	return append([]float64(nil), est.betaStd...)
}

// Intercept は切片の事後平均を返す
func (e *BayesianLinearEstimation) Intercept() float64 {
	est, _, err := e.snapshot("Intercept")
	if err != nil {
		return 0
	}
	return est.alphaMean
}

// InterceptStd は切片の事後標準偏差を返す
func (e *BayesianLinearEstimation) InterceptStd() float64 {
	est, _, err := e.snapshot("InterceptStd")
	if err != nil {
		return 0
	}
	return est.alphaStd
}

// Summary は変数 name の成分 j の事後要約を返す
func (e *BayesianLinearEstimation) Summary(name string, j int, level float64) (posterior.Summary, error) {
	est, _, err := e.snapshot("Summary")
	if err != nil {
		return posterior.Summary{}, err
	}
	return est.chain.Summarize(name, j, level)
}

// GetParams はモデルのハイパーパラメータを取得する
func (e *BayesianLinearEstimation) GetParams(deep bool) map[string]interface{} {
	return map[string]interface{}{
		"warmup":           e.warmup,
		"propagation":      e.propagation.String(),
		"include_noise":    e.includeNoise,
		"min_chain_length": e.minChainLength,
		"n_jobs":           e.nJobs,
	}
}

// SetParams はモデルのハイパーパラメータを設定する
//
// すべてのキーを検証してから反映するため、エラー時は何も変更されない。
// warmup を変更しても既存のチェーンには影響せず、次の Fit から適用される。
func (e *BayesianLinearEstimation) SetParams(params map[string]interface{}) error {
	warmup, propagation, includeNoise := e.warmup, e.propagation, e.includeNoise
	minChainLength, nJobs := e.minChainLength, e.nJobs

	for key, value := range params {
		var err error
		switch key {
		case "warmup":
			if warmup, err = intParam(key, value); err == nil && warmup < 0 {
				err = errors.NewValidationError(key, "must be non-negative", value)
			}
		case "propagation":
			switch v := value.(type) {
			case Propagation:
				propagation = v
			case string:
				propagation, err = ParsePropagation(v)
			default:
				err = errors.NewValidationError(key, "must be a string", value)
			}
		case "include_noise":
			v, ok := value.(bool)
			if !ok {
				err = errors.NewValidationError(key, "must be a bool", value)
			}
			includeNoise = v
		case "min_chain_length":
			minChainLength, err = intParam(key, value)
		case "n_jobs":
			nJobs, err = intParam(key, value)
		default:
			err = errors.NewValidationError(key, "unknown parameter", value)
		}
		if err != nil {
			return err
		}
	}

	e.warmup, e.propagation, e.includeNoise = warmup, propagation, includeNoise
	e.minChainLength, e.nJobs = minChainLength, nJobs
	return nil
}

func intParam(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, errors.NewValidationError(key, "must be an integer", value)
		}
		return int(v), nil
	default:
		return 0, errors.NewValidationError(key, "must be an integer", value)
	}
}

// Clone は同じパラメータ・サンプラー・学習結果を持つ新しいインスタンスを作成する
// チェーンは不変なので共有される。
func (e *BayesianLinearEstimation) Clone() model.SKLearnCompatible {
	clone := NewBayesianLinearEstimation(e.sampler,
		WithWarmup(e.warmup),
		WithPropagation(e.propagation),
		WithNoise(e.includeNoise),
		WithMinChainLength(e.minChainLength),
		WithNJobs(e.nJobs),
		WithLogger(e.logger),
	)
	if est, nFeatures, err := e.snapshot("Clone"); err == nil {
		_, nSamples := e.state.GetDimensions()
		_ = clone.state.Commit(nFeatures, nSamples, func() error {
			clone.fitted = est
			return nil
		})
	}
	return clone
}

// ExportWeights は事後平均と事後標準偏差をエクスポートする
func (e *BayesianLinearEstimation) ExportWeights() (*model.ModelWeights, error) {
	est, _, err := e.snapshot("ExportWeights")
	if err != nil {
		return nil, err
	}
	return &model.ModelWeights{
		ModelType:       estimationName,
		Version:         "1.0.0",
		Coefficients:    append([]float64(nil), est.betaMean...),
		CoefficientsStd: append([]float64(nil), est.betaStd...),
		Intercept:       est.alphaMean,
		InterceptStd:    est.alphaStd,
		Hyperparameters: e.GetParams(true),
		Metadata: map[string]interface{}{
			"chain_draws": est.chain.Len(),
			"warmup":      est.chain.Warmup(),
			"total_draws": est.chain.Total(),
		},
		IsFitted: true,
	}, nil
}

// String はモデルの文字列表現を返す
func (e *BayesianLinearEstimation) String() string {
	draws := 0
	if est, _, err := e.snapshot("String"); err == nil {
		draws = est.chain.Len()
	}
	return fmt.Sprintf("BayesianLinearEstimation(warmup=%d, propagation=%s, include_noise=%t, fitted=%t, chain_draws=%d)",
		e.warmup, e.propagation, e.includeNoise, e.state.IsFitted(), draws)
}
