package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う（n×1）
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator は教師あり学習モデルの基本インターフェース
type Estimator interface {
	Fitter
	Predictor
}

// ProbabilisticPredictor は予測値と不確実性を同時に返すモデルのインターフェース
type ProbabilisticPredictor interface {
	Predictor

	// PredictWithStd は各行について (予測値, 標準偏差) の n×2 行列を返す
	PredictWithStd(X mat.Matrix) (mat.Matrix, error)
}

// IntervalPredictor は信用区間を返せるモデルのインターフェース
type IntervalPredictor interface {
	// PredictInterval は各行について (下限, 上限) の n×2 行列を返す
	PredictInterval(X mat.Matrix, level float64) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X, y mat.Matrix) (float64, error)
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Coef は学習された係数（点推定）を返す
	Coef() []float64
	// Intercept は学習された切片（点推定）を返す
	Intercept() float64
}

// SKLearnCompatible はscikit-learn互換のインターフェース
type SKLearnCompatible interface {
	// GetParams はモデルのハイパーパラメータを取得
	GetParams(deep bool) map[string]interface{}

	// SetParams はモデルのハイパーパラメータを設定
	SetParams(params map[string]interface{}) error

	// Clone はモデルの新しいインスタンスを同じパラメータで作成
	Clone() SKLearnCompatible
}

// WeightExporter は重みをエクスポート可能なモデルのインターフェース
type WeightExporter interface {
	// ExportWeights はモデルの重みをエクスポート
	ExportWeights() (*ModelWeights, error)
}
