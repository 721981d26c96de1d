package metrics

import (
	"math"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minStd は標準偏差0の予測に対する下限値。尤度が発散しないようにする。
const minStd = 1e-12

// GaussianNLL は予測分布を正規分布 N(mean, std²) とみなしたときの
// 平均負の対数尤度を計算する。
//
// pred は PredictWithStd の出力と同じ n×2 行列（列0: 平均, 列1: 標準偏差）。
func GaussianNLL(yTrue, pred mat.Matrix) (float64, error) {
	n, err := checkBand("GaussianNLL", yTrue, pred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		std := pred.At(i, 1)
		if std < 0 || math.IsNaN(std) {
			return 0, errors.NewValueError("GaussianNLL", "standard deviation must be non-negative")
		}
		dist := distuv.Normal{Mu: pred.At(i, 0), Sigma: math.Max(std, minStd)}
		sum -= dist.LogProb(yTrue.At(i, 0))
	}
	return sum / float64(n), nil
}

// Coverage は観測値が区間 [lower, upper] に含まれる割合を返す。
//
// interval は PredictInterval の出力と同じ n×2 行列（列0: 下限, 列1: 上限）。
func Coverage(yTrue, interval mat.Matrix) (float64, error) {
	n, err := checkBand("Coverage", yTrue, interval)
	if err != nil {
		return 0, err
	}

	hits := 0
	for i := 0; i < n; i++ {
		lo, hi := interval.At(i, 0), interval.At(i, 1)
		if lo > hi {
			return 0, errors.NewValueError("Coverage", "interval lower bound exceeds upper bound")
		}
		if y := yTrue.At(i, 0); y >= lo && y <= hi {
			hits++
		}
	}
	return float64(hits) / float64(n), nil
}

// NormalInterval は平均と標準偏差から正規近似の中央区間を作る。
// level=0.95 なら mean ± 1.96·std。
func NormalInterval(pred mat.Matrix, level float64) (*mat.Dense, error) {
	if level <= 0 || level >= 1 {
		return nil, errors.NewValidationError("level", "must be in (0, 1)", level)
	}
	r, c := pred.Dims()
	if r == 0 || c < 2 {
		return nil, errors.NewDimensionError("NormalInterval", 2, c, 1)
	}

	z := distuv.UnitNormal.Quantile(0.5 + level/2)
	out := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		mean, std := pred.At(i, 0), pred.At(i, 1)
		out.Set(i, 0, mean-z*std)
		out.Set(i, 1, mean+z*std)
	}
	return out, nil
}

func checkBand(op string, yTrue, band mat.Matrix) (int, error) {
	r, c := yTrue.Dims()
	br, bc := band.Dims()
	if r == 0 || c == 0 {
		return 0, errors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return 0, errors.NewValueError(op, "yTrue must be a column vector (n×1 matrix)")
	}
	if br != r {
		return 0, errors.NewDimensionError(op, r, br, 0)
	}
	if bc != 2 {
		return 0, errors.NewDimensionError(op, 2, bc, 1)
	}
	return r, nil
}
