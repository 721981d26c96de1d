package bayesian

import (
	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// validateTrainingData は X (n×p) と y (n×1) の形状を確認する
func validateTrainingData(op string, X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	if X == nil || y == nil {
		return 0, 0, errors.NewValueError(op, "X and y must not be nil")
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != rows {
		return 0, 0, errors.NewDimensionError(op, rows, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector (n×1 matrix)")
	}
	if err := errors.CheckMatrix("X", X, rows, cols); err != nil {
		return 0, 0, err
	}
	if err := errors.CheckMatrix("y", y, yRows, yCols); err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}
