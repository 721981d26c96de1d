package bayesian

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Propagation selects how parameter uncertainty is carried to the predictor.
type Propagation int

const (
	// PropagationIndependent treats alpha and every beta as independent:
	//
	//	std(x) = sqrt(std(alpha)^2 + sum_f std(beta_f)^2 * x_f^2)
	//
	// This is the first-order formula for a sum of uncorrelated terms. It
	// ignores alpha/beta and beta/beta covariance, so it only approximates
	// the posterior spread of alpha + betas·x. It is the default.
	PropagationIndependent Propagation = iota

	// PropagationCovariance uses the full posterior covariance Σ of
	// [alpha, betas]: std(x) = sqrt(aᵀ Σ a) with a = [1, x]. This equals the
	// population std of the per-draw linear predictor.
	PropagationCovariance
)

func (p Propagation) String() string {
	switch p {
	case PropagationIndependent:
		return "independent"
	case PropagationCovariance:
		return "covariance"
	default:
		return "unknown"
	}
}

// ParsePropagation parses "independent" or "covariance".
func ParsePropagation(s string) (Propagation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "independent", "simple", "":
		return PropagationIndependent, nil
	case "covariance", "full", "exact":
		return PropagationCovariance, nil
	default:
		return PropagationIndependent, errors.NewValidationError("propagation", "must be 'independent' or 'covariance'", s)
	}
}

// independentVariance returns alphaStd² + Σ betaStd_f² x_f² for one row.
func independentVariance(alphaStd float64, betaStd []float64, x []float64) float64 {
	v := alphaStd * alphaStd
	for f, s := range betaStd {
		v += s * s * x[f] * x[f]
	}
	return v
}

// covarianceVariance returns aᵀ Σ a with a = [1, x...]. a is scratch space
// of length len(x)+1.
func covarianceVariance(cov *mat.SymDense, x []float64, a *mat.VecDense) float64 {
	a.SetVec(0, 1)
	for f, v := range x {
		a.SetVec(f+1, v)
	}
	return mat.Inner(a, cov, a)
}

// sqrtNonNeg clamps tiny negative round-off before taking the root.
func sqrtNonNeg(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
