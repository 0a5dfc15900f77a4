package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/remgo/core/parallel"
	"github.com/YuminosukeSato/remgo/pkg/errors"
)

// parallelThreshold is the row count above which the sqrt-weighted design is
// built in parallel chunks.
const parallelThreshold = 1000

// LeastSquares fits y ≈ x·beta, minimizing Σ w_i (y_i - x_i·beta)². weights
// may be nil for ordinary least squares. x must already contain any
// intercept column. The solve runs on the sqrt-weighted design, so the
// condition of XᵗWX is never formed. ErrSingularMatrix is returned when the
// design is rank deficient.
func LeastSquares(x *mat.Dense, y *mat.VecDense, weights []float64) (*mat.VecDense, error) {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("linear.LeastSquares", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != r {
		return nil, errors.NewDimensionError("linear.LeastSquares", r, y.Len())
	}
	if weights != nil && len(weights) != r {
		return nil, errors.NewDimensionError("linear.LeastSquares", r, len(weights))
	}

	xw, yw := WeightedDesign(x, y, weights)
	return Solve(xw, yw)
}

// WeightedDesign scales each row of x and y by sqrt(w_i). A nil weights
// returns x and y unchanged. Non-positive weights zero their row.
func WeightedDesign(x *mat.Dense, y *mat.VecDense, weights []float64) (*mat.Dense, *mat.VecDense) {
	if weights == nil {
		return x, y
	}
	r, c := x.Dims()
	xw := mat.NewDense(r, c, nil)
	yw := mat.NewVecDense(r, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			sw := sqrtWeight(weights[i])
			for j := 0; j < c; j++ {
				xw.Set(i, j, x.At(i, j)*sw)
			}
			yw.SetVec(i, y.AtVec(i)*sw)
		}
	})
	return xw, yw
}

func sqrtWeight(w float64) float64 {
	if w <= 0 {
		return 0
	}
	return math.Sqrt(w)
}
