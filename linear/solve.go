// Package linear is the small dense linear-algebra kernel behind the EM
// maximization step: a rank-checked QR solve and weighted least squares on
// top of it.
package linear

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/remgo/pkg/errors"
)

// rankTol is the smallest |R_jj| accepted relative to the largest once every
// column has unit norm. Exact collinearity leaves a diagonal entry near
// machine epsilon; a regressor with a large offset from the intercept stays
// many orders of magnitude above it.
const rankTol = 1e-10

// Solve returns the x minimizing ‖a·x - b‖, which for a square a is the
// solution of a·x = b. Columns are scaled to unit norm before the QR
// factorization, so the rank test depends on the directions of the columns
// and not on their units. ErrSingularMatrix is returned when a has fewer
// rows than columns or is rank deficient.
func Solve(a mat.Matrix, b *mat.VecDense) (*mat.VecDense, error) {
	r, c := a.Dims()
	if b.Len() != r {
		return nil, errors.NewDimensionError("linear.Solve", r, b.Len())
	}
	if r < c {
		return nil, errors.Wrapf(errors.ErrSingularMatrix, "%d rows for %d unknowns", r, c)
	}

	scaled := mat.DenseCopyOf(a)
	norms := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, scaled)
		norms[j] = floats.Norm(col, 2)
		if norms[j] == 0 {
			return nil, errors.Wrapf(errors.ErrSingularMatrix, "column %d is zero", j)
		}
		floats.Scale(1/norms[j], col)
		scaled.SetCol(j, col)
	}

	var qr mat.QR
	qr.Factorize(scaled)
	var rf mat.Dense
	qr.RTo(&rf)
	lo, hi := diagRange(&rf, c)
	if lo <= rankTol*hi {
		return nil, errors.Wrapf(errors.ErrSingularMatrix, "rank deficient (|R| diagonal %g..%g)", lo, hi)
	}

	x := mat.NewVecDense(c, nil)
	if err := qr.SolveVecTo(x, false, b); err != nil {
		return nil, errors.Wrap(errors.ErrSingularMatrix, err.Error())
	}
	for j := 0; j < c; j++ {
		x.SetVec(j, x.AtVec(j)/norms[j])
	}
	if err := errors.CheckNumericalStability("linear.Solve", x.RawVector().Data, 0); err != nil {
		return nil, errors.Wrap(errors.ErrSingularMatrix, err.Error())
	}
	return x, nil
}

func diagRange(r *mat.Dense, c int) (lo, hi float64) {
	lo = -1
	for j := 0; j < c; j++ {
		v := r.At(j, j)
		if v < 0 {
			v = -v
		}
		if v > hi {
			hi = v
		}
		if lo < 0 || v < lo {
			lo = v
		}
	}
	return lo, hi
}
