package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/remgo/pkg/errors"
)

func TestSolve(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 1, 1, 3})
	b := mat.NewVecDense(2, []float64{3, 5})

	x, err := Solve(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, x.AtVec(0), 1e-12)
	assert.InDelta(t, 1.4, x.AtVec(1), 1e-12)
}

func TestSolveSingular(t *testing.T) {
	tests := []struct {
		name string
		a    *mat.Dense
		b    *mat.VecDense
	}{
		{name: "zero matrix", a: mat.NewDense(2, 2, nil), b: mat.NewVecDense(2, []float64{1, 1})},
		{name: "duplicated rows", a: mat.NewDense(2, 2, []float64{1, 2, 1, 2}), b: mat.NewVecDense(2, []float64{3, 3})},
		{name: "scaled column", a: mat.NewDense(3, 2, []float64{1, 1e6, 2, 2e6, 3, 3e6}), b: mat.NewVecDense(3, []float64{1, 2, 3})},
		{name: "fewer rows than unknowns", a: mat.NewDense(1, 2, []float64{1, 2}), b: mat.NewVecDense(1, []float64{3})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(tt.a, tt.b)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrSingularMatrix))
		})
	}
}

func TestSolveDimensions(t *testing.T) {
	_, err := Solve(mat.NewDense(2, 2, []float64{1, 0, 0, 1}), mat.NewVecDense(3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestSolveIgnoresColumnUnits(t *testing.T) {
	// x = [1, 1e-9] solves a system whose second column is 1e9 times the first's scale.
	a := mat.NewDense(2, 2, []float64{1, 2e9, 3, 1e9})
	b := mat.NewVecDense(2, []float64{3, 4})

	x, err := Solve(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, x.AtVec(0), 1e-9)
	assert.InDelta(t, 1e-9, x.AtVec(1), 1e-18)
}

func TestLeastSquares(t *testing.T) {
	// z = 1 + 2x
	x := mat.NewDense(4, 2, []float64{1, 0, 1, 1, 1, 2, 1, 3})
	y := mat.NewVecDense(4, []float64{1, 3, 5, 7})

	beta, err := LeastSquares(x, y, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, beta.AtVec(0), 1e-10)
	assert.InDelta(t, 2.0, beta.AtVec(1), 1e-10)
}

func TestLeastSquaresWeighted(t *testing.T) {
	// The last row is an outlier; a zero weight removes it from the fit.
	x := mat.NewDense(4, 2, []float64{1, 0, 1, 1, 1, 2, 1, 3})
	y := mat.NewVecDense(4, []float64{1, 3, 5, 100})

	beta, err := LeastSquares(x, y, []float64{1, 1, 1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, beta.AtVec(0), 1e-10)
	assert.InDelta(t, 2.0, beta.AtVec(1), 1e-10)
}

func TestLeastSquaresOffsetRegressor(t *testing.T) {
	tests := []struct {
		offset       float64
		interceptTol float64
	}{
		{offset: 1e3, interceptTol: 1e-8},
		{offset: 1e5, interceptTol: 1e-4},
		{offset: 1e6, interceptTol: 1e-2},
		{offset: 1e7, interceptTol: 0.5},
	}

	for _, tt := range tests {
		// z = 1 + 2x with x = offset + i
		x := mat.NewDense(50, 2, nil)
		y := mat.NewVecDense(50, nil)
		for i := 0; i < 50; i++ {
			v := tt.offset + float64(i)
			x.Set(i, 0, 1)
			x.Set(i, 1, v)
			y.SetVec(i, 1+2*v)
		}

		beta, err := LeastSquares(x, y, nil)
		require.NoError(t, err, "offset %g", tt.offset)
		assert.InDelta(t, 2.0, beta.AtVec(1), 1e-6, "offset %g", tt.offset)
		assert.InDelta(t, 1.0, beta.AtVec(0), tt.interceptTol, "offset %g", tt.offset)
	}
}

func TestLeastSquaresCollinear(t *testing.T) {
	x := mat.NewDense(3, 3, []float64{1, 1, 1, 1, 2, 2, 1, 3, 3})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	_, err := LeastSquares(x, y, nil)
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))
}

func TestLeastSquaresValidation(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 0, 1, 1})

	_, err := LeastSquares(x, mat.NewVecDense(3, nil), nil)
	assert.Error(t, err)

	_, err = LeastSquares(x, mat.NewVecDense(2, nil), []float64{1})
	assert.Error(t, err)
}
