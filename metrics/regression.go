// Package metrics provides regression scores used to evaluate fitted EM
// models against observed responses.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/pkg/errors"
)

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len())
	}
	return n, nil
}

func residuals(yTrue, yPred *mat.VecDense) []float64 {
	r := mat.NewVecDense(yTrue.Len(), nil)
	r.SubVec(yTrue, yPred)
	return r.RawVector().Data
}

// MSE is the mean squared error.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	r := residuals(yTrue, yPred)
	return floats.Dot(r, r) / float64(n), nil
}

// RMSE is the square root of MSE.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(residuals(yTrue, yPred), 1) / float64(n), nil
}

// R2Score is the coefficient of determination, 1 - RSS/TSS. It fails when
// yTrue has no variance.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}
	truth := yTrue.RawVector().Data
	if yTrue.RawVector().Inc != 1 {
		truth = mat.Col(nil, 0, yTrue)
	}
	mean := stat.Mean(truth, nil)
	var tss float64
	for _, v := range truth {
		tss += (v - mean) * (v - mean)
	}
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	r := residuals(yTrue, yPred)
	return 1 - floats.Dot(r, r)/tss, nil
}

// ExplainedVarianceScore is 1 - Var(yTrue - yPred) / Var(yTrue).
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("ExplainedVarianceScore", yTrue, yPred); err != nil {
		return 0, err
	}
	_, varTrue := stat.PopMeanVariance(mat.Col(nil, 0, yTrue), nil)
	if varTrue == 0 {
		return 0, errors.Newf("ExplainedVarianceScore: no variance in yTrue")
	}
	_, varDiff := stat.PopMeanVariance(residuals(yTrue, yPred), nil)
	return 1 - varDiff/varTrue, nil
}

// Observed pairs predictions with the observed entries of yTrue, dropping
// positions where the truth is missing.
func Observed(yTrue []dataset.Value, yPred []float64) (*mat.VecDense, *mat.VecDense, error) {
	if len(yTrue) != len(yPred) {
		return nil, nil, errors.NewDimensionError("Observed", len(yTrue), len(yPred))
	}
	var t, p []float64
	for i, v := range yTrue {
		if z, ok := v.Float(); ok {
			t = append(t, z)
			p = append(p, yPred[i])
		}
	}
	if len(t) == 0 {
		return nil, nil, errors.NewValueError("Observed", "no observed responses")
	}
	return mat.NewVecDense(len(t), t), mat.NewVecDense(len(p), p), nil
}
