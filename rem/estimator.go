package rem

import (
	"math"

	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/pkg/errors"
)

// degenerateTolerance guards the reversible solve for a missing response:
// |1-c| below it is treated as a vanishing denominator.
const degenerateTolerance = 1e-12

// Estimate fills the missing cells of row using p. Complete rows are
// returned unchanged. The only failure is a DegenerateRowError in
// reversible mode, reported with Row -1; callers attach the row index.
func Estimate(mode Mode, row dataset.Row, p *ParameterSet) (dataset.Row, error) {
	if row.IsComplete() {
		return row, nil
	}
	if mode == Gaussian {
		return estimateNormal(row, p), nil
	}
	return estimateReversible(row, p)
}

func estimateReversible(row dataset.Row, p *ParameterSet) (dataset.Row, error) {
	out := row.Clone()

	z, ok := row.Z.Float()
	if !ok {
		var a, b, c float64
		for j, v := range row.X {
			if x, ok := v.Float(); ok {
				b += p.Alpha[j] * x
				continue
			}
			b0, b1 := beta(p, j)
			a += p.Alpha[j] * b0
			c += p.Alpha[j] * b1
		}
		if math.Abs(1-c) < degenerateTolerance {
			return dataset.Row{}, errors.NewDegenerateRowError(-1, c)
		}
		z = (a + b) / (1 - c)
		out.Z = dataset.Observed(z)
	}

	for j, v := range out.X {
		if v.IsMissing() {
			b0, b1 := beta(p, j)
			out.X[j] = dataset.Observed(b0 + b1*z)
		}
	}
	return out, nil
}

func beta(p *ParameterSet, j int) (float64, float64) {
	if j >= len(p.Betas) {
		return 0, 0
	}
	return p.Betas[j][0], p.Betas[j][1]
}

func estimateNormal(row dataset.Row, p *ParameterSet) dataset.Row {
	out := row.Clone()
	for j := 1; j < len(out.X); j++ {
		if !out.X[j].IsMissing() {
			continue
		}
		mean := 0.0
		if p.XNormal != nil && j-1 < len(p.XNormal.Mean) {
			mean = p.XNormal.Mean[j-1]
		}
		out.X[j] = dataset.Observed(mean)
	}
	if out.Z.IsMissing() {
		x, _, _ := completeX(out)
		out.Z = dataset.Observed(p.Mean(x))
	}
	return out
}

// completeX returns the regressors of a row whose X is fully observed.
func completeX(r dataset.Row) ([]float64, float64, bool) {
	x := make([]float64, len(r.X))
	for i, v := range r.X {
		x[i] = v.Or(0)
	}
	z, ok := r.Z.Float()
	return x, z, ok
}

// PredictWith imputes the response for regressors x (intercept excluded)
// that may contain missing values.
func PredictWith(mode Mode, p *ParameterSet, x []dataset.Value) (float64, error) {
	if len(x)+1 != p.Dim() {
		return 0, errors.NewDimensionError("rem.PredictWith", p.Dim()-1, len(x))
	}
	row, err := Estimate(mode, dataset.NewRow(dataset.Missing(), x...), p)
	if err != nil {
		return 0, err
	}
	z, _ := row.Z.Float()
	return z, nil
}
