package rem

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/linear"
	"github.com/YuminosukeSato/remgo/pkg/log"
)

// Maximizer is the M-step: it fits a ParameterSet to the complete rows of a
// dataset. It never returns non-finite coefficients; every failed solve
// falls back to the previous coefficients or to a constant model.
type Maximizer struct {
	Mode         Mode
	CalcVariance bool
	Logger       log.Logger
}

// complete rows of a dataset, gathered once per maximization
type sample struct {
	x       *mat.Dense
	z       *mat.VecDense
	weights []float64
	rows    int
}

func collect(data *dataset.Dataset, weights []float64) sample {
	var xs, zs, ws []float64
	for i := 0; i < data.Len(); i++ {
		x, z, ok := data.Row(i).Floats()
		if !ok {
			continue
		}
		xs = append(xs, x...)
		zs = append(zs, z)
		if weights != nil {
			ws = append(ws, weights[i])
		}
	}
	s := sample{weights: ws, rows: len(zs)}
	if s.rows > 0 {
		s.x = mat.NewDense(s.rows, data.Dim(), xs)
		s.z = mat.NewVecDense(s.rows, zs)
	}
	return s
}

// Maximize fits new parameters. current may be nil; weights, when non-nil,
// has one entry per row of data and turns the fit into the weighted
// mixture M-step.
func (m Maximizer) Maximize(data *dataset.Dataset, current *ParameterSet, weights []float64) *ParameterSet {
	n := data.Dim()
	s := collect(data, weights)

	next := &ParameterSet{Alpha: m.fitAlpha(s, n, current)}
	if current != nil {
		next.Coeff = current.Coeff
	}

	switch m.Mode {
	case Reversible:
		next.Betas = m.fitBetas(s, n, current)
	case Gaussian:
		next.XNormal = fitNormal(s, n, current)
	}

	if weights == nil {
		if m.CalcVariance || (current != nil && !current.ZVariance.IsMissing()) {
			next.ZVariance = dataset.Observed(residualVariance(s, next.Alpha, nil))
		}
		return next
	}

	sumAll := floats.Sum(weights)
	if data.Len() > 0 {
		next.Coeff = dataset.Observed(sumAll / float64(data.Len()))
	}
	next.ZVariance = dataset.Observed(residualVariance(s, next.Alpha, s.weights))
	return next
}

func (m Maximizer) fitAlpha(s sample, n int, current *ParameterSet) []float64 {
	if s.rows > 0 {
		beta, err := linear.LeastSquares(s.x, s.z, s.weights)
		if err == nil {
			return append([]float64(nil), beta.RawVector().Data...)
		}
		m.debug("alpha solve failed, using fallback", err)
	}
	if current != nil && len(current.Alpha) == n {
		return append([]float64(nil), current.Alpha...)
	}
	alpha := make([]float64, n)
	alpha[0] = weightedMean(s.z, s.weights)
	return alpha
}

func (m Maximizer) fitBetas(s sample, n int, current *ParameterSet) [][2]float64 {
	betas := make([][2]float64, n)
	betas[0] = [2]float64{1, 0}
	if s.rows == 0 {
		for j := 1; j < n; j++ {
			betas[j] = fallbackBeta(current, j, nil, nil)
		}
		return betas
	}

	design := mat.NewDense(s.rows, 2, nil)
	for i := 0; i < s.rows; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, s.z.AtVec(i))
	}
	for j := 1; j < n; j++ {
		col := mat.NewVecDense(s.rows, nil)
		col.CopyVec(s.x.ColView(j))
		fit, err := linear.LeastSquares(design, col, s.weights)
		if err != nil {
			m.debug("beta solve failed, using fallback", err, "column", j)
			betas[j] = fallbackBeta(current, j, col, s.weights)
			continue
		}
		betas[j] = [2]float64{fit.AtVec(0), fit.AtVec(1)}
	}
	return betas
}

func fallbackBeta(current *ParameterSet, j int, col *mat.VecDense, weights []float64) [2]float64 {
	if current != nil && j < len(current.Betas) {
		return current.Betas[j]
	}
	return [2]float64{weightedMean(col, weights), 0}
}

func fitNormal(s sample, n int, current *ParameterSet) *NormalParameter {
	if s.rows == 0 {
		if current != nil && current.XNormal != nil {
			return current.XNormal.Clone()
		}
		return NewZeroParameter(Gaussian, n).XNormal
	}

	k := n - 1
	mean := make([]float64, k)
	cols := make([][]float64, k)
	for j := 0; j < k; j++ {
		cols[j] = mat.Col(nil, j+1, s.x)
		mean[j] = weightedMeanSlice(cols[j], s.weights)
	}

	cov := mat.NewSymDense(max(k, 1), nil)
	total := 0.0
	for i := 0; i < s.rows; i++ {
		total += weightAt(s.weights, i)
	}
	if total > 0 {
		for a := 0; a < k; a++ {
			for b := a; b < k; b++ {
				var sum float64
				for i := 0; i < s.rows; i++ {
					sum += weightAt(s.weights, i) * (cols[a][i] - mean[a]) * (cols[b][i] - mean[b])
				}
				cov.SetSym(a, b, sum/total)
			}
		}
	}
	return &NormalParameter{Mean: mean, Covariance: cov}
}

// residualVariance is the (weighted) mean squared residual of alpha over
// the sample. A zero total weight falls back to the unweighted mean.
func residualVariance(s sample, alpha []float64, weights []float64) float64 {
	if s.rows == 0 {
		return 0
	}
	if weights != nil && floats.Sum(weights) == 0 {
		weights = nil
	}
	var sum, total float64
	for i := 0; i < s.rows; i++ {
		r := floats.Dot(alpha, s.x.RawRowView(i)) - s.z.AtVec(i)
		w := weightAt(weights, i)
		sum += w * r * r
		total += w
	}
	return sum / total
}

func weightAt(weights []float64, i int) float64 {
	if weights == nil {
		return 1
	}
	return weights[i]
}

func weightedMean(v *mat.VecDense, weights []float64) float64 {
	if v == nil || v.Len() == 0 {
		return 0
	}
	return weightedMeanSlice(v.RawVector().Data, weights)
}

func weightedMeanSlice(v []float64, weights []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	if weights != nil && floats.Sum(weights) > 0 {
		return stat.Mean(v, weights)
	}
	return stat.Mean(v, nil)
}

func (m Maximizer) debug(msg string, err error, fields ...any) {
	if m.Logger == nil {
		return
	}
	m.Logger.Debug(msg, append([]any{log.ErrAttrKey, err, log.OperationKey, log.OperationMaximize}, fields...)...)
}
