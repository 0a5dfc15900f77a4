package rem

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/remgo/dataset"
)

// minVariance floors the residual variance used in densities so that an
// exact fit still yields a finite value.
const minVariance = 1e-12

// NormalParameter is the multivariate normal over the non-intercept
// regressors used by Gaussian imputation.
type NormalParameter struct {
	Mean       []float64
	Covariance *mat.SymDense
}

// Clone returns a deep copy.
func (n *NormalParameter) Clone() *NormalParameter {
	if n == nil {
		return nil
	}
	out := &NormalParameter{Mean: append([]float64(nil), n.Mean...)}
	if n.Covariance != nil {
		out.Covariance = mat.NewSymDense(n.Covariance.SymmetricDim(), nil)
		out.Covariance.CopySym(n.Covariance)
	}
	return out
}

// ParameterSet is one generation of EM parameters. It is treated as
// immutable: every iteration produces a new instance.
type ParameterSet struct {
	// Alpha are the regression coefficients, Alpha[0] being the intercept.
	Alpha []float64
	// Betas[j] = {b0, b1} maps the response to regressor j: x_j ≈ b0 + b1·z.
	// Present only in reversible mode; Betas[0] is {1, 0}.
	Betas [][2]float64
	// Coeff is the mixture weight, missing outside a mixture.
	Coeff dataset.Value
	// ZVariance is the residual variance, missing until estimated.
	ZVariance dataset.Value
	// XNormal is present only in Gaussian mode.
	XNormal *NormalParameter
}

// NewZeroParameter returns the all-zero starting point for n columns.
func NewZeroParameter(mode Mode, n int) *ParameterSet {
	p := &ParameterSet{Alpha: make([]float64, n)}
	switch mode {
	case Reversible:
		p.Betas = make([][2]float64, n)
		p.Betas[0] = [2]float64{1, 0}
	case Gaussian:
		cov := mat.NewSymDense(max(n-1, 1), nil)
		for i := 0; i < n-1; i++ {
			cov.SetSym(i, i, 1)
		}
		p.XNormal = &NormalParameter{Mean: make([]float64, n-1), Covariance: cov}
	}
	return p
}

// Dim returns the number of columns, intercept included.
func (p *ParameterSet) Dim() int { return len(p.Alpha) }

// Clone returns a deep copy.
func (p *ParameterSet) Clone() *ParameterSet {
	if p == nil {
		return nil
	}
	out := &ParameterSet{
		Alpha:     append([]float64(nil), p.Alpha...),
		Coeff:     p.Coeff,
		ZVariance: p.ZVariance,
		XNormal:   p.XNormal.Clone(),
	}
	if p.Betas != nil {
		out.Betas = append([][2]float64(nil), p.Betas...)
	}
	return out
}

// WithCoeff returns a copy with the mixture weight replaced.
func (p *ParameterSet) WithCoeff(coeff float64) *ParameterSet {
	out := p.Clone()
	out.Coeff = dataset.Observed(coeff)
	return out
}

// WithZVariance returns a copy with the residual variance replaced.
func (p *ParameterSet) WithZVariance(v float64) *ParameterSet {
	out := p.Clone()
	out.ZVariance = dataset.Observed(v)
	return out
}

// Mean returns alpha·x for a complete regressor vector, intercept included.
func (p *ParameterSet) Mean(x []float64) float64 {
	return floats.Dot(p.Alpha, x)
}

// Density returns the normal density of z around alpha·x with the residual
// variance, 1 when the variance is missing.
func (p *ParameterSet) Density(x []float64, z float64) float64 {
	return NormalPDF(z, p.Mean(x), p.ZVariance.Or(1))
}

// LogDensity is the logarithm of Density, finite where Density underflows.
func (p *ParameterSet) LogDensity(x []float64, z float64) float64 {
	variance := math.Max(p.ZVariance.Or(1), minVariance)
	return distuv.Normal{Mu: p.Mean(x), Sigma: math.Sqrt(variance)}.LogProb(z)
}

// IsFinite reports whether every coefficient is a finite number.
func (p *ParameterSet) IsFinite() bool {
	if floats.HasNaN(p.Alpha) {
		return false
	}
	for _, v := range p.Alpha {
		if math.IsInf(v, 0) {
			return false
		}
	}
	for _, b := range p.Betas {
		if math.IsNaN(b[0]) || math.IsNaN(b[1]) || math.IsInf(b[0], 0) || math.IsInf(b[1], 0) {
			return false
		}
	}
	return true
}

func (p *ParameterSet) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "alpha=%v", p.Alpha)
	if p.Betas != nil {
		fmt.Fprintf(&sb, " betas=%v", p.Betas)
	}
	fmt.Fprintf(&sb, " coeff=%s z_variance=%s", p.Coeff, p.ZVariance)
	if p.XNormal != nil {
		fmt.Fprintf(&sb, " x_mean=%v", p.XNormal.Mean)
	}
	return sb.String()
}

// NormalPDF is the univariate normal density. variance is floored at a
// tiny positive value.
func NormalPDF(z, mean, variance float64) float64 {
	if variance < minVariance {
		variance = minVariance
	}
	return distuv.Normal{Mu: mean, Sigma: math.Sqrt(variance)}.Prob(z)
}
