package rem

import (
	"math"

	"github.com/YuminosukeSato/remgo/dataset"
)

// Threshold is the convergence rule for one coefficient: |e-c| <= Epsilon
// in absolute mode, |e-c| <= Epsilon·|c| in ratio mode. Ratio mode
// compares absolutely when c is zero.
type Threshold struct {
	Epsilon float64
	Ratio   bool
}

func (t Threshold) close(estimated, current float64) bool {
	diff := math.Abs(estimated - current)
	if t.Ratio && current != 0 {
		return diff <= t.Epsilon*math.Abs(current)
	}
	return diff <= t.Epsilon
}

func (t Threshold) closeValue(estimated, current dataset.Value) bool {
	e, eok := estimated.Float()
	c, cok := current.Float()
	if !eok && !cok {
		return true
	}
	if eok != cok {
		return false
	}
	return t.close(e, c)
}

// Converged reports whether every coefficient of estimated (alpha, betas,
// coeff, z_variance) is within the threshold of current.
func (t Threshold) Converged(estimated, current *ParameterSet) bool {
	if estimated == nil || current == nil {
		return estimated == nil && current == nil
	}
	if len(estimated.Alpha) != len(current.Alpha) {
		return false
	}
	for j := range estimated.Alpha {
		if !t.close(estimated.Alpha[j], current.Alpha[j]) {
			return false
		}
	}

	if (estimated.Betas == nil) != (current.Betas == nil) || len(estimated.Betas) != len(current.Betas) {
		return false
	}
	for j := range estimated.Betas {
		if !t.close(estimated.Betas[j][0], current.Betas[j][0]) || !t.close(estimated.Betas[j][1], current.Betas[j][1]) {
			return false
		}
	}

	return t.closeValue(estimated.Coeff, current.Coeff) && t.closeValue(estimated.ZVariance, current.ZVariance)
}

// Terminated applies the threshold to estimated against current and, when
// that fails, against previous. Matching the generation two steps back
// counts as convergence so that an oscillating run stops.
func Terminated(estimated, current, previous *ParameterSet, t Threshold) bool {
	if t.Converged(estimated, current) {
		return true
	}
	return previous != nil && t.Converged(estimated, previous)
}

// ParameterHistory keeps the three parameter generations an EM run needs.
// It is a value; every transition returns a new history.
type ParameterHistory struct {
	Previous  *ParameterSet
	Current   *ParameterSet
	Estimated *ParameterSet
}

// NewHistory starts a history at p.
func NewHistory(p *ParameterSet) ParameterHistory {
	return ParameterHistory{Current: p, Estimated: p}
}

// WithEstimate records a freshly maximized generation.
func (h ParameterHistory) WithEstimate(p *ParameterSet) ParameterHistory {
	h.Estimated = p
	return h
}

// Terminated tests the recorded estimate.
func (h ParameterHistory) Terminated(t Threshold) bool {
	return Terminated(h.Estimated, h.Current, h.Previous, t)
}

// Advance shifts the generations: previous <- current <- estimated.
func (h ParameterHistory) Advance() ParameterHistory {
	return ParameterHistory{Previous: h.Current, Current: h.Estimated, Estimated: h.Estimated}
}

// Replace swaps the current generation, keeping previous.
func (h ParameterHistory) Replace(p *ParameterSet) ParameterHistory {
	return ParameterHistory{Previous: h.Previous, Current: p, Estimated: p}
}
