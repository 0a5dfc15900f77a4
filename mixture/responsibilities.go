package mixture

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/pkg/errors"
	"github.com/YuminosukeSato/remgo/rem"
)

// Responsibilities returns each component's posterior probability of having
// generated (x, z): coeff_k·N(z; alpha_k·x, variance_k), normalized to sum
// to one. x includes the intercept. When every component assigns zero
// density the result is uniform and ok is false.
func Responsibilities(components []*rem.ParameterSet, x []float64, z float64) (resp []float64, ok bool) {
	dens := make([]float64, len(components))
	for k, p := range components {
		dens[k] = p.Density(x, z)
	}
	return normalize(priors(components), dens)
}

// priors returns the mixture weights, 1/K for components without one.
func priors(components []*rem.ParameterSet) []float64 {
	out := make([]float64, len(components))
	for k, p := range components {
		out[k] = p.Coeff.Or(1 / float64(len(components)))
	}
	return out
}

func normalize(prior, dens []float64) ([]float64, bool) {
	resp := make([]float64, len(prior))
	floats.MulTo(resp, prior, dens)
	sum := floats.Sum(resp)
	if sum == 0 {
		for k := range resp {
			resp[k] = 1 / float64(len(resp))
		}
		return resp, false
	}
	floats.Scale(1/sum, resp)
	return resp, true
}

// rowResponsibilities evaluates row i of each component's own input.
func rowResponsibilities(components []*rem.ParameterSet, inputs []*dataset.Dataset, i int) ([]float64, bool) {
	dens := make([]float64, len(components))
	for k, p := range components {
		if x, z, ok := inputs[k].Row(i).Floats(); ok {
			dens[k] = p.Density(x, z)
		}
	}
	return normalize(priors(components), dens)
}

// rowLogLikelihood is log Σ_k coeff_k·N(z_i; alpha_k·x_i, variance_k).
func rowLogLikelihood(components []*rem.ParameterSet, inputs []*dataset.Dataset, i int) float64 {
	terms := make([]float64, 0, len(components))
	prior := priors(components)
	for k, p := range components {
		x, z, ok := inputs[k].Row(i).Floats()
		if !ok {
			continue
		}
		terms = append(terms, math.Log(prior[k])+p.LogDensity(x, z))
	}
	return errors.LogSumExp(terms)
}
