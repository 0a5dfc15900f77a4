package mixture

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/rem"
)

func TestResponsibilitiesSumToOne(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	for k := 1; k <= 4; k++ {
		for trial := 0; trial < 50; trial++ {
			components := make([]*rem.ParameterSet, k)
			for j := range components {
				p := &rem.ParameterSet{Alpha: []float64{rng.NormFloat64(), rng.NormFloat64()}}
				components[j] = p.WithCoeff(0.1 + rng.Float64()).WithZVariance(0.5 + rng.Float64()*1.5)
			}
			x := []float64{1, rng.NormFloat64()}
			z := rng.NormFloat64()

			resp, ok := Responsibilities(components, x, z)
			require.True(t, ok)
			require.Len(t, resp, k)
			assert.InDelta(t, 1.0, floats.Sum(resp), 1e-9)
			for _, r := range resp {
				assert.GreaterOrEqual(t, r, 0.0)
			}
		}
	}
}

func TestResponsibilitiesFavourTheCloserComponent(t *testing.T) {
	near := (&rem.ParameterSet{Alpha: []float64{0, 1}}).WithCoeff(0.5).WithZVariance(1)
	far := (&rem.ParameterSet{Alpha: []float64{10, 1}}).WithCoeff(0.5).WithZVariance(1)

	resp, ok := Responsibilities([]*rem.ParameterSet{near, far}, []float64{1, 2}, 2)
	require.True(t, ok)
	assert.Greater(t, resp[0], 0.99)
}

func TestResponsibilitiesZeroDensityFallback(t *testing.T) {
	a := (&rem.ParameterSet{Alpha: []float64{0}}).WithZVariance(1e-14)
	b := (&rem.ParameterSet{Alpha: []float64{1}}).WithZVariance(1e-14)

	resp, ok := Responsibilities([]*rem.ParameterSet{a, b}, []float64{1}, 100)
	assert.False(t, ok)
	assert.Equal(t, []float64{0.5, 0.5}, resp)
}

func TestResponsibilitiesDefaultPriors(t *testing.T) {
	a := &rem.ParameterSet{Alpha: []float64{0}}
	b := &rem.ParameterSet{Alpha: []float64{0}}

	resp, ok := Responsibilities([]*rem.ParameterSet{a, b}, []float64{1}, 0.3)
	require.True(t, ok)
	assert.InDelta(t, 0.5, resp[0], 1e-12)
	assert.InDelta(t, 0.5, resp[1], 1e-12)
}

func TestMerge(t *testing.T) {
	raw, err := dataset.FromRows([]dataset.Row{
		dataset.NewRow(dataset.Observed(1), dataset.Missing()),
		dataset.NewRow(dataset.Missing(), dataset.Observed(2)),
	})
	require.NoError(t, err)
	a, err := dataset.FromRows([]dataset.Row{
		dataset.NewRow(dataset.Observed(1), dataset.Observed(2)),
		dataset.NewRow(dataset.Observed(10), dataset.Observed(2)),
	})
	require.NoError(t, err)
	b, err := dataset.FromRows([]dataset.Row{
		dataset.NewRow(dataset.Observed(1), dataset.Observed(4)),
		dataset.NewRow(dataset.Observed(20), dataset.Observed(2)),
	})
	require.NoError(t, err)

	merged := Merge(raw, []*dataset.Dataset{a, b}, []float64{1, 3})

	assert.Equal(t, dataset.Observed(1), merged.Row(0).Z)
	x, ok := merged.Row(0).X[1].Float()
	require.True(t, ok)
	assert.InDelta(t, 3.5, x, 1e-12)

	z, ok := merged.Row(1).Z.Float()
	require.True(t, ok)
	assert.InDelta(t, 17.5, z, 1e-12)
	assert.Equal(t, dataset.Observed(2), merged.Row(1).X[1])

	assert.True(t, raw.Row(0).X[1].IsMissing(), "raw data is never modified")
}
