package rem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/pkg/errors"
)

func reversibleParams() *ParameterSet {
	return &ParameterSet{
		Alpha: []float64{1, 2, -1},
		Betas: [][2]float64{{1, 0}, {0.5, 0.25}, {2, 0.1}},
	}
}

func TestEstimateCompleteRowIsUnchanged(t *testing.T) {
	row := dataset.NewRow(dataset.Observed(4), dataset.Values(1.5, -2)...)
	for _, mode := range []Mode{Reversible, Gaussian} {
		p := NewZeroParameter(mode, 3)
		out, err := Estimate(mode, row, p)
		require.NoError(t, err)
		assert.Equal(t, row, out, mode.String())
	}
}

func TestEstimateReversible(t *testing.T) {
	p := reversibleParams()

	t.Run("observed response fills regressors", func(t *testing.T) {
		row := dataset.NewRow(dataset.Observed(5), dataset.Missing(), dataset.Observed(3))
		out, err := Estimate(Reversible, row, p)
		require.NoError(t, err)

		x1, ok := out.X[1].Float()
		require.True(t, ok)
		assert.InDelta(t, 0.5+0.25*5, x1, 1e-12)
		assert.Equal(t, dataset.Observed(5), out.Z)
		assert.True(t, row.X[1].IsMissing(), "input row must not be modified")
	})

	t.Run("missing response solves the paired system", func(t *testing.T) {
		row := dataset.NewRow(dataset.Missing(), dataset.Observed(2), dataset.Missing())
		out, err := Estimate(Reversible, row, p)
		require.NoError(t, err)

		// b = 1 + 2*2, a = -1*2, c = -1*0.1
		wantZ := (5.0 - 2.0) / 1.1
		z, ok := out.Z.Float()
		require.True(t, ok)
		assert.InDelta(t, wantZ, z, 1e-12)
		x2, _ := out.X[2].Float()
		assert.InDelta(t, 2+0.1*wantZ, x2, 1e-12)
	})

	t.Run("missing response only", func(t *testing.T) {
		row := dataset.NewRow(dataset.Missing(), dataset.Values(2, 3)...)
		out, err := Estimate(Reversible, row, p)
		require.NoError(t, err)
		z, _ := out.Z.Float()
		assert.InDelta(t, 1+4-3, z, 1e-12)
	})

	t.Run("degenerate system", func(t *testing.T) {
		degenerate := &ParameterSet{
			Alpha: []float64{0, 1},
			Betas: [][2]float64{{1, 0}, {0, 1}},
		}
		row := dataset.NewRow(dataset.Missing(), dataset.Missing())
		_, err := Estimate(Reversible, row, degenerate)
		require.Error(t, err)

		var rowErr *errors.DegenerateRowError
		require.True(t, errors.As(err, &rowErr))
		assert.Equal(t, 1.0, rowErr.C)
	})
}

func TestEstimateGaussian(t *testing.T) {
	p := NewZeroParameter(Gaussian, 3)
	p.Alpha = []float64{1, 2, -1}
	p.XNormal.Mean = []float64{10, 20}

	row := dataset.NewRow(dataset.Missing(), dataset.Missing(), dataset.Observed(3))
	out, err := Estimate(Gaussian, row, p)
	require.NoError(t, err)

	assert.Equal(t, dataset.Observed(10), out.X[1])
	assert.Equal(t, dataset.Observed(3), out.X[2])
	z, ok := out.Z.Float()
	require.True(t, ok)
	assert.InDelta(t, 1+20-3, z, 1e-12)

	observed := dataset.NewRow(dataset.Observed(7), dataset.Missing(), dataset.Missing())
	out, err = Estimate(Gaussian, observed, p)
	require.NoError(t, err)
	assert.Equal(t, dataset.Observed(7), out.Z)
	assert.Equal(t, dataset.Observed(20), out.X[2])
}

func TestPredictWith(t *testing.T) {
	p := reversibleParams()

	z, err := PredictWith(Reversible, p, dataset.Values(2, 3))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, z, 1e-12)

	_, err = PredictWith(Reversible, p, dataset.Values(2))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 1, dimErr.Got)
}
