package rem

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/pkg/errors"
)

func TestSnapshotRestoresFittedDriver(t *testing.T) {
	d, err := NewDriver(lineDataset(t))
	require.NoError(t, err)
	res, err := d.Learn(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, d.Mode(), res.Parameters))
	assert.Contains(t, buf.String(), `"mode": "reversible"`)
	assert.NotContains(t, buf.String(), "coeff")

	mode, p, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, Reversible, mode)
	assert.Equal(t, res.Parameters.Alpha, p.Alpha)
	assert.Equal(t, res.Parameters.Betas, p.Betas)
	assert.Equal(t, res.Parameters.ZVariance, p.ZVariance)

	restored, err := NewDriver(lineDataset(t), WithMode(mode))
	require.NoError(t, err)
	require.NoError(t, restored.SetParameters(p))
	z, err := restored.Predict(dataset.Values(5))
	require.NoError(t, err)
	assert.InDelta(t, 11.0, z, 1e-8)
}

func TestSnapshotGaussian(t *testing.T) {
	p := NewZeroParameter(Gaussian, 3).WithCoeff(0.4)
	p.XNormal.Mean = []float64{1, 2}
	p.XNormal.Covariance.SetSym(0, 1, 0.3)

	s := NewSnapshot(Gaussian, p)
	assert.Equal(t, []float64{1, 0.3, 0.3, 1}, s.XCovariance)

	mode, q, err := s.Parameters()
	require.NoError(t, err)
	assert.Equal(t, Gaussian, mode)
	assert.Equal(t, dataset.Observed(0.4), q.Coeff)
	assert.Equal(t, 0.3, q.XNormal.Covariance.At(1, 0))
	assert.Nil(t, q.Betas)
}

func TestSnapshotValidation(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{name: "missing version", json: `{"mode":"reversible","alpha":[1,2],"betas":[[1,0],[0,1]]}`},
		{name: "unknown mode", json: `{"version":"1","mode":"cubic","alpha":[1,2]}`},
		{name: "intercept only", json: `{"version":"1","mode":"reversible","alpha":[1],"betas":[[1,0]]}`},
		{name: "betas length", json: `{"version":"1","mode":"reversible","alpha":[1,2],"betas":[[1,0]]}`},
		{name: "gaussian mean length", json: `{"version":"1","mode":"normal","alpha":[1,2],"x_mean":[],"x_covariance":[1]}`},
		{name: "not json", json: `alpha=1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadSnapshot(strings.NewReader(tt.json))
			assert.Error(t, err)
		})
	}

	_, _, err := ReadSnapshot(strings.NewReader(`{"version":"1","mode":"reversible","alpha":[1,2],"betas":[[1,0],[0,1]]}`))
	assert.NoError(t, err)

	_, _, err = ReadSnapshot(strings.NewReader(`{"version":"1","mode":"normal","alpha":[1,2],"x_mean":[0],"x_covariance":[1,2]}`))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
