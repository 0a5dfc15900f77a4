package rem

import (
	"encoding/json"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/pkg/errors"
)

// SnapshotVersion is written into every Snapshot.
const SnapshotVersion = "1"

// Snapshot is the serialized form of a fitted ParameterSet. Missing values
// are omitted.
type Snapshot struct {
	Version   string       `json:"version"`
	Mode      string       `json:"mode"`
	Alpha     []float64    `json:"alpha"`
	Betas     [][2]float64 `json:"betas,omitempty"`
	Coeff     *float64     `json:"coeff,omitempty"`
	ZVariance *float64     `json:"z_variance,omitempty"`
	XMean     []float64    `json:"x_mean,omitempty"`
	// XCovariance is row-major.
	XCovariance []float64 `json:"x_covariance,omitempty"`
}

// NewSnapshot captures p.
func NewSnapshot(mode Mode, p *ParameterSet) *Snapshot {
	s := &Snapshot{
		Version: SnapshotVersion,
		Mode:    mode.String(),
		Alpha:   append([]float64(nil), p.Alpha...),
	}
	if p.Betas != nil {
		s.Betas = append([][2]float64(nil), p.Betas...)
	}
	if v, ok := p.Coeff.Float(); ok {
		s.Coeff = &v
	}
	if v, ok := p.ZVariance.Float(); ok {
		s.ZVariance = &v
	}
	if p.XNormal != nil {
		s.XMean = append([]float64(nil), p.XNormal.Mean...)
		if p.XNormal.Covariance != nil {
			k := len(p.XNormal.Mean)
			s.XCovariance = make([]float64, k*k)
			for i := 0; i < k; i++ {
				for j := 0; j < k; j++ {
					s.XCovariance[i*k+j] = p.XNormal.Covariance.At(i, j)
				}
			}
		}
	}
	return s
}

// Validate checks that the snapshot describes a usable ParameterSet.
func (s *Snapshot) Validate() error {
	if s.Version == "" {
		return errors.NewValidationError("version", "is required", s.Version)
	}
	mode, err := ParseMode(s.Mode)
	if err != nil {
		return err
	}
	n := len(s.Alpha)
	if n < 2 {
		return errors.NewValidationError("alpha", "needs an intercept and at least one regressor", n)
	}
	switch mode {
	case Reversible:
		if len(s.Betas) != n {
			return errors.NewDimensionError("Snapshot.Validate", n, len(s.Betas))
		}
	case Gaussian:
		if len(s.XMean) != n-1 {
			return errors.NewDimensionError("Snapshot.Validate", n-1, len(s.XMean))
		}
		if len(s.XCovariance) != (n-1)*(n-1) {
			return errors.NewDimensionError("Snapshot.Validate", (n-1)*(n-1), len(s.XCovariance))
		}
	}
	return nil
}

// Parameters validates the snapshot and rebuilds the ParameterSet.
func (s *Snapshot) Parameters() (Mode, *ParameterSet, error) {
	if err := s.Validate(); err != nil {
		return 0, nil, err
	}
	mode, _ := ParseMode(s.Mode)
	p := &ParameterSet{Alpha: append([]float64(nil), s.Alpha...)}
	if mode == Reversible {
		p.Betas = append([][2]float64(nil), s.Betas...)
	}
	if s.Coeff != nil {
		p.Coeff = dataset.Observed(*s.Coeff)
	}
	if s.ZVariance != nil {
		p.ZVariance = dataset.Observed(*s.ZVariance)
	}
	if mode == Gaussian {
		k := len(s.XMean)
		cov := mat.NewSymDense(k, nil)
		for i := 0; i < k; i++ {
			for j := i; j < k; j++ {
				cov.SetSym(i, j, s.XCovariance[i*k+j])
			}
		}
		p.XNormal = &NormalParameter{Mean: append([]float64(nil), s.XMean...), Covariance: cov}
	}
	if !p.IsFinite() {
		return 0, nil, errors.NewValueError("Snapshot.Parameters", "non-finite coefficients")
	}
	return mode, p, nil
}

// WriteSnapshot writes p as indented JSON.
func WriteSnapshot(w io.Writer, mode Mode, p *ParameterSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewSnapshot(mode, p)); err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}
	return nil
}

// ReadSnapshot decodes and validates a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (Mode, *ParameterSet, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return 0, nil, errors.Wrap(err, "failed to decode snapshot")
	}
	return s.Parameters()
}
