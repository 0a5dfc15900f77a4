package dataset

// Row is one record of the regression: X[0] is the intercept and is always
// observed 1, X[1:] are the regressors, Z is the response.
type Row struct {
	X []Value
	Z Value
}

// NewRow builds a Row from regressors, prepending the intercept.
func NewRow(z Value, regressors ...Value) Row {
	x := make([]Value, len(regressors)+1)
	x[0] = Observed(1)
	copy(x[1:], regressors)
	return Row{X: x, Z: z}
}

// Clone returns a deep copy.
func (r Row) Clone() Row {
	x := make([]Value, len(r.X))
	copy(x, r.X)
	return Row{X: x, Z: r.Z}
}

// IsComplete reports whether every regressor and the response are observed.
func (r Row) IsComplete() bool {
	if r.Z.IsMissing() {
		return false
	}
	for _, v := range r.X {
		if v.IsMissing() {
			return false
		}
	}
	return true
}

// HasObservation reports whether the response or any regressor beyond the
// intercept is observed.
func (r Row) HasObservation() bool {
	if !r.Z.IsMissing() {
		return true
	}
	for _, v := range r.X[1:] {
		if !v.IsMissing() {
			return true
		}
	}
	return false
}

// Floats returns the regressors and response as plain numbers. ok is false
// when the row is not complete.
func (r Row) Floats() (x []float64, z float64, ok bool) {
	if !r.IsComplete() {
		return nil, 0, false
	}
	x = make([]float64, len(r.X))
	for i, v := range r.X {
		x[i] = v.v
	}
	return x, r.Z.v, true
}
