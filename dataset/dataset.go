// Package dataset holds the in-memory regression data the EM engine works
// on: a regressor matrix with an intercept column and a response vector, any
// cell of which may be missing.
package dataset

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/remgo/pkg/errors"
)

// Dataset is an ordered collection of rows sharing one regressor width.
type Dataset struct {
	rows    []Row
	dim     int
	columns []int
}

// New creates an empty Dataset whose rows have dim entries in X, intercept
// included.
func New(dim int) *Dataset {
	return &Dataset{dim: dim}
}

// FromRows builds a Dataset from rows, which must all have the same width.
func FromRows(rows []Row) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.NewModelError("dataset.FromRows", "no rows", errors.ErrEmptyData)
	}
	ds := New(len(rows[0].X))
	for _, r := range rows {
		if err := ds.Append(r); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Append adds a row. The row is stored as given, not copied.
func (d *Dataset) Append(r Row) error {
	if len(r.X) != d.dim {
		return errors.NewDimensionError("Dataset.Append", d.dim, len(r.X))
	}
	d.rows = append(d.rows, r)
	return nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Dim returns the width of X, intercept included.
func (d *Dataset) Dim() int { return d.dim }

// Row returns row i. Callers must not modify the returned slices.
func (d *Dataset) Row(i int) Row { return d.rows[i] }

// Set replaces row i.
func (d *Dataset) Set(i int, r Row) { d.rows[i] = r }

// Columns returns the source indices of the regressors kept by Build, in
// X order (X[1] comes from Columns()[0]). Nil for datasets not built from a
// row source.
func (d *Dataset) Columns() []int {
	out := make([]int, len(d.columns))
	copy(out, d.columns)
	return out
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{dim: d.dim, rows: make([]Row, len(d.rows))}
	for i, r := range d.rows {
		out.rows[i] = r.Clone()
	}
	out.columns = d.Columns()
	return out
}

// Complete returns the subset of fully observed rows.
func (d *Dataset) Complete() *Dataset {
	out := &Dataset{dim: d.dim, columns: d.Columns()}
	for _, r := range d.rows {
		if r.IsComplete() {
			out.rows = append(out.rows, r.Clone())
		}
	}
	return out
}

// Slice returns rows [from, to) as a new Dataset sharing no memory.
func (d *Dataset) Slice(from, to int) *Dataset {
	out := &Dataset{dim: d.dim, columns: d.Columns()}
	for _, r := range d.rows[from:to] {
		out.rows = append(out.rows, r.Clone())
	}
	return out
}

// MissingCount returns the number of missing cells in X and in Z.
func (d *Dataset) MissingCount() (x, z int) {
	for _, r := range d.rows {
		for _, v := range r.X {
			if v.IsMissing() {
				x++
			}
		}
		if r.Z.IsMissing() {
			z++
		}
	}
	return x, z
}

// Matrix returns the complete rows as a design matrix (intercept column
// included) and a response vector. It returns nil, nil when no row is
// complete.
func (d *Dataset) Matrix() (*mat.Dense, *mat.VecDense) {
	var data, zs []float64
	for _, r := range d.rows {
		x, z, ok := r.Floats()
		if !ok {
			continue
		}
		data = append(data, x...)
		zs = append(zs, z)
	}
	if len(zs) == 0 {
		return nil, nil
	}
	return mat.NewDense(len(zs), d.dim, data), mat.NewVecDense(len(zs), zs)
}

// ZMean returns the mean of the observed responses and how many there were.
func (d *Dataset) ZMean() (float64, int) {
	var zs []float64
	for _, r := range d.rows {
		if z, ok := r.Z.Float(); ok {
			zs = append(zs, z)
		}
	}
	if len(zs) == 0 {
		return 0, 0
	}
	return stat.Mean(zs, nil), len(zs)
}
