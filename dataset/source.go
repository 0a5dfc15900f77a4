package dataset

import (
	"github.com/YuminosukeSato/remgo/pkg/errors"
)

// Record is an opaque raw record produced by a RowSource.
type Record interface{}

// RowSource is a resettable cursor over raw records.
type RowSource interface {
	Next() bool
	Record() Record
	Reset() error
	Close() error
}

// Extractor turns a record and a variable index into a number or Missing.
type Extractor interface {
	Extract(rec Record, index int) Value
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(rec Record, index int) Value

// Extract calls f.
func (f ExtractorFunc) Extract(rec Record, index int) Value {
	return f(rec, index)
}

// Layout names the variables of a regression: the response index and the
// regressor indices, all in the extractor's index space.
type Layout struct {
	Response   int
	Regressors []int
}

// Build materializes a Dataset in two passes over src. The first pass keeps
// the regressors observed in at least one record; the second reads the
// kept variables. Records with nothing observed are dropped.
//
// A DataError is returned when fewer than two columns (intercept plus one
// regressor) survive or when no usable record exists.
func Build(src RowSource, ex Extractor, layout Layout) (*Dataset, error) {
	if err := src.Reset(); err != nil {
		return nil, errors.Wrap(err, "dataset.Build: reset before existence pass")
	}

	seen := make([]bool, len(layout.Regressors))
	for src.Next() {
		rec := src.Record()
		for j, idx := range layout.Regressors {
			if !seen[j] && !ex.Extract(rec, idx).IsMissing() {
				seen[j] = true
			}
		}
	}

	var kept []int
	for j, idx := range layout.Regressors {
		if seen[j] {
			kept = append(kept, idx)
		}
	}
	if len(kept)+1 < 2 {
		return nil, errors.NewDataError("dataset.Build", len(kept)+1, 0, "fewer than 2 usable columns")
	}

	if err := src.Reset(); err != nil {
		return nil, errors.Wrap(err, "dataset.Build: reset before materialization pass")
	}

	ds := &Dataset{dim: len(kept) + 1, columns: kept}
	for src.Next() {
		rec := src.Record()
		regressors := make([]Value, len(kept))
		for j, idx := range kept {
			regressors[j] = ex.Extract(rec, idx)
		}
		row := NewRow(ex.Extract(rec, layout.Response), regressors...)
		if !row.HasObservation() {
			continue
		}
		ds.rows = append(ds.rows, row)
	}

	if ds.Len() == 0 {
		return nil, errors.NewDataError("dataset.Build", ds.dim, 0, "no usable rows")
	}
	return ds, nil
}

// SliceSource is a RowSource over an in-memory slice.
type SliceSource struct {
	records []Record
	pos     int
	closed  bool
}

// NewSliceSource creates a SliceSource.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records, pos: -1}
}

func (s *SliceSource) Next() bool {
	if s.closed || s.pos+1 >= len(s.records) {
		return false
	}
	s.pos++
	return true
}

func (s *SliceSource) Record() Record {
	if s.pos < 0 || s.pos >= len(s.records) {
		return nil
	}
	return s.records[s.pos]
}

func (s *SliceSource) Reset() error {
	if s.closed {
		return errors.New("slice source is closed")
	}
	s.pos = -1
	return nil
}

func (s *SliceSource) Close() error {
	s.closed = true
	return nil
}

// FloatExtractor reads []float64 records, treating NaN or an out-of-range
// index as missing.
var FloatExtractor = ExtractorFunc(func(rec Record, index int) Value {
	vs, ok := rec.([]float64)
	if !ok || index < 0 || index >= len(vs) || vs[index] != vs[index] {
		return Missing()
	}
	return Observed(vs[index])
})
