package mixture

import (
	"github.com/YuminosukeSato/remgo/dataset"
)

// Merge builds the consensus dataset: cells observed in raw keep their
// value, missing cells become Σ_k w_k·value_k over the component
// imputations with the weights normalized to sum to one.
func Merge(raw *dataset.Dataset, filled []*dataset.Dataset, weights []float64) *dataset.Dataset {
	w := make([]float64, len(weights))
	var total float64
	for _, v := range weights {
		total += v
	}
	for k, v := range weights {
		if total > 0 {
			w[k] = v / total
		} else {
			w[k] = 1 / float64(len(weights))
		}
	}

	out := raw.Clone()
	for i := 0; i < raw.Len(); i++ {
		row := out.Row(i)
		for j, v := range row.X {
			if v.IsMissing() {
				row.X[j] = dataset.Observed(blend(w, filled, func(r dataset.Row) dataset.Value { return r.X[j] }, i))
			}
		}
		if row.Z.IsMissing() {
			row.Z = dataset.Observed(blend(w, filled, func(r dataset.Row) dataset.Value { return r.Z }, i))
		}
		out.Set(i, row)
	}
	return out
}

func blend(w []float64, filled []*dataset.Dataset, cell func(dataset.Row) dataset.Value, i int) float64 {
	var sum float64
	for k, ds := range filled {
		sum += w[k] * cell(ds.Row(i)).Or(0)
	}
	return sum
}
