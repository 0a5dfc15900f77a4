package linear

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// createBenchmarkData builds a design matrix with an intercept column and a
// response from known coefficients plus small noise.
func createBenchmarkData(rows, cols int) (*mat.Dense, *mat.VecDense, []float64) {
	rng := rand.New(rand.NewPCG(42, 42))

	x := mat.NewDense(rows, cols+1, nil)
	y := mat.NewVecDense(rows, nil)
	w := make([]float64, rows)
	for i := 0; i < rows; i++ {
		x.Set(i, 0, 1)
		sum := 1.0
		for j := 1; j <= cols; j++ {
			v := rng.Float64()*2.0 - 1.0
			x.Set(i, j, v)
			sum += v * float64(j) * 0.5
		}
		y.SetVec(i, sum+(rng.Float64()-0.5)*0.1)
		w[i] = rng.Float64()
	}
	return x, y, w
}

func BenchmarkLeastSquares(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Small_100x10", 100, 10},
		{"Medium_1000x10", 1000, 10},
		{"Large_10000x20", 10000, 20},
	}

	for _, size := range sizes {
		x, y, w := createBenchmarkData(size.rows, size.cols)
		b.Run(size.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := LeastSquares(x, y, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(size.name+"_weighted", func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := LeastSquares(x, y, w); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
