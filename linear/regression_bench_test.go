package linear

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// createBenchmarkData はベンチマーク用のデータを生成する
func createBenchmarkData(rows, cols int) (*mat.Dense, *mat.Dense) {
	// シードを固定して再現性を確保
	rng := rand.New(rand.NewPCG(42, 42))

	// X: rows x cols の行列（-1.0 から 1.0 の範囲）
	X := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64()*2.0-1.0)
		}
	}

	// y = X * weights + 1 + 小さなノイズ
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			sum += X.At(i, j) * float64(j+1) * 0.5
		}
		sum += (rng.Float64() - 0.5) * 0.1
		y.Set(i, 0, sum)
	}

	return X, y
}

// BenchmarkLinearRegressionFit は解法ごとの Fit のベンチマーク
func BenchmarkLinearRegressionFit(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Small_100x10", 100, 10},
		{"Medium_1000x10", 1000, 10},
		{"Large_10000x20", 10000, 20},
	}

	for _, solver := range []Solver{SolverPinv, SolverGradientDescent, SolverSGD} {
		for _, size := range sizes {
			b.Run(solver.String()+"/"+size.name, func(b *testing.B) {
				X, y := createBenchmarkData(size.rows, size.cols)

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					lr, err := NewLinearRegression(WithSolver(solver), WithMaxIter(100))
					if err != nil {
						b.Fatal(err)
					}
					if err := lr.Fit(X, y); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkGradientDescentRegressionFit は正則化付き勾配降下のベンチマーク
func BenchmarkGradientDescentRegressionFit(b *testing.B) {
	X, y := createBenchmarkData(1000, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g, err := NewRidge(0.01, WithLearningRate(0.01))
		if err != nil {
			b.Fatal(err)
		}
		if err := g.Fit(X, y); err != nil {
			b.Fatal(err)
		}
	}
}
