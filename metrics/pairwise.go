package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SquaredEuclidean は2つのベクトル間の二乗ユークリッド距離を返す。
// 長さが異なる場合は panic する（floats と同じ規約）
func SquaredEuclidean(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("metrics: slice length mismatch")
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// SquaredEuclideanDistances はクエリ x から X の各行への二乗距離を dst に書き込む。
// dst が nil の場合は新しく確保する
func SquaredEuclideanDistances(dst []float64, X mat.Matrix, x []float64) []float64 {
	r, c := X.Dims()
	if c != len(x) {
		panic(mat.ErrShape)
	}
	if dst == nil {
		dst = make([]float64, r)
	} else if len(dst) != r {
		panic("metrics: destination length mismatch")
	}
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		dst[i] = SquaredEuclidean(row, x)
	}
	return dst
}

// PairwiseSquaredEuclidean は A の各行と B の各行の二乗距離行列 (nA×nB) を返す
func PairwiseSquaredEuclidean(A, B mat.Matrix) *mat.Dense {
	nA, _ := A.Dims()
	nB, c := B.Dims()
	out := mat.NewDense(nA, nB, nil)
	row := make([]float64, c)
	for i := 0; i < nA; i++ {
		mat.Row(row, i, A)
		out.SetRow(i, SquaredEuclideanDistances(nil, B, row))
	}
	return out
}

// ArgMin は最小値のインデックスを返す。同値の場合は最小のインデックス
func ArgMin(s []float64) int {
	return floats.MinIdx(s)
}

// ArgMax は最大値のインデックスを返す。同値の場合は最小のインデックス
func ArgMax(s []float64) int {
	return floats.MaxIdx(s)
}
