// Package matutil は推定器が共通で使う行列ヘルパーを提供する。
//
// 入力の検証、バイアス列の付加、乱数生成器の初期化など、各モデルの Fit で
// 同じ手順を繰り返さないためのもの。
package matutil

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/pkg/errors"
)

// CheckX は特徴量行列が空でないことを確認し、形状を返す
func CheckX(op string, X mat.Matrix) (n, d int, err error) {
	n, d = X.Dims()
	if n == 0 || d == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	return n, d, nil
}

// CheckXY は X と y の行数が一致することを確認し、X の形状を返す
func CheckXY(op string, X, y mat.Matrix) (n, d int, err error) {
	n, d, err = CheckX(op, X)
	if err != nil {
		return 0, 0, err
	}
	ry, cy := y.Dims()
	if ry != n {
		return 0, 0, errors.NewDimensionError(op, n, ry, 0)
	}
	if cy == 0 {
		return 0, 0, errors.NewModelError(op, "empty target", errors.ErrEmptyData)
	}
	return n, d, nil
}

// TargetColumn は n×1 の目的変数をスライスとして取り出す
func TargetColumn(op string, y mat.Matrix) ([]float64, error) {
	if _, c := y.Dims(); c != 1 {
		return nil, errors.NewValueError(op, "y must be a column vector")
	}
	return mat.Col(nil, 0, y), nil
}

// AddBias は X の右端に 1 の列を加えたコピーを返す。X 自体は変更しない
func AddBias(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c+1, nil)
	out.Slice(0, r, 0, c).(*mat.Dense).Copy(X)
	for i := 0; i < r; i++ {
		out.Set(i, c, 1)
	}
	return out
}

// Column は長さ n の列ベクトルを n×1 の行列にする
func Column(v []float64) *mat.Dense {
	return mat.NewDense(len(v), 1, v)
}

// NewRand は seed から決定的な PCG 生成器を作る
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// UniformWeights は [-1/n, 1/n] の一様分布で長さ n の重みを初期化する
func UniformWeights(rng *rand.Rand, n int) *mat.VecDense {
	limit := 1 / float64(n)
	w := make([]float64, n)
	for i := range w {
		w[i] = -limit + 2*limit*rng.Float64()
	}
	return mat.NewVecDense(n, w)
}

// NormalWeights は標準正規分布で長さ n の重みを初期化する
func NormalWeights(rng *rand.Rand, n int) *mat.VecDense {
	w := make([]float64, n)
	for i := range w {
		w[i] = rng.NormFloat64()
	}
	return mat.NewVecDense(n, w)
}

// Threshold はスコアが threshold を超える行を pos、それ以外を neg とした n×1 の行列を返す
func Threshold(scores []float64, threshold, pos, neg float64) *mat.Dense {
	out := make([]float64, len(scores))
	for i, s := range scores {
		if s > threshold {
			out[i] = pos
		} else {
			out[i] = neg
		}
	}
	return Column(out)
}

// CheckBinaryLabels は y が 0 と 1 だけで構成されることを確認する
func CheckBinaryLabels(op string, y []float64) error {
	for _, v := range y {
		if v != 0 && v != 1 {
			return errors.NewValueError(op, "binary targets must be 0 or 1")
		}
	}
	return nil
}
