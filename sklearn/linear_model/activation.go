package linear_model

import "math"

// Activation は Perceptron の活性化関数。
//
// Grad は活性化関数の「出力」を引数に取る。学習ループは Forward の結果を
// そのまま Grad に渡す。
type Activation interface {
	Forward(z float64) float64
	Grad(a float64) float64
	Name() string
}

// ProbabilisticActivation は出力を [0, 1] の確率として解釈できる活性化関数。
// PredictProba はこのインターフェースを満たす活性化関数でのみ使える
type ProbabilisticActivation interface {
	Activation
	Probabilistic()
}

// Sigmoid は小数第5位で丸めたロジスティック関数
type Sigmoid struct{}

func (Sigmoid) Forward(z float64) float64 { return sigmoid(z) }

// Grad は σ(a)·(1 - σ(a))
func (Sigmoid) Grad(a float64) float64 {
	s := sigmoid(a)
	return s * (1 - s)
}

func (Sigmoid) Name() string { return "sigmoid" }

func (Sigmoid) Probabilistic() {}

// ReLU は max(0, z)
type ReLU struct{}

func (ReLU) Forward(z float64) float64 { return math.Max(0, z) }

func (ReLU) Grad(a float64) float64 {
	if a > 0 {
		return 1
	}
	return 0
}

func (ReLU) Name() string { return "relu" }

// sigmoid は 1/(1+e^-z) を小数第5位で丸める。出力は 1e-5 刻みの値のみ
func sigmoid(z float64) float64 {
	return math.Round(1/(1+math.Exp(-z))*1e5) / 1e5
}
