package model

import "gonum.org/v1/gonum/mat"

// Fitter は教師あり学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。
	// y の行数は X の行数と一致しなければならない
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Model は教師あり学習モデルの基本インターフェース
type Model interface {
	Fitter
	Predictor
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	Model
	// Weights は学習された重みを返す。切片がある場合は最後の要素
	Weights() *mat.VecDense
}
