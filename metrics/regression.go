// Package metrics は予測結果の評価指標と、KNN・K-means が使う距離関数を提供する。
//
// 評価指標はモデルの Predict / PredictProba の出力（n×1 の mat.Matrix）をそのまま受け取る。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goml/pkg/errors"
)

// columns は yTrue, yPred を検証し、列ベクトルのスライスとして取り出す
func columns(op string, yTrue, yPred mat.Matrix) ([]float64, []float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 || cPred != 1 {
		return nil, nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}

	return mat.Col(nil, 0, yTrue), mat.Col(nil, 0, yPred), nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columns("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return meanSquaredDiff(t, p), nil
}

func meanSquaredDiff(t, p []float64) float64 {
	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := range t {
		diff := t[i] - p[i]
		sum += diff * diff
	}
	return sum / float64(len(t))
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Matrix) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columns("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	diff := make([]float64, len(t))
	floats.SubTo(diff, t, p)
	return floats.Norm(diff, 1) / float64(len(t)), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columns("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	yMean := stat.Mean(t, nil)
	var tss, rss float64
	for i := range t {
		tss += (t[i] - yMean) * (t[i] - yMean)
		rss += (t[i] - p[i]) * (t[i] - p[i])
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}

	return 1 - rss/tss, nil
}

// ExplainedVarianceScore は説明分散スコア 1 - Var(yTrue - yPred) / Var(yTrue) を計算する
func ExplainedVarianceScore(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columns("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if len(t) < 2 {
		return 0, errors.NewValueError("ExplainedVarianceScore", "need at least two samples")
	}

	varTrue := stat.Variance(t, nil)
	if varTrue == 0 {
		return 0, errors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}

	residual := make([]float64, len(t))
	floats.SubTo(residual, t, p)
	return 1 - stat.Variance(residual, nil)/varTrue, nil
}
