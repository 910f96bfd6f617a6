package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/pkg/errors"
)

// logLossEps は log(0) を避けるためのクリップ幅
const logLossEps = 1e-15

// LogLoss は二値ラベル yTrue と陽性確率 yProba のクロスエントロピーの平均を返す。
// 確率は [eps, 1-eps] に線形に押し込んでから対数を取る。学習ループから直接呼ばれる
func LogLoss(yTrue, yProba []float64) float64 {
	if len(yTrue) != len(yProba) {
		panic("metrics: slice length mismatch")
	}
	var sum float64
	for i, y := range yTrue {
		p := yProba[i]*(1-2*logLossEps) + logLossEps
		sum += y*math.Log(p) + (1-y)*math.Log(1-p)
	}
	return -sum / float64(len(yTrue))
}

// HingeLoss は {-1,+1} ラベルと決定関数値に対する max(0, 1 - y·s) の平均を返す
func HingeLoss(yTrue, scores []float64) float64 {
	if len(yTrue) != len(scores) {
		panic("metrics: slice length mismatch")
	}
	var sum float64
	for i, y := range yTrue {
		sum += math.Max(0, 1-y*scores[i])
	}
	return sum / float64(len(yTrue))
}

// BinaryLogLoss は LogLoss の mat.Matrix 版
func BinaryLogLoss(yTrue, yProba mat.Matrix) (float64, error) {
	t, p, err := columns("BinaryLogLoss", yTrue, yProba)
	if err != nil {
		return 0, err
	}
	for _, v := range p {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return 0, errors.NewValueError("BinaryLogLoss", "probabilities must lie in [0, 1]")
		}
	}
	return LogLoss(t, p), nil
}

// MeanHingeLoss は HingeLoss の mat.Matrix 版
func MeanHingeLoss(yTrue, scores mat.Matrix) (float64, error) {
	t, s, err := columns("MeanHingeLoss", yTrue, scores)
	if err != nil {
		return 0, err
	}
	return HingeLoss(t, s), nil
}

// Accuracy は完全に一致した行の割合を返す。
// n×1 のラベル列にも、One-vs-All の n×K one-hot 行列にも使える
func Accuracy(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("Accuracy", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("Accuracy", rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return 0, errors.NewDimensionError("Accuracy", cTrue, cPred, 1)
	}

	a := make([]float64, cTrue)
	b := make([]float64, cTrue)
	correct := 0
	for i := 0; i < rTrue; i++ {
		mat.Row(a, i, yTrue)
		mat.Row(b, i, yPred)
		if floats.Equal(a, b) {
			correct++
		}
	}
	return float64(correct) / float64(rTrue), nil
}

// ClassificationError は 1 - Accuracy を返す
func ClassificationError(yTrue, yPred mat.Matrix) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// BinaryCounts は陽性ラベルを 1、陰性ラベルを 0 とした混同行列の4要素
type BinaryCounts struct {
	TP, TN, FP, FN int
}

// CountBinary は二値ラベルの TP/TN/FP/FN を数える
func CountBinary(yTrue, yPred mat.Matrix) (BinaryCounts, error) {
	t, p, err := columns("CountBinary", yTrue, yPred)
	if err != nil {
		return BinaryCounts{}, err
	}
	var c BinaryCounts
	for i := range t {
		switch {
		case t[i] == 1 && p[i] == 1:
			c.TP++
		case t[i] == 0 && p[i] == 0:
			c.TN++
		case t[i] == 0 && p[i] == 1:
			c.FP++
		case t[i] == 1 && p[i] == 0:
			c.FN++
		}
	}
	return c, nil
}

// 分母が0のときは0を返す（scikit-learn の zero_division=0 と同じ）
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Precision は TP / (TP + FP)
func Precision(yTrue, yPred mat.Matrix) (float64, error) {
	c, err := CountBinary(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ratio(c.TP, c.TP+c.FP), nil
}

// Recall は TP / (TP + FN)
func Recall(yTrue, yPred mat.Matrix) (float64, error) {
	c, err := CountBinary(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ratio(c.TP, c.TP+c.FN), nil
}

// FalsePositiveRate は FP / (FP + TN)
func FalsePositiveRate(yTrue, yPred mat.Matrix) (float64, error) {
	c, err := CountBinary(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ratio(c.FP, c.FP+c.TN), nil
}

// F1Score は precision と recall の調和平均
func F1Score(yTrue, yPred mat.Matrix) (float64, error) {
	c, err := CountBinary(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	precision := ratio(c.TP, c.TP+c.FP)
	recall := ratio(c.TP, c.TP+c.FN)
	if precision+recall == 0 {
		return 0, nil
	}
	return 2 * precision * recall / (precision + recall), nil
}

// ConfusionMatrix は整数ラベル 0..K-1 の混同行列を返す。行が正解、列が予測。
// normalize が true の場合は全要素の和で割る
func ConfusionMatrix(yTrue, yPred mat.Matrix, normalize bool) (*mat.Dense, error) {
	t, p, err := columns("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	nClasses := 0
	for i := range t {
		for _, v := range []float64{t[i], p[i]} {
			if v < 0 || v != math.Trunc(v) {
				return nil, errors.NewValueError("ConfusionMatrix", "labels must be non-negative integers")
			}
			if int(v)+1 > nClasses {
				nClasses = int(v) + 1
			}
		}
	}

	cm := mat.NewDense(nClasses, nClasses, nil)
	for i := range t {
		ti, pi := int(t[i]), int(p[i])
		cm.Set(ti, pi, cm.At(ti, pi)+1)
	}
	if normalize {
		cm.Scale(1/float64(len(t)), cm)
	}
	return cm, nil
}

// ROCCurve は閾値 i/nThresholds (i = 0..nThresholds) ごとの TPR と FPR を返す。
// 閾値以上のスコアを陽性とみなす
func ROCCurve(yTrue, yProba mat.Matrix, nThresholds int) (tpr, fpr []float64, err error) {
	if nThresholds <= 0 {
		return nil, nil, errors.NewValidationError("nThresholds", "must be positive", nThresholds)
	}
	t, p, err := columns("ROCCurve", yTrue, yProba)
	if err != nil {
		return nil, nil, err
	}

	tpr = make([]float64, nThresholds+1)
	fpr = make([]float64, nThresholds+1)
	for i := 0; i <= nThresholds; i++ {
		threshold := float64(i) / float64(nThresholds)
		var c BinaryCounts
		for j := range t {
			pos := p[j] >= threshold
			switch {
			case t[j] == 1 && pos:
				c.TP++
			case t[j] == 1:
				c.FN++
			case pos:
				c.FP++
			default:
				c.TN++
			}
		}
		tpr[i] = ratio(c.TP, c.TP+c.FN)
		fpr[i] = ratio(c.FP, c.FP+c.TN)
	}
	return tpr, fpr, nil
}

// AUC は ROCCurve の出力（閾値の昇順）から曲線下面積を左リーマン和で求める
func AUC(tpr, fpr []float64) (float64, error) {
	if len(tpr) != len(fpr) {
		return 0, errors.NewDimensionError("AUC", len(tpr), len(fpr), 0)
	}
	if len(tpr) < 2 {
		return 0, errors.NewValueError("AUC", "need at least two thresholds")
	}
	var sum float64
	for i := 0; i < len(tpr)-1; i++ {
		sum += (fpr[i] - fpr[i+1]) * tpr[i]
	}
	return sum, nil
}

// ROCAUC は ROCCurve と AUC をまとめて計算する
func ROCAUC(yTrue, yProba mat.Matrix, nThresholds int) (float64, error) {
	tpr, fpr, err := ROCCurve(yTrue, yProba, nThresholds)
	if err != nil {
		return 0, err
	}
	return AUC(tpr, fpr)
}
