package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLogLoss(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []float64
		yPred []float64
		want  float64
	}{
		{
			name:  "half probability",
			yTrue: []float64{0, 1},
			yPred: []float64{0.5, 0.5},
			want:  math.Log(2),
		},
		{
			name:  "confident and correct",
			yTrue: []float64{0, 1},
			yPred: []float64{0, 1},
			want:  -math.Log(1 - logLossEps),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LogLoss(tt.yTrue, tt.yPred), 1e-9)
		})
	}

	// 完全に外れても有限値
	assert.False(t, math.IsInf(LogLoss([]float64{1}, []float64{0}), 0))
}

func TestBinaryLogLoss(t *testing.T) {
	got, err := BinaryLogLoss(col(0, 1), col(0.5, 0.5))
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), got, 1e-9)

	_, err = BinaryLogLoss(col(0, 1), col(0.5, 1.5))
	assert.Error(t, err)
}

func TestHingeLoss(t *testing.T) {
	// マージン外: 0, マージン内: 0.5, 誤分類: 2
	got := HingeLoss([]float64{1, 1, -1}, []float64{2, 0.5, 1})
	assert.InDelta(t, 2.5/3, got, 1e-12)

	got, err := MeanHingeLoss(col(1, -1), col(1, -1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestAccuracy(t *testing.T) {
	got, err := Accuracy(col(0, 1, 1, 0), col(0, 1, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-12)

	// one-hot 行列は行単位で比較する
	yTrue := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	yPred := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 0, 1, 0, 0, 1})
	got, err = Accuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, got, 1e-12)

	classErr, err := ClassificationError(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, classErr, 1e-12)

	_, err = Accuracy(yTrue, col(1, 2, 3))
	assert.Error(t, err)
}

func TestPrecisionRecallF1(t *testing.T) {
	yTrue := col(1, 1, 1, 0, 0, 0)
	yPred := col(1, 1, 0, 1, 0, 0)

	counts, err := CountBinary(yTrue, yPred)
	require.NoError(t, err)
	assert.Equal(t, BinaryCounts{TP: 2, TN: 2, FP: 1, FN: 1}, counts)

	p, err := Precision(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, p, 1e-12)

	r, err := Recall(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, r, 1e-12)

	f1, err := F1Score(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, f1, 1e-12)

	fpr, err := FalsePositiveRate(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, fpr, 1e-12)

	// 陽性予測がなければ 0
	p, err = Precision(yTrue, col(0, 0, 0, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
}

func TestConfusionMatrix(t *testing.T) {
	cm, err := ConfusionMatrix(col(0, 1, 2, 2), col(0, 2, 2, 1), false)
	require.NoError(t, err)

	want := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 0, 1,
		0, 1, 1,
	})
	assert.True(t, mat.Equal(want, cm))

	norm, err := ConfusionMatrix(col(0, 1, 2, 2), col(0, 2, 2, 1), true)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mat.Sum(norm), 1e-12)

	_, err = ConfusionMatrix(col(0, 1.5), col(0, 1), false)
	assert.Error(t, err)
}

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name  string
		yPred []float64
		want  float64
	}{
		{"perfect classifier", []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}, 1.0},
		{"worst classifier", []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1}, 0.0},
	}
	yTrue := col(0, 0, 0, 1, 1, 1)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ROCAUC(yTrue, col(tt.yPred...), 100)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	tpr, fpr, err := ROCCurve(yTrue, col(0.1, 0.2, 0.3, 0.7, 0.8, 0.9), 10)
	require.NoError(t, err)
	require.Len(t, tpr, 11)
	// 閾値0ではすべて陽性
	assert.Equal(t, 1.0, tpr[0])
	assert.Equal(t, 1.0, fpr[0])

	_, _, err = ROCCurve(yTrue, yTrue, 0)
	assert.Error(t, err)
}

func TestSquaredEuclidean(t *testing.T) {
	assert.Equal(t, 25.0, SquaredEuclidean([]float64{0, 0}, []float64{3, 4}))
	assert.Panics(t, func() { SquaredEuclidean([]float64{1}, []float64{1, 2}) })

	X := mat.NewDense(3, 2, []float64{0, 0, 1, 1, 3, 4})
	got := SquaredEuclideanDistances(nil, X, []float64{0, 0})
	assert.Equal(t, []float64{0, 2, 25}, got)

	D := PairwiseSquaredEuclidean(X, X)
	r, c := D.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 0.0, D.At(1, 1))
	assert.Equal(t, D.At(0, 2), D.At(2, 0))

	assert.Equal(t, 1, ArgMin([]float64{3, 1, 1}))
	assert.Equal(t, 0, ArgMax([]float64{3, 1, 3}))
}
