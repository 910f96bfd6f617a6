package matutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/pkg/errors"
)

func TestCheckXY(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	n, d, err := CheckXY("Fit", X, mat.NewDense(3, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, d)

	_, _, err = CheckXY("Fit", X, mat.NewDense(2, 1, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 0, dimErr.Axis)

	_, _, err = CheckX("Fit", &mat.Dense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestTargetColumn(t *testing.T) {
	y, err := TargetColumn("Fit", mat.NewDense(2, 1, []float64{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, y)

	_, err = TargetColumn("Fit", mat.NewDense(2, 2, nil))
	assert.Error(t, err)
}

func TestAddBias(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	got := AddBias(X)

	want := mat.NewDense(2, 3, []float64{1, 2, 1, 3, 4, 1})
	assert.True(t, mat.Equal(want, got))
	// 元の行列は変更されない
	_, c := X.Dims()
	assert.Equal(t, 2, c)
}

func TestWeightsInit(t *testing.T) {
	rng := NewRand(7)
	w := UniformWeights(rng, 4)
	for i := 0; i < w.Len(); i++ {
		assert.LessOrEqual(t, w.AtVec(i), 0.25)
		assert.GreaterOrEqual(t, w.AtVec(i), -0.25)
	}

	a := NormalWeights(NewRand(3), 5)
	b := NormalWeights(NewRand(3), 5)
	assert.True(t, mat.Equal(a, b))
}

func TestThreshold(t *testing.T) {
	got := Threshold([]float64{0.2, 0.5, 0.7}, 0.5, 1, 0)
	assert.Equal(t, []float64{0, 0, 1}, mat.Col(nil, 0, got))

	got = Threshold([]float64{0.9}, 0.5, 1, -1)
	assert.Equal(t, 1.0, got.At(0, 0))

	assert.NoError(t, CheckBinaryLabels("Fit", []float64{0, 1, 1}))
	assert.Error(t, CheckBinaryLabels("Fit", []float64{0, 2}))
}
