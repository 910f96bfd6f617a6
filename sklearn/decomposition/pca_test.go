package decomposition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

func sampleData() *mat.Dense {
	return mat.NewDense(6, 3, []float64{
		2.5, 2.4, 0.5,
		0.5, 0.7, 0.1,
		2.2, 2.9, 0.3,
		1.9, 2.2, 0.8,
		3.1, 3.0, 0.2,
		2.3, 2.7, 0.6,
	})
}

func squaredError(a, b mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	var sum float64
	r, c := diff.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := diff.At(i, j)
			sum += v * v
		}
	}
	return sum
}

func TestPCA_FullRoundTrip(t *testing.T) {
	X := sampleData()

	pca, err := NewPCA(WithNComponents(3))
	require.NoError(t, err)
	Z, err := pca.FitTransform(X)
	require.NoError(t, err)

	rz, cz := Z.Dims()
	assert.Equal(t, 6, rz)
	assert.Equal(t, 3, cz)

	back, err := pca.Reconstruct(Z)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-9))

	ratio := pca.ExplainedVarianceRatio()
	assert.InDelta(t, 1.0, floats.Sum(ratio), 1e-12)
	for i := 1; i < len(ratio); i++ {
		assert.GreaterOrEqual(t, ratio[i-1], ratio[i])
	}
}

func TestPCA_ReconstructionErrorMatchesDiscardedVariance(t *testing.T) {
	X := sampleData()
	n, _ := X.Dims()

	for _, keep := range []int{1, 2} {
		pca, err := NewPCA(WithNComponents(keep))
		require.NoError(t, err)
		Z, err := pca.FitTransform(X)
		require.NoError(t, err)
		back, err := pca.Reconstruct(Z)
		require.NoError(t, err)

		// 共分散は n-1 で割っているので、二乗誤差の総和は (n-1) × 捨てた固有値の和
		discarded := floats.Sum(pca.Eigenvalues()[keep:])
		assert.InDelta(t, float64(n-1)*discarded, squaredError(X, back), 1e-9, "keep %d", keep)
	}
}

func TestPCA_VarianceThreshold(t *testing.T) {
	X := sampleData()

	full, err := NewPCA(WithNComponents(3))
	require.NoError(t, err)
	require.NoError(t, full.Fit(X))
	ratio := full.ExplainedVarianceRatio()
	require.Less(t, ratio[0]+ratio[1], 1.0)

	tests := []struct {
		name      string
		threshold float64
		want      int
	}{
		{"first component suffices", ratio[0] / 2, 1},
		{"needs second component", ratio[0] + ratio[1]/2, 2},
		{"needs every component", ratio[0] + ratio[1] + ratio[2]/2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pca, err := NewPCA(WithVarianceThreshold(tt.threshold))
			require.NoError(t, err)
			require.NoError(t, pca.Fit(X))
			assert.Equal(t, tt.want, pca.NComponents())

			r, c := pca.Components().Dims()
			assert.Equal(t, 3, r)
			assert.Equal(t, tt.want, c)
			assert.Greater(t, floats.Sum(pca.ExplainedVarianceRatio()), tt.threshold)
		})
	}
}

func TestPCA_TransformNewMatchesTransform(t *testing.T) {
	X := sampleData()

	pca, err := NewPCA(WithNComponents(2))
	require.NoError(t, err)
	require.NoError(t, pca.Fit(X))

	train, err := pca.Transform()
	require.NoError(t, err)
	fresh, err := pca.TransformNew(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(train, fresh, 1e-12))

	mean := pca.Mean()
	assert.InDelta(t, 2.0833333333333335, mean[0], 1e-12)
	assert.Len(t, pca.ExplainedVariance(), 2)
}

func TestPCA_ComponentCountClamped(t *testing.T) {
	pca, err := NewPCA(WithNComponents(10))
	require.NoError(t, err)
	require.NoError(t, pca.Fit(sampleData()))
	assert.Equal(t, 3, pca.NComponents())
}

func TestPCA_Errors(t *testing.T) {
	var valErr *errors.ValidationError

	_, err := NewPCA()
	assert.True(t, errors.As(err, &valErr))

	_, err = NewPCA(WithNComponents(2), WithVarianceThreshold(0.9))
	assert.True(t, errors.As(err, &valErr))

	_, err = NewPCA(WithNComponents(-1))
	assert.True(t, errors.As(err, &valErr))

	_, err = NewPCA(WithVarianceThreshold(1.5))
	assert.True(t, errors.As(err, &valErr))

	pca, err := NewPCA(WithNComponents(2))
	require.NoError(t, err)

	_, err = pca.Transform()
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	err = pca.Fit(mat.NewDense(1, 3, []float64{1, 2, 3}))
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	require.NoError(t, pca.Fit(sampleData()))
	var dimErr *errors.DimensionError
	_, err = pca.TransformNew(mat.NewDense(2, 2, nil))
	assert.True(t, errors.As(err, &dimErr))
	_, err = pca.Reconstruct(mat.NewDense(2, 3, nil))
	assert.True(t, errors.As(err, &dimErr))
}

func TestPCA_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)

	pca, err := NewPCA(WithNComponents(2), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, pca.Fit(sampleData()))

	assert.True(t, logger.ContainsMessage("Model fitting completed"))
	assert.True(t, logger.ContainsField(log.ComponentsKey, 2.0))
}
