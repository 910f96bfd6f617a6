package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

var _ model.Clusterer = (*KMeans)(nil)

// threeBlobs は (0,0), (5,5), (0,5) を中心とする 5 点ずつのクラスタ
func threeBlobs() *mat.Dense {
	offsets := [][2]float64{{0, 0}, {0.2, 0.1}, {-0.1, 0.2}, {0.1, -0.2}, {-0.2, -0.1}}
	centers := [][2]float64{{0, 0}, {5, 5}, {0, 5}}
	X := mat.NewDense(15, 2, nil)
	for c, center := range centers {
		for i, off := range offsets {
			X.Set(c*5+i, 0, center[0]+off[0])
			X.Set(c*5+i, 1, center[1]+off[1])
		}
	}
	return X
}

func TestKMeans_ThreeBlobs(t *testing.T) {
	X := threeBlobs()

	km, err := NewKMeans(3, WithRandomState(42))
	require.NoError(t, err)
	assert.Equal(t, StateUnseeded, km.State())
	require.NoError(t, km.Fit(X))

	assert.Equal(t, StateConverged, km.State())
	labels := km.Labels()
	require.Len(t, labels, 15)
	for c := 0; c < 3; c++ {
		for i := 1; i < 5; i++ {
			assert.Equal(t, labels[c*5], labels[c*5+i], "blob %d", c)
		}
	}
	assert.NotEqual(t, labels[0], labels[5])
	assert.NotEqual(t, labels[5], labels[10])
	assert.NotEqual(t, labels[0], labels[10])

	// 各ブロブの offsets の二乗和は 0 + 0.05 + 0.05 + 0.05 + 0.05 = 0.2、平均は 0
	assert.InDelta(t, 0.6, km.Inertia(), 1e-9)

	r, c := km.Centroids().Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.GreaterOrEqual(t, km.NIter(), 2)
}

func TestKMeans_InertiaPathNonIncreasing(t *testing.T) {
	X := mat.NewDense(12, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})

	for seed := int64(0); seed < 10; seed++ {
		km, err := NewKMeans(4, WithRandomState(seed), WithEmptyClusterPolicy(EmptyClusterReseed))
		require.NoError(t, err)
		require.NoError(t, km.Fit(X))

		path := km.InertiaPath()
		require.Len(t, path, km.NIter())
		for i := 1; i < len(path); i++ {
			assert.LessOrEqual(t, path[i], path[i-1]+1e-9, "seed %d iteration %d", seed, i)
		}
		last := path[len(path)-1]
		assert.InDelta(t, last, km.Inertia(), 1e-9)
	}
}

func TestKMeans_SeedDeterminism(t *testing.T) {
	X := threeBlobs()

	fit := func() *KMeans {
		km, err := NewKMeans(3, WithRandomState(7))
		require.NoError(t, err)
		require.NoError(t, km.Fit(X))
		return km
	}
	a, b := fit(), fit()
	assert.True(t, mat.Equal(a.Centroids(), b.Centroids()))
	assert.Equal(t, a.Labels(), b.Labels())
	assert.Equal(t, a.InertiaPath(), b.InertiaPath())
}

func TestKMeans_PredictUsesNeighbours(t *testing.T) {
	X := threeBlobs()

	km, err := NewKMeans(3, WithRandomState(1))
	require.NoError(t, err)
	require.NoError(t, km.Fit(X))

	same, err := km.Predict(X, 1)
	require.NoError(t, err)
	assert.Equal(t, km.Labels(), same)

	pred, err := km.Predict(mat.NewDense(2, 2, []float64{4.8, 5.1, 0.1, 4.9}), 3)
	require.NoError(t, err)
	assert.Equal(t, km.Labels()[5], pred[0])
	assert.Equal(t, km.Labels()[10], pred[1])

	_, err = km.Predict(X, 0)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestKMeans_EmptyCluster(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 1, 1, 1, 1, 1, 1, 1})

	km, err := NewKMeans(2)
	require.NoError(t, err)
	err = km.Fit(X)
	var emptyErr *errors.EmptyClusterError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, 1, emptyErr.Cluster)
	assert.Equal(t, 0, emptyErr.Iteration)
	assert.False(t, km.IsFitted())

	km, err = NewKMeans(2, WithEmptyClusterPolicy(EmptyClusterReseed))
	require.NoError(t, err)
	require.NoError(t, km.Fit(X))
	assert.Equal(t, StateConverged, km.State())
	assert.Equal(t, 0.0, km.Inertia())
	for _, v := range km.Centroids().RawMatrix().Data {
		assert.False(t, math.IsNaN(v))
	}
}

func TestKMeans_Exhausted(t *testing.T) {
	var warnings []error
	errors.SetZerologWarnFunc(func(w error) { warnings = append(warnings, w) })
	defer errors.SetZerologWarnFunc(nil)

	km, err := NewKMeans(3, WithMaxIter(1))
	require.NoError(t, err)
	require.NoError(t, km.Fit(threeBlobs()))

	assert.Equal(t, StateExhausted, km.State())
	assert.Equal(t, 1, km.NIter())
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Error(), "KMeans failed to converge after 1 iterations")
}

func TestKMeans_Errors(t *testing.T) {
	var valErr *errors.ValidationError

	_, err := NewKMeans(0)
	assert.True(t, errors.As(err, &valErr))

	_, err = NewKMeans(2, WithMaxIter(0))
	assert.True(t, errors.As(err, &valErr))

	_, err = NewKMeans(2, WithEmptyClusterPolicy(EmptyClusterPolicy(5)))
	assert.True(t, errors.As(err, &valErr))

	km, err := NewKMeans(5)
	require.NoError(t, err)
	err = km.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}))
	assert.True(t, errors.As(err, &valErr))

	_, err = km.Predict(mat.NewDense(1, 1, nil), 1)
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))
}

func TestKMeans_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)

	km, err := NewKMeans(3, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, km.Fit(threeBlobs()))

	assert.True(t, logger.ContainsMessage("Model fitting completed"))
	assert.True(t, logger.ContainsField(log.ClustersKey, 3.0))
}

func TestElbowIndex(t *testing.T) {
	tests := []struct {
		name      string
		inertias  []float64
		threshold float64
		want      int
	}{
		// i=1: 40/10 - 40/100 = 3.6; i=2: 10/9 - 10/40 = 0.86
		{"elbow at three clusters", []float64{100, 40, 10, 9, 8.5}, 1, 2},
		// i=1: 50/49 - 50/100 = 0.52
		{"first index qualifies", []float64{100, 50, 49, 48}, 1, 1},
		{"falls back to last scanned", []float64{100, 10, 1, 0.1, 0.01}, 0.5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, elbowIndex(tt.inertias, tt.threshold))
		})
	}
}

func TestKChooser(t *testing.T) {
	X := threeBlobs()

	kc, err := NewKChooser(WithMaxClusters(6), WithTrials(2), WithKMeansMaxIter(100), WithChooserRandomState(3))
	require.NoError(t, err)
	assert.Equal(t, -1, kc.Chosen())
	assert.InDelta(t, 1/0.9, kc.Threshold(), 1e-12)

	k, err := kc.Choose(X)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, k, 2)
	assert.LessOrEqual(t, k, 4)
	assert.Equal(t, k, kc.Chosen())

	avg := kc.AverageInertias()
	require.Len(t, avg, 5)
	assert.Greater(t, avg[0], avg[2])

	again, err := NewKChooser(WithMaxClusters(6), WithTrials(2), WithKMeansMaxIter(100), WithChooserRandomState(3))
	require.NoError(t, err)
	k2, err := again.Choose(X)
	require.NoError(t, err)
	assert.Equal(t, k, k2)
	assert.Equal(t, avg, again.AverageInertias())
}

func TestKChooser_Errors(t *testing.T) {
	var valErr *errors.ValidationError

	_, err := NewKChooser(WithMaxClusters(3))
	assert.True(t, errors.As(err, &valErr))

	_, err = NewKChooser(WithTrials(0))
	assert.True(t, errors.As(err, &valErr))

	kc, err := NewKChooser()
	require.NoError(t, err)
	assert.Equal(t, 1.0, kc.Threshold())

	_, err = kc.Choose(threeBlobs())
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
