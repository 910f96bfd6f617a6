package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/pkg/errors"
)

func requireNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPlotHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.png")
	require.NoError(t, PlotHistory(model.History{4, 2, 1, 0.5}, "loss", path))
	requireNonEmptyFile(t, path)

	err := PlotHistory(nil, "empty", path)
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
}

func TestPlotElbow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elbow.svg")
	require.NoError(t, PlotElbow([]float64{100, 40, 10, 9}, path))
	requireNonEmptyFile(t, path)
}

func TestPlotClusters(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 5, 5, 5, 6})
	centroids := mat.NewDense(2, 2, []float64{0, 0.5, 5, 5.5})

	path := filepath.Join(t.TempDir(), "clusters.png")
	require.NoError(t, PlotClusters(X, []int{0, 0, 1, 1}, centroids, path))
	requireNonEmptyFile(t, path)

	var dimErr *errors.DimensionError
	err := PlotClusters(X, []int{0, 1}, nil, path)
	assert.True(t, errors.As(err, &dimErr))
	err = PlotClusters(mat.NewDense(2, 1, nil), []int{0, 1}, nil, path)
	assert.True(t, errors.As(err, &dimErr))
}
