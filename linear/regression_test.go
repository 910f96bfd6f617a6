package linear

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/datasets"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// exactData は y = X·w + bias をノイズなしで生成する
func exactData(n int, w []float64, bias float64, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, len(w), nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		sum := bias
		for j := range w {
			v := rng.Float64()*2 - 1
			X.Set(i, j, v)
			sum += v * w[j]
		}
		y.Set(i, 0, sum)
	}
	return X, y
}

func TestLinearRegression_PinvMatchesNormalEquation(t *testing.T) {
	X, y := createBenchmarkData(50, 3)

	lr, err := NewLinearRegression()
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	// (XᵗX)⁻¹Xᵗy をバイアス列付きで解く
	r, c := X.Dims()
	Xa := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			Xa.Set(i, j, X.At(i, j))
		}
		Xa.Set(i, c, 1)
	}
	var xtx, xty, want mat.Dense
	xtx.Mul(Xa.T(), Xa)
	xty.Mul(Xa.T(), y)
	require.NoError(t, want.Solve(&xtx, &xty))

	w := lr.Weights()
	require.Equal(t, c+1, w.Len())
	for i := 0; i < w.Len(); i++ {
		assert.InDelta(t, want.At(i, 0), w.AtVec(i), 1e-8)
	}
	assert.Nil(t, lr.History())
}

func TestLinearRegression_IterativeSolversConverge(t *testing.T) {
	trueW := []float64{1.5, -2, 0.5}
	X, y := exactData(200, trueW, 1, 1)

	tests := []struct {
		name string
		opts []Option
		tol  float64
	}{
		{
			name: "gradient descent",
			opts: []Option{WithSolver(SolverGradientDescent), WithLearningRate(0.1), WithMaxIter(2000)},
			tol:  1e-6,
		},
		{
			name: "sgd",
			opts: []Option{WithSolverName("sgd"), WithLearningRate(0.05), WithMaxIter(5000), WithBatchSize(32)},
			tol:  1e-4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr, err := NewLinearRegression(tt.opts...)
			require.NoError(t, err)
			require.NoError(t, lr.Fit(X, y))

			coef := lr.Coef()
			for j, w := range trueW {
				assert.InDelta(t, w, coef[j], tt.tol)
			}
			assert.InDelta(t, 1.0, lr.Intercept(), tt.tol)

			h := lr.History()
			require.Len(t, h, lr.maxIter)
			last, _ := h.Last()
			assert.Less(t, last, h[0])

			score, err := lr.Score(X, y)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, score, 1e-6)
		})
	}
}

func TestLinearRegression_EndToEndWithOnesColumn(t *testing.T) {
	// y = 2x - 1、X は先頭に 1 の列を持つ
	X := mat.NewDense(4, 2, []float64{1, 2, 1, 4, 1, 6, 1, 8})
	y := mat.NewDense(4, 1, []float64{3, 7, 11, 15})

	lr, err := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	w := lr.Weights()
	require.Equal(t, 2, w.Len())
	assert.InDelta(t, -1, w.AtVec(0), 1e-9)
	assert.InDelta(t, 2, w.AtVec(1), 1e-9)
	assert.Equal(t, 0.0, lr.Intercept())

	pred, err := lr.Predict(mat.NewDense(1, 2, []float64{1, 10}))
	require.NoError(t, err)
	assert.InDelta(t, 19, pred.At(0, 0), 1e-9)
}

func TestLinearRegression_RecoversGeneratedWeights(t *testing.T) {
	data, err := datasets.LinearRegressionData(300, 4, datasets.WithRandomState(9), datasets.WithNoiseStd(0))
	require.NoError(t, err)

	lr, err := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, err)
	require.NoError(t, lr.Fit(data.X, data.Y))
	assert.True(t, mat.EqualApprox(data.W, lr.Weights(), 1e-8))
}

func TestLinearRegression_SeedDeterminism(t *testing.T) {
	X, y := exactData(100, []float64{1, 2}, 0, 5)

	fit := func(seed int64) *mat.VecDense {
		lr, err := NewLinearRegression(WithSolver(SolverSGD), WithRandomState(seed), WithMaxIter(50))
		require.NoError(t, err)
		require.NoError(t, lr.Fit(X, y))
		return lr.Weights()
	}

	assert.True(t, mat.Equal(fit(3), fit(3)))
	assert.False(t, mat.Equal(fit(3), fit(4)))
}

func TestLinearRegression_ZeroIterations(t *testing.T) {
	var warnings []error
	errors.SetZerologWarnFunc(func(w error) { warnings = append(warnings, w) })
	defer errors.SetZerologWarnFunc(nil)

	X, y := exactData(10, []float64{1}, 0, 2)
	lr, err := NewLinearRegression(WithSolver(SolverGradientDescent), WithMaxIter(0))
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	assert.Equal(t, 2, lr.Weights().Len())
	assert.Empty(t, lr.History())
	require.Len(t, warnings, 1)
	var untrained *errors.UntrainedModelWarning
	assert.True(t, errors.As(warnings[0], &untrained))
}

func TestLinearRegression_Divergence(t *testing.T) {
	X, y := exactData(50, []float64{3, -1}, 2, 9)

	lr, err := NewLinearRegression(WithSolver(SolverGradientDescent), WithLearningRate(10))
	require.NoError(t, err)

	err = lr.Fit(X, y)
	var numErr *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &numErr))
	assert.False(t, lr.IsFitted())
}

func TestLinearRegression_Errors(t *testing.T) {
	_, err := NewLinearRegression(WithSolverName("newton"))
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "solver", valErr.ParamName)

	_, err = NewLinearRegression(WithBatchSize(0))
	assert.True(t, errors.As(err, &valErr))

	lr, err := NewLinearRegression()
	require.NoError(t, err)

	_, err = lr.Predict(mat.NewDense(1, 2, nil))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 7})
	err = lr.Fit(X, mat.NewDense(2, 1, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 0, dimErr.Axis)

	require.NoError(t, lr.Fit(X, mat.NewDense(3, 1, []float64{1, 2, 3})))
	_, err = lr.Predict(mat.NewDense(1, 3, nil))
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 1, dimErr.Axis)
}

func TestLinearRegression_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	X, y := exactData(20, []float64{1}, 0, 4)

	lr, err := NewLinearRegression(WithSolver(SolverGradientDescent), WithMaxIter(10), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	assert.True(t, logger.ContainsMessage("Model fitting completed"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "LinearRegression"))
	assert.True(t, logger.ContainsField(log.SolverKey, "gradient_descent"))
}

func TestParseSolver(t *testing.T) {
	for _, s := range []Solver{SolverPinv, SolverGradientDescent, SolverSGD} {
		got, err := ParseSolver(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	assert.Equal(t, "unknown", Solver(7).String())
}
