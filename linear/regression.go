// Package linear は線形回帰モデルを提供する。
//
// LinearRegression は擬似逆行列・勾配降下法・SGD の3つの解法を持ち、
// GradientDescentRegression は Regularizer を伴う勾配降下法（Lasso / Ridge / ElasticNet）を実装する。
package linear

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/metrics"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// LinearRegression は線形回帰モデル。
// 重みベクトルは fitIntercept が true の場合、最後の要素がバイアス。
//
// 単一のインスタンスを複数の goroutine から同時に使ってはならない。
type LinearRegression struct {
	state *model.StateManager

	solver       Solver
	maxIter      int
	learningRate float64
	batchSize    int
	fitIntercept bool

	rng      *rand.Rand
	batchRng *rand.Rand
	logger   log.Logger

	weights *mat.VecDense
	history model.History
}

// NewLinearRegression は新しい線形回帰モデルを作成する。
// デフォルトは pinv、max_iter=1000、学習率 1e-3、バッチサイズ 32、シード 0
func NewLinearRegression(opts ...Option) (*LinearRegression, error) {
	cfg := &config{
		solver:       SolverPinv,
		maxIter:      1000,
		learningRate: 1e-3,
		batchSize:    32,
		fitIntercept: true,
		regularizer:  NoPenalty{},
	}
	cfg.apply(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	lr := &LinearRegression{
		state:        model.NewStateManager(),
		solver:       cfg.solver,
		maxIter:      cfg.maxIter,
		learningRate: cfg.learningRate,
		batchSize:    cfg.batchSize,
		fitIntercept: cfg.fitIntercept,
		rng:          cfg.rng,
		batchRng:     cfg.batchRng,
		logger:       cfg.logger,
	}
	if lr.rng == nil {
		lr.rng = matutil.NewRand(cfg.randomState)
	}
	// バッチ抽出は重み初期化とは別のストリームにする
	if lr.batchRng == nil {
		lr.batchRng = matutil.NewRand(cfg.randomState + 1)
	}
	if lr.logger == nil {
		lr.logger = log.GetLoggerWithName("linear")
	}
	lr.logger = lr.logger.With(log.ModelNameKey, "LinearRegression")
	return lr, nil
}

// Fit はモデルを訓練データで学習させる
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	const op = "LinearRegression.Fit"
	defer errors.Recover(&err, op)

	n, d, err := matutil.CheckXY(op, X, y)
	if err != nil {
		return err
	}
	yv, err := matutil.TargetColumn(op, y)
	if err != nil {
		return err
	}

	lr.logger.Debug("Starting model fitting",
		log.OperationKey, log.OperationFit,
		log.SolverKey, lr.solver.String(),
		log.SamplesKey, n,
		log.FeaturesKey, d,
	)

	Xa := lr.design(X)
	yVec := mat.NewVecDense(n, yv)

	var w *mat.VecDense
	var history model.History
	switch lr.solver {
	case SolverPinv:
		w, err = solvePinv(Xa, yVec)
	case SolverGradientDescent:
		w, history, err = lr.solveGradientDescent(Xa, yVec)
	case SolverSGD:
		w, history, err = lr.solveSGD(Xa, yVec)
	}
	if err != nil {
		lr.logger.Error("Model fitting failed", err, log.OperationKey, log.OperationFit)
		return err
	}

	if lr.solver != SolverPinv && lr.maxIter == 0 {
		warning := errors.NewUntrainedModelWarning("LinearRegression", "max_iter is 0, weights are the random initialization")
		errors.Warn(warning)
	}

	lr.weights = w
	lr.history = history
	lr.state.SetDimensions(d, n)
	lr.state.SetFitted()

	fields := []any{log.OperationKey, log.OperationFit, log.IterationKey, len(history)}
	if loss, ok := history.Last(); ok {
		fields = append(fields, log.LossKey, loss)
	}
	lr.logger.Debug("Model fitting completed", fields...)
	return nil
}

func (lr *LinearRegression) design(X mat.Matrix) *mat.Dense {
	if lr.fitIntercept {
		return matutil.AddBias(X)
	}
	return mat.DenseCopyOf(X)
}

// solvePinv は W = pinv(X)·y を薄い特異値分解から求める。
// σmax·max(n, d)·eps 以下の特異値は 0 とみなす
func solvePinv(X *mat.Dense, y *mat.VecDense) (*mat.VecDense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, errors.NewModelError("LinearRegression.Fit", "SVD did not converge", errors.ErrDecompositionFailed)
	}
	s := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	r, c := X.Dims()
	tol := float64(max(r, c)) * 0x1p-52 * s[0]

	var uty mat.VecDense
	uty.MulVec(u.T(), y)
	for i, sv := range s {
		if sv > tol {
			uty.SetVec(i, uty.AtVec(i)/sv)
		} else {
			uty.SetVec(i, 0)
		}
	}

	w := mat.NewVecDense(c, nil)
	w.MulVec(&v, &uty)
	return w, nil
}

// solveGradientDescent は W を標準正規分布で初期化し、
// 勾配 -2·mean(residual ⊙ X) で max_iter 回更新する
func (lr *LinearRegression) solveGradientDescent(X *mat.Dense, y *mat.VecDense) (*mat.VecDense, model.History, error) {
	n, d := X.Dims()
	w := matutil.NormalWeights(lr.rng, d)
	history := model.NewHistory(lr.maxIter)

	var pred, residual, grad mat.VecDense
	for i := 0; i < lr.maxIter; i++ {
		pred.MulVec(X, w)
		residual.SubVec(y, &pred)

		grad.MulVec(X.T(), &residual)
		w.AddScaledVec(w, lr.learningRate*2/float64(n), &grad)

		loss := mat.Dot(&residual, &residual) / float64(n)
		history = append(history, loss)
		if err := errors.CheckNumericalStability("gradient_update", w.RawVector().Data, i); err != nil {
			return nil, history, err
		}
		lr.logIteration(i, loss)
	}
	return w, history, nil
}

// solveSGD は勾配降下法と同じ更新則を、復元抽出した batch_size 行に対して適用する
func (lr *LinearRegression) solveSGD(X *mat.Dense, y *mat.VecDense) (*mat.VecDense, model.History, error) {
	n, d := X.Dims()
	w := matutil.NormalWeights(lr.rng, d)
	history := model.NewHistory(lr.maxIter)

	grad := mat.NewVecDense(d, nil)
	for i := 0; i < lr.maxIter; i++ {
		grad.Zero()
		var loss float64
		for b := 0; b < lr.batchSize; b++ {
			idx := lr.batchRng.IntN(n)
			row := X.RowView(idx)
			residual := y.AtVec(idx) - mat.Dot(row, w)
			grad.AddScaledVec(grad, residual, row)
			loss += residual * residual
		}
		w.AddScaledVec(w, lr.learningRate*2/float64(lr.batchSize), grad)

		loss /= float64(lr.batchSize)
		history = append(history, loss)
		if err := errors.CheckNumericalStability("gradient_update", w.RawVector().Data, i); err != nil {
			return nil, history, err
		}
		lr.logIteration(i, loss)
	}
	return w, history, nil
}

func (lr *LinearRegression) logIteration(i int, loss float64) {
	if !lr.logger.Enabled(context.Background(), log.LevelDebug) || i%100 != 0 {
		return
	}
	lr.logger.Debug("Training progress", log.IterationKey, i, log.LossKey, loss)
}

// Predict は入力データに対する予測 X·W を n×1 で返す
func (lr *LinearRegression) Predict(X mat.Matrix) (pred mat.Matrix, err error) {
	const op = "LinearRegression.Predict"
	if err := lr.state.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := lr.state.RequireFeatures(op, c); err != nil {
		return nil, err
	}
	defer errors.Recover(&err, op)

	out := mat.NewVecDense(r, nil)
	out.MulVec(lr.design(X), lr.weights)
	return matutil.Column(out.RawVector().Data), nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, yPred)
}

// Weights は学習された重みのコピーを返す。未学習の場合は nil
func (lr *LinearRegression) Weights() *mat.VecDense {
	if lr.weights == nil {
		return nil
	}
	return mat.VecDenseCopyOf(lr.weights)
}

// Coef はバイアスを除いた係数を返す
func (lr *LinearRegression) Coef() []float64 {
	if lr.weights == nil {
		return nil
	}
	w := lr.weights.RawVector().Data
	if lr.fitIntercept {
		w = w[:len(w)-1]
	}
	out := make([]float64, len(w))
	copy(out, w)
	return out
}

// Intercept はバイアス重みを返す。fitIntercept が false の場合は 0
func (lr *LinearRegression) Intercept() float64 {
	if lr.weights == nil || !lr.fitIntercept {
		return 0
	}
	return lr.weights.AtVec(lr.weights.Len() - 1)
}

// History は反復ごとの MSE を返す。pinv の場合は nil
func (lr *LinearRegression) History() model.History {
	return lr.history.Copy()
}

// Solver は使用する解法を返す
func (lr *LinearRegression) Solver() Solver {
	return lr.solver
}

// IsFitted はモデルが学習済みかを返す
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// isFinite はスカラーが有限かを返す
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
