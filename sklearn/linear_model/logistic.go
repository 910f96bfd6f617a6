// Package linear_model は勾配降下法で学習する二値分類器を提供する。
//
// LogisticRegression と Perceptron は X の右端にバイアス列を付加し、
// 重みを [-1/d', 1/d'] の一様分布で初期化する（d' はバイアス込みの列数）。
// どちらも model.ProbabilisticClassifier を満たすので、
// multiclass.OneVsRestClassifier の基底分類器として使える。
package linear_model

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/metrics"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// LogisticRegression は対数損失の勾配降下法による二値ロジスティック回帰
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	learningRate float64
	epochs       int

	rng    *rand.Rand
	logger log.Logger

	// Model parameters
	weights *mat.VecDense // 最後の要素がバイアス
	history model.History
}

// NewLogisticRegression creates a new LogisticRegression classifier.
// Defaults: learning rate 1e-3, 100 epochs, seed 0.
func NewLogisticRegression(opts ...Option) (*LogisticRegression, error) {
	cfg, err := newConfig(1e-3, 100, opts)
	if err != nil {
		return nil, err
	}
	return &LogisticRegression{
		state:        model.NewStateManager(),
		learningRate: cfg.learningRate,
		epochs:       cfg.epochs,
		rng:          cfg.rng,
		logger:       cfg.logger.With(log.ModelNameKey, "LogisticRegression"),
	}, nil
}

// Fit trains the model on X (n×d) and binary targets y (n×1, values 0 or 1).
//
// 各エポックで p = sigmoid(X'W)、W += lr·X'ᵗ(y - p)/n。履歴には更新前の p に対する対数損失を記録する。
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	const op = "LogisticRegression.Fit"
	defer errors.Recover(&err, op)

	n, d, err := matutil.CheckXY(op, X, y)
	if err != nil {
		return err
	}
	yv, err := matutil.TargetColumn(op, y)
	if err != nil {
		return err
	}
	if err := matutil.CheckBinaryLabels(op, yv); err != nil {
		return err
	}

	lr.logger.Debug("Starting model fitting",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.LearningRateKey, lr.learningRate,
	)

	Xa := matutil.AddBias(X)
	yVec := mat.NewVecDense(n, yv)
	w := matutil.UniformWeights(lr.rng, d+1)
	history := model.NewHistory(lr.epochs)

	var z, diff, grad mat.VecDense
	p := mat.NewVecDense(n, nil)
	for epoch := 0; epoch < lr.epochs; epoch++ {
		z.MulVec(Xa, w)
		for i := 0; i < n; i++ {
			p.SetVec(i, sigmoid(z.AtVec(i)))
		}
		diff.SubVec(yVec, p)
		grad.MulVec(Xa.T(), &diff)
		w.AddScaledVec(w, lr.learningRate/float64(n), &grad)

		history = append(history, metrics.LogLoss(yv, p.RawVector().Data))
		if err := errors.CheckNumericalStability("gradient_update", w.RawVector().Data, epoch); err != nil {
			return err
		}
	}

	lr.weights = w
	lr.history = history
	lr.state.SetDimensions(d, n)
	lr.state.SetFitted()

	fields := []any{log.OperationKey, log.OperationFit, log.EpochKey, lr.epochs}
	if loss, ok := history.Last(); ok {
		fields = append(fields, log.LossKey, loss)
	}
	lr.logger.Debug("Model fitting completed", fields...)
	return nil
}

// PredictProba returns the positive-class probability of each row as an n×1 matrix.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	z, err := lr.decision(X, "PredictProba")
	if err != nil {
		return nil, err
	}
	for i, v := range z {
		z[i] = sigmoid(v)
	}
	return matutil.Column(z), nil
}

// Predict returns 0/1 labels using a 0.5 cutoff.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	return lr.PredictWithThreshold(X, 0.5)
}

// PredictWithThreshold labels rows whose probability is strictly greater than threshold as 1.
func (lr *LogisticRegression) PredictWithThreshold(X mat.Matrix, threshold float64) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return matutil.Threshold(mat.Col(nil, 0, proba), threshold, 1, 0), nil
}

// Score returns the mean accuracy on the given data.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(y, pred)
}

func (lr *LogisticRegression) decision(X mat.Matrix, method string) (z []float64, err error) {
	op := "LogisticRegression." + method
	if err := lr.state.RequireFitted("LogisticRegression", method); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := lr.state.RequireFeatures(op, c); err != nil {
		return nil, err
	}
	defer errors.Recover(&err, op)

	out := mat.NewVecDense(r, nil)
	out.MulVec(matutil.AddBias(X), lr.weights)
	return out.RawVector().Data, nil
}

// Weights returns a copy of the learned weights, bias last.
func (lr *LogisticRegression) Weights() *mat.VecDense {
	if lr.weights == nil {
		return nil
	}
	return mat.VecDenseCopyOf(lr.weights)
}

// History returns the log-loss recorded at each epoch.
func (lr *LogisticRegression) History() model.History {
	return lr.history.Copy()
}
