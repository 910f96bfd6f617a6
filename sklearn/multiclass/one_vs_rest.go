// Package multiclass は二値分類器を組み合わせて多クラス分類を行う。
package multiclass

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/metrics"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// ClassifierFactory は未学習の二値分類器を毎回新しく作る
type ClassifierFactory func() model.ProbabilisticClassifier

// OneVsRestClassifier はクラスごとに二値分類器を1つ学習する one-vs-all 分類器。
//
// Fit には n×K の one-hot 行列を渡す。c 列目の分類器は argmax(Y) == c を
// 陽性として学習し、PredictProba は各分類器の陽性確率を n×K に並べる。
type OneVsRestClassifier struct {
	state      *model.StateManager
	factory    ClassifierFactory
	logger     log.Logger
	estimators []model.ProbabilisticClassifier
}

// Option configures a OneVsRestClassifier.
type Option func(*OneVsRestClassifier)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *OneVsRestClassifier) { o.logger = l }
}

// NewOneVsRestClassifier creates a one-vs-all wrapper around factory.
func NewOneVsRestClassifier(factory ClassifierFactory, opts ...Option) (*OneVsRestClassifier, error) {
	if factory == nil {
		return nil, errors.NewValidationError("factory", "must not be nil", nil)
	}
	o := &OneVsRestClassifier{
		state:   model.NewStateManager(),
		factory: factory,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("multiclass")
	}
	o.logger = o.logger.With(log.ModelNameKey, "OneVsRestClassifier")
	return o, nil
}

// Fit trains one classifier per column of the one-hot target Y.
func (o *OneVsRestClassifier) Fit(X, Y mat.Matrix) error {
	const op = "OneVsRestClassifier.Fit"

	n, d, err := matutil.CheckXY(op, X, Y)
	if err != nil {
		return err
	}
	_, k := Y.Dims()
	if k < 2 {
		return errors.NewValueError(op, "Y must be one-hot encoded with at least two classes")
	}

	o.logger.Debug("Starting model fitting",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ClassesKey, k,
	)

	classes := make([]int, n)
	row := make([]float64, k)
	for i := range classes {
		mat.Row(row, i, Y)
		classes[i] = metrics.ArgMax(row)
	}

	estimators := make([]model.ProbabilisticClassifier, k)
	target := make([]float64, n)
	for c := 0; c < k; c++ {
		for i, cls := range classes {
			target[i] = 0
			if cls == c {
				target[i] = 1
			}
		}
		est := o.factory()
		if est == nil {
			return errors.NewValueError(op, "factory returned a nil classifier")
		}
		if err := est.Fit(X, mat.NewDense(n, 1, append([]float64(nil), target...))); err != nil {
			return errors.Wrapf(err, "%s: class %d", op, c)
		}
		estimators[c] = est
	}

	o.estimators = estimators
	o.state.SetDimensions(d, n)
	o.state.SetFitted()

	o.logger.Debug("Model fitting completed", log.OperationKey, log.OperationFit)
	return nil
}

// PredictProba returns an n×K matrix whose column c is classifier c's positive-class score.
func (o *OneVsRestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := o.state.RequireFitted("OneVsRestClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := o.state.RequireFeatures("OneVsRestClassifier.PredictProba", c); err != nil {
		return nil, err
	}

	out := mat.NewDense(r, len(o.estimators), nil)
	for k, est := range o.estimators {
		proba, err := est.PredictProba(X)
		if err != nil {
			return nil, errors.Wrapf(err, "OneVsRestClassifier.PredictProba: class %d", k)
		}
		out.SetCol(k, mat.Col(nil, 0, proba))
	}
	return out, nil
}

// Predict returns a one-hot n×K matrix of the arg-max class; the first maximum wins ties.
func (o *OneVsRestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := o.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, k := proba.Dims()
	out := mat.NewDense(r, k, nil)
	row := make([]float64, k)
	for i := 0; i < r; i++ {
		mat.Row(row, i, proba)
		out.Set(i, metrics.ArgMax(row), 1)
	}
	return out, nil
}

// Score returns the fraction of rows whose predicted class matches Y.
func (o *OneVsRestClassifier) Score(X, Y mat.Matrix) (float64, error) {
	pred, err := o.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(Y, pred)
}

// Estimators returns the fitted per-class classifiers.
func (o *OneVsRestClassifier) Estimators() []model.ProbabilisticClassifier {
	return append([]model.ProbabilisticClassifier(nil), o.estimators...)
}

// NClasses returns the number of classes seen during Fit.
func (o *OneVsRestClassifier) NClasses() int {
	return len(o.estimators)
}
