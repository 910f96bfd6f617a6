// Package svm provides a linear support vector classifier trained by hinge-loss
// subgradient descent.
package svm

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/metrics"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
	"github.com/YuminosukeSato/goml/preprocessing"
)

// LinearSVC is a binary linear SVM.
//
// Fit rescales the labels with a min-max scaler and maps them to {-1, +1}, so
// any two-valued target column is accepted. PredictProba min-max scales the
// decision scores of the rows it is given, fitting a fresh scaler on every
// call. Probabilities from different calls are therefore not comparable, and
// a single-row batch always maps to 0.
type LinearSVC struct {
	state *model.StateManager

	// Hyperparameters
	c            float64
	learningRate float64
	epochs       int
	randomState  int64

	rng    *rand.Rand
	logger log.Logger

	// Model parameters
	labelScaler *preprocessing.MinMaxScaler
	weights     *mat.VecDense // 最後の要素がバイアス
	history     model.History
}

// Option configures a LinearSVC.
type Option func(*LinearSVC)

// WithC sets the misclassification penalty C.
func WithC(c float64) Option {
	return func(s *LinearSVC) { s.c = c }
}

// WithLearningRate sets the subgradient step size.
func WithLearningRate(lr float64) Option {
	return func(s *LinearSVC) { s.learningRate = lr }
}

// WithEpochs sets the number of full passes over the data.
func WithEpochs(n int) Option {
	return func(s *LinearSVC) { s.epochs = n }
}

// WithRandomState seeds weight initialization.
func WithRandomState(seed int64) Option {
	return func(s *LinearSVC) { s.randomState = seed }
}

// WithRandomSource injects the generator used for weight initialization.
func WithRandomSource(rng *rand.Rand) Option {
	return func(s *LinearSVC) { s.rng = rng }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *LinearSVC) { s.logger = l }
}

// NewLinearSVC creates a LinearSVC. Defaults: C 1, learning rate 1e-5, 100 epochs.
func NewLinearSVC(opts ...Option) (*LinearSVC, error) {
	s := &LinearSVC{
		state:        model.NewStateManager(),
		c:            1,
		learningRate: 1e-5,
		epochs:       100,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.c < 0 {
		return nil, errors.NewValidationError("C", "must be non-negative", s.c)
	}
	if s.learningRate <= 0 {
		return nil, errors.NewValidationError("learning_rate", "must be positive", s.learningRate)
	}
	if s.epochs < 0 {
		return nil, errors.NewValidationError("epochs", "must be non-negative", s.epochs)
	}
	if s.rng == nil {
		s.rng = matutil.NewRand(s.randomState)
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("svm")
	}
	s.logger = s.logger.With(log.ModelNameKey, "LinearSVC")
	return s, nil
}

// Fit trains the classifier.
//
// 各エポックで pred = X'W を計算し、y·pred < 1 の行だけから
// 劣勾配 W + C·Σ(-y·x) を作って W -= lr·劣勾配 とする。履歴は更新前の hinge loss。
func (s *LinearSVC) Fit(X, y mat.Matrix) (err error) {
	const op = "LinearSVC.Fit"
	defer errors.Recover(&err, op)

	n, d, err := matutil.CheckXY(op, X, y)
	if err != nil {
		return err
	}
	if _, err := matutil.TargetColumn(op, y); err != nil {
		return err
	}
	labelScaler := preprocessing.NewMinMaxScalerDefault()
	scaled, err := labelScaler.FitTransform(y)
	if err != nil {
		return err
	}
	labels := mat.Col(nil, 0, scaled)
	if err := matutil.CheckBinaryLabels(op, labels); err != nil {
		return errors.NewValueError(op, "LinearSVC supports exactly two classes")
	}
	for i, v := range labels {
		labels[i] = 2*v - 1
	}

	s.logger.Debug("Starting model fitting",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.LearningRateKey, s.learningRate,
	)

	Xa := matutil.AddBias(X)
	w := matutil.UniformWeights(s.rng, d+1)
	history := model.NewHistory(s.epochs)

	var pred mat.VecDense
	grad := mat.NewVecDense(d+1, nil)
	for epoch := 0; epoch < s.epochs; epoch++ {
		pred.MulVec(Xa, w)
		scores := pred.RawVector().Data

		grad.Zero()
		for i, yi := range labels {
			if yi*scores[i] < 1 {
				grad.AddScaledVec(grad, -yi, Xa.RowView(i))
			}
		}
		grad.AddScaledVec(w, s.c, grad)
		w.AddScaledVec(w, -s.learningRate, grad)

		history = append(history, metrics.HingeLoss(labels, scores))
		if err := errors.CheckNumericalStability("gradient_update", w.RawVector().Data, epoch); err != nil {
			return err
		}
	}

	s.labelScaler = labelScaler
	s.weights = w
	s.history = history
	s.state.SetDimensions(d, n)
	s.state.SetFitted()

	fields := []any{log.OperationKey, log.OperationFit, log.EpochKey, s.epochs}
	if loss, ok := history.Last(); ok {
		fields = append(fields, log.LossKey, loss)
	}
	s.logger.Debug("Model fitting completed", fields...)
	return nil
}

// DecisionFunction returns the raw scores X'W as an n×1 matrix.
func (s *LinearSVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	scores, err := s.decision(X, "DecisionFunction")
	if err != nil {
		return nil, err
	}
	return matutil.Column(scores), nil
}

// PredictProba min-max scales the decision scores of X into [0, 1].
func (s *LinearSVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := s.decision(X, "PredictProba")
	if err != nil {
		return nil, err
	}
	return preprocessing.NewMinMaxScalerDefault().FitTransform(matutil.Column(scores))
}

// Predict returns -1/+1 labels using a 0.5 cutoff on PredictProba.
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	return s.PredictWithThreshold(X, 0.5)
}

// PredictWithThreshold labels rows whose scaled score is strictly above threshold as +1.
func (s *LinearSVC) PredictWithThreshold(X mat.Matrix, threshold float64) (mat.Matrix, error) {
	proba, err := s.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return matutil.Threshold(mat.Col(nil, 0, proba), threshold, 1, -1), nil
}

// Score returns the accuracy of Predict against y, after mapping y to
// {-1, +1} with the label scaler fitted during training.
func (s *LinearSVC) Score(X, y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	scaled, err := s.labelScaler.Transform(y)
	if err != nil {
		return 0, err
	}
	var yt mat.Dense
	yt.Apply(func(_, _ int, v float64) float64 { return 2*v - 1 }, scaled)
	return metrics.Accuracy(&yt, pred)
}

func (s *LinearSVC) decision(X mat.Matrix, method string) (scores []float64, err error) {
	op := "LinearSVC." + method
	if err := s.state.RequireFitted("LinearSVC", method); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures(op, c); err != nil {
		return nil, err
	}
	defer errors.Recover(&err, op)

	out := mat.NewVecDense(r, nil)
	out.MulVec(matutil.AddBias(X), s.weights)
	return out.RawVector().Data, nil
}

// Weights returns a copy of the learned weights, bias last.
func (s *LinearSVC) Weights() *mat.VecDense {
	if s.weights == nil {
		return nil
	}
	return mat.VecDenseCopyOf(s.weights)
}

// History returns the hinge loss recorded at each epoch.
func (s *LinearSVC) History() model.History {
	return s.history.Copy()
}
