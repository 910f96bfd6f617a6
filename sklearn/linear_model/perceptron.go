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

// Perceptron は任意の Activation を持つ単層パーセプトロン
type Perceptron struct {
	state *model.StateManager

	learningRate float64
	epochs       int
	activation   Activation

	rng    *rand.Rand
	logger log.Logger

	weights *mat.VecDense
	history model.History
}

// NewPerceptron creates a single-layer perceptron.
// Defaults: sigmoid activation, learning rate 1e-5, 100 epochs, seed 0.
func NewPerceptron(opts ...Option) (*Perceptron, error) {
	cfg, err := newConfig(1e-5, 100, opts)
	if err != nil {
		return nil, err
	}
	return &Perceptron{
		state:        model.NewStateManager(),
		learningRate: cfg.learningRate,
		epochs:       cfg.epochs,
		activation:   cfg.activation,
		rng:          cfg.rng,
		logger: cfg.logger.With(
			log.ModelNameKey, "Perceptron",
			"activation", cfg.activation.Name(),
		),
	}, nil
}

// Fit trains the perceptron.
//
// 各エポックで pred = act(X'W)、diff = pred - y、W -= lr·X'ᵗ(diff ⊙ act.Grad(pred))。
// 履歴は ½·Σdiff²。
func (p *Perceptron) Fit(X, y mat.Matrix) (err error) {
	const op = "Perceptron.Fit"
	defer errors.Recover(&err, op)

	n, d, err := matutil.CheckXY(op, X, y)
	if err != nil {
		return err
	}
	yv, err := matutil.TargetColumn(op, y)
	if err != nil {
		return err
	}

	p.logger.Debug("Starting model fitting",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
	)

	Xa := matutil.AddBias(X)
	w := matutil.UniformWeights(p.rng, d+1)
	history := model.NewHistory(p.epochs)

	var z, grad mat.VecDense
	delta := mat.NewVecDense(n, nil)
	for epoch := 0; epoch < p.epochs; epoch++ {
		z.MulVec(Xa, w)
		var sse float64
		for i := 0; i < n; i++ {
			pred := p.activation.Forward(z.AtVec(i))
			diff := pred - yv[i]
			sse += diff * diff
			delta.SetVec(i, diff*p.activation.Grad(pred))
		}
		grad.MulVec(Xa.T(), delta)
		w.AddScaledVec(w, -p.learningRate, &grad)

		history = append(history, sse/2)
		if err := errors.CheckNumericalStability("gradient_update", w.RawVector().Data, epoch); err != nil {
			return err
		}
	}

	p.weights = w
	p.history = history
	p.state.SetDimensions(d, n)
	p.state.SetFitted()

	p.logger.Debug("Model fitting completed", log.OperationKey, log.OperationFit, log.EpochKey, p.epochs)
	return nil
}

// Forward は活性化関数の出力を n×1 で返す。活性化関数の種類を問わない
func (p *Perceptron) Forward(X mat.Matrix) (mat.Matrix, error) {
	out, err := p.forward(X, "Forward")
	if err != nil {
		return nil, err
	}
	return matutil.Column(out), nil
}

// PredictProba は確率として解釈できる活性化関数の場合のみ出力を返す。
// それ以外の活性化関数では ValueError
func (p *Perceptron) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if _, ok := p.activation.(ProbabilisticActivation); !ok {
		return nil, errors.NewValueError("Perceptron.PredictProba",
			"activation "+p.activation.Name()+" does not produce probabilities")
	}
	return p.Forward(X)
}

// Predict returns 0/1 labels using a 0.5 cutoff.
func (p *Perceptron) Predict(X mat.Matrix) (mat.Matrix, error) {
	return p.PredictWithThreshold(X, 0.5)
}

// PredictWithThreshold labels rows whose probability is strictly greater than threshold as 1.
func (p *Perceptron) PredictWithThreshold(X mat.Matrix, threshold float64) (mat.Matrix, error) {
	proba, err := p.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return matutil.Threshold(mat.Col(nil, 0, proba), threshold, 1, 0), nil
}

// Score returns the mean accuracy on the given data.
func (p *Perceptron) Score(X, y mat.Matrix) (float64, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(y, pred)
}

func (p *Perceptron) forward(X mat.Matrix, method string) (out []float64, err error) {
	op := "Perceptron." + method
	if err := p.state.RequireFitted("Perceptron", method); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := p.state.RequireFeatures(op, c); err != nil {
		return nil, err
	}
	defer errors.Recover(&err, op)

	z := mat.NewVecDense(r, nil)
	z.MulVec(matutil.AddBias(X), p.weights)
	out = z.RawVector().Data
	for i, v := range out {
		out[i] = p.activation.Forward(v)
	}
	return out, nil
}

// Activation returns the configured activation function.
func (p *Perceptron) Activation() Activation {
	return p.activation
}

// Weights returns a copy of the learned weights, bias last.
func (p *Perceptron) Weights() *mat.VecDense {
	if p.weights == nil {
		return nil
	}
	return mat.VecDenseCopyOf(p.weights)
}

// History returns ½·Σ(pred - y)² recorded at each epoch.
func (p *Perceptron) History() model.History {
	return p.history.Copy()
}
