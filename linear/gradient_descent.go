package linear

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/metrics"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// GradientDescentRegression は正則化付き勾配降下法による線形回帰。
// X には常にバイアス列が右端に付加される。
//
// 更新則: W -= lr·(2/n)·X'ᵗ(X'W - y) + reg.Grad(W)
// 正則化の勾配には学習率を掛けない。
type GradientDescentRegression struct {
	state *model.StateManager
	name  string

	learningRate float64
	epochs       int
	regularizer  Regularizer

	rng    *rand.Rand
	logger log.Logger

	weights *mat.VecDense
	history model.History
}

// NewGradientDescentRegression は正則化付き勾配降下回帰を作成する。
// デフォルトは学習率 1e-5、100 エポック、正則化なし
func NewGradientDescentRegression(opts ...Option) (*GradientDescentRegression, error) {
	return newGradientDescentRegression("GradientDescentRegression", opts)
}

// NewLasso は L1 正則化の勾配降下回帰を作成する
func NewLasso(lambda float64, opts ...Option) (*GradientDescentRegression, error) {
	if lambda < 0 {
		return nil, errors.NewValidationError("lambda", "must be non-negative", lambda)
	}
	return newGradientDescentRegression("Lasso", append(opts, WithRegularizer(L1{Lambda: lambda})))
}

// NewRidge は L2 正則化の勾配降下回帰を作成する
func NewRidge(omega float64, opts ...Option) (*GradientDescentRegression, error) {
	if omega < 0 {
		return nil, errors.NewValidationError("omega", "must be non-negative", omega)
	}
	return newGradientDescentRegression("Ridge", append(opts, WithRegularizer(L2{Omega: omega})))
}

// NewElasticNetRegression は ElasticNet 正則化の勾配降下回帰を作成する
func NewElasticNetRegression(lambda1, lambda2 float64, opts ...Option) (*GradientDescentRegression, error) {
	reg, err := NewElasticNet(lambda1, lambda2)
	if err != nil {
		return nil, err
	}
	return newGradientDescentRegression("ElasticNet", append(opts, WithRegularizer(reg)))
}

func newGradientDescentRegression(name string, opts []Option) (*GradientDescentRegression, error) {
	cfg := &config{
		maxIter:      100,
		learningRate: 1e-5,
		batchSize:    1,
		regularizer:  NoPenalty{},
	}
	cfg.apply(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	g := &GradientDescentRegression{
		state:        model.NewStateManager(),
		name:         name,
		learningRate: cfg.learningRate,
		epochs:       cfg.maxIter,
		regularizer:  cfg.regularizer,
		rng:          cfg.rng,
		logger:       cfg.logger,
	}
	if g.rng == nil {
		g.rng = matutil.NewRand(cfg.randomState)
	}
	if g.logger == nil {
		g.logger = log.GetLoggerWithName("linear")
	}
	g.logger = g.logger.With(log.ModelNameKey, name)
	return g, nil
}

// Fit はモデルを訓練データで学習させる
func (g *GradientDescentRegression) Fit(X, y mat.Matrix) (err error) {
	op := g.name + ".Fit"
	defer errors.Recover(&err, op)

	n, d, err := matutil.CheckXY(op, X, y)
	if err != nil {
		return err
	}
	yv, err := matutil.TargetColumn(op, y)
	if err != nil {
		return err
	}

	g.logger.Debug("Starting model fitting",
		log.OperationKey, log.OperationFit,
		log.RegularizationKey, g.regularizer.Name(),
		log.LearningRateKey, g.learningRate,
		log.SamplesKey, n,
		log.FeaturesKey, d,
	)

	Xa := matutil.AddBias(X)
	yVec := mat.NewVecDense(n, yv)
	w := matutil.UniformWeights(g.rng, d+1)
	history := model.NewHistory(g.epochs)

	var pred, diff, grad mat.VecDense
	sq := make([]float64, n)
	for i := 0; i < g.epochs; i++ {
		pred.MulVec(Xa, w)
		diff.SubVec(&pred, yVec)

		grad.MulVec(Xa.T(), &diff)
		grad.ScaleVec(2/float64(n), &grad)
		regGrad := mat.NewVecDense(d+1, g.regularizer.Grad(w.RawVector().Data))

		// W -= lr·dW + reg.Grad(W)
		w.AddScaledVec(w, -g.learningRate, &grad)
		w.SubVec(w, regGrad)

		// 損失は更新前の予測と更新後の重みのペナルティから計算する
		penalty := g.regularizer.Penalty(w.RawVector().Data)
		for j := range sq {
			r := diff.AtVec(j)
			sq[j] = r*r + penalty
		}
		loss := floats.Sum(sq) / float64(n)
		history = append(history, loss)

		if err := errors.CheckNumericalStability("gradient_update", w.RawVector().Data, i); err != nil {
			g.logger.Error("Model fitting failed", err, log.OperationKey, log.OperationFit)
			return err
		}
		if !isFinite(loss) {
			return errors.NewNumericalInstabilityError("loss_calculation", []float64{loss}, i)
		}
	}

	if g.epochs == 0 {
		errors.Warn(errors.NewUntrainedModelWarning(g.name, "epochs is 0, weights are the random initialization"))
	}

	g.weights = w
	g.history = history
	g.state.SetDimensions(d, n)
	g.state.SetFitted()

	fields := []any{log.OperationKey, log.OperationFit, log.EpochKey, g.epochs}
	if loss, ok := history.Last(); ok {
		fields = append(fields, log.LossKey, loss)
	}
	g.logger.Debug("Model fitting completed", fields...)
	return nil
}

// Predict は入力データに対する予測を n×1 で返す
func (g *GradientDescentRegression) Predict(X mat.Matrix) (pred mat.Matrix, err error) {
	op := g.name + ".Predict"
	if err := g.state.RequireFitted(g.name, "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := g.state.RequireFeatures(op, c); err != nil {
		return nil, err
	}
	defer errors.Recover(&err, op)

	out := mat.NewVecDense(r, nil)
	out.MulVec(matutil.AddBias(X), g.weights)
	return matutil.Column(out.RawVector().Data), nil
}

// Score はモデルの決定係数（R²）を計算する
func (g *GradientDescentRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, yPred)
}

// Weights は学習された重みのコピーを返す（最後の要素がバイアス）
func (g *GradientDescentRegression) Weights() *mat.VecDense {
	if g.weights == nil {
		return nil
	}
	return mat.VecDenseCopyOf(g.weights)
}

// History はエポックごとの損失 mean((y - pred)² + penalty) を返す
func (g *GradientDescentRegression) History() model.History {
	return g.history.Copy()
}

// Regularizer は設定された正則化項を返す
func (g *GradientDescentRegression) Regularizer() Regularizer {
	return g.regularizer
}
