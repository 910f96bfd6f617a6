package linear

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// Solver は LinearRegression の解法
type Solver int

const (
	// SolverPinv は擬似逆行列による閉形式解
	SolverPinv Solver = iota
	// SolverGradientDescent は全データを使う勾配降下法
	SolverGradientDescent
	// SolverSGD は復元抽出したミニバッチによる確率的勾配降下法
	SolverSGD
)

var solverNames = []string{"pinv", "gradient_descent", "sgd"}

func (s Solver) String() string {
	if s < 0 || int(s) >= len(solverNames) {
		return "unknown"
	}
	return solverNames[s]
}

// ParseSolver は "pinv", "gradient_descent", "sgd" のいずれかを Solver に変換する
func ParseSolver(name string) (Solver, error) {
	for i, n := range solverNames {
		if n == name {
			return Solver(i), nil
		}
	}
	return 0, errors.NewValidationError("solver", "unknown solver, options are [pinv gradient_descent sgd]", name)
}

// config は LinearRegression と GradientDescentRegression の共通設定
type config struct {
	solver       Solver
	solverName   string
	maxIter      int
	learningRate float64
	batchSize    int
	randomState  int64
	rng          *rand.Rand
	batchRng     *rand.Rand
	fitIntercept bool
	regularizer  Regularizer
	logger       log.Logger
}

// Option は線形モデルの設定を変更する。
// 適用先のモデルが使わない設定は無視される
type Option func(*config)

// WithSolver は LinearRegression の解法を設定する
func WithSolver(s Solver) Option {
	return func(c *config) {
		c.solver = s
		c.solverName = ""
	}
}

// WithSolverName は解法を名前で設定する。不明な名前はコンストラクタで ValidationError になる
func WithSolverName(name string) Option {
	return func(c *config) {
		c.solverName = name
	}
}

// WithMaxIter は反復回数（エポック数）を設定する
func WithMaxIter(n int) Option {
	return func(c *config) {
		c.maxIter = n
	}
}

// WithLearningRate は学習率を設定する
func WithLearningRate(lr float64) Option {
	return func(c *config) {
		c.learningRate = lr
	}
}

// WithBatchSize は SGD のミニバッチサイズを設定する
func WithBatchSize(n int) Option {
	return func(c *config) {
		c.batchSize = n
	}
}

// WithRandomState は乱数シードを設定する。同じシードなら Fit の結果は同じになる
func WithRandomState(seed int64) Option {
	return func(c *config) {
		c.randomState = seed
	}
}

// WithRandomSource は重み初期化に使う生成器を直接渡す
func WithRandomSource(rng *rand.Rand) Option {
	return func(c *config) {
		c.rng = rng
	}
}

// WithBatchSource は SGD のバッチ抽出に使う生成器を直接渡す
func WithBatchSource(rng *rand.Rand) Option {
	return func(c *config) {
		c.batchRng = rng
	}
}

// WithFitIntercept はバイアス列を付加するかを設定する。
// X が既に 1 の列を含む場合は false にする
func WithFitIntercept(fit bool) Option {
	return func(c *config) {
		c.fitIntercept = fit
	}
}

// WithRegularizer は GradientDescentRegression の正則化項を設定する
func WithRegularizer(r Regularizer) Option {
	return func(c *config) {
		c.regularizer = r
	}
}

// WithLogger は学習ログの出力先を設定する
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func (c *config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func (c *config) validate() error {
	if c.solverName != "" {
		s, err := ParseSolver(c.solverName)
		if err != nil {
			return err
		}
		c.solver = s
	}
	if c.solver < SolverPinv || c.solver > SolverSGD {
		return errors.NewValidationError("solver", "unknown solver, options are [pinv gradient_descent sgd]", int(c.solver))
	}
	if c.maxIter < 0 {
		return errors.NewValidationError("max_iter", "must be non-negative", c.maxIter)
	}
	if c.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", c.learningRate)
	}
	if c.batchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.batchSize)
	}
	if c.regularizer == nil {
		return errors.NewValidationError("regularizer", "must not be nil", nil)
	}
	return nil
}
