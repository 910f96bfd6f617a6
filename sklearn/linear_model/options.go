package linear_model

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// config は LogisticRegression と Perceptron の共通設定
type config struct {
	learningRate float64
	epochs       int
	randomState  int64
	rng          *rand.Rand
	activation   Activation
	logger       log.Logger
}

// Option は二値分類器の設定を変更する
type Option func(*config)

// WithLearningRate は学習率を設定する
func WithLearningRate(lr float64) Option {
	return func(c *config) {
		c.learningRate = lr
	}
}

// WithEpochs はエポック数を設定する
func WithEpochs(n int) Option {
	return func(c *config) {
		c.epochs = n
	}
}

// WithRandomState は重み初期化の乱数シードを設定する
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

// WithActivation は Perceptron の活性化関数を設定する（LogisticRegression では無視される）
func WithActivation(a Activation) Option {
	return func(c *config) {
		c.activation = a
	}
}

// WithLogger は学習ログの出力先を設定する
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(lr float64, epochs int, opts []Option) (*config, error) {
	c := &config{
		learningRate: lr,
		epochs:       epochs,
		activation:   Sigmoid{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.learningRate <= 0 {
		return nil, errors.NewValidationError("learning_rate", "must be positive", c.learningRate)
	}
	if c.epochs < 0 {
		return nil, errors.NewValidationError("epochs", "must be non-negative", c.epochs)
	}
	if c.activation == nil {
		return nil, errors.NewValidationError("activation", "must not be nil", nil)
	}
	if c.rng == nil {
		c.rng = matutil.NewRand(c.randomState)
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("linear_model")
	}
	return c, nil
}
