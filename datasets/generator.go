// Package datasets はテストとサンプル用の合成データを生成する。
//
// 生成はすべてシード付きの PCG 生成器で行うので、同じオプションなら同じデータになる。
package datasets

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/pkg/errors"
)

type config struct {
	noiseStd   float64
	valueRange [2]float64
	weightMean float64
	weightStd  float64
	useBias    bool
	rng        *rand.Rand
	seed       int64
}

func defaultConfig() *config {
	return &config{
		noiseStd:   1,
		valueRange: [2]float64{-25, 25},
		weightStd:  1,
		useBias:    true,
	}
}

// Option は生成器の設定を変更する
type Option func(*config)

// WithNoiseStd は加えるガウスノイズの標準偏差を設定する。MakeBlobs ではクラスタの広がりになる
func WithNoiseStd(std float64) Option {
	return func(c *config) { c.noiseStd = std }
}

// WithValueRange は特徴量を一様に引く区間 [lo, hi) を設定する
func WithValueRange(lo, hi float64) Option {
	return func(c *config) { c.valueRange = [2]float64{lo, hi} }
}

// WithWeightDistribution は真の重みを引く正規分布を設定する
func WithWeightDistribution(mean, std float64) Option {
	return func(c *config) {
		c.weightMean = mean
		c.weightStd = std
	}
}

// WithBias は false のとき真の重みのバイアス項を 0 にする
func WithBias(use bool) Option {
	return func(c *config) { c.useBias = use }
}

// WithRandomState sets the seed.
func WithRandomState(seed int64) Option {
	return func(c *config) { c.seed = seed }
}

// WithRandomSource は生成器を直接渡す
func WithRandomSource(rng *rand.Rand) Option {
	return func(c *config) { c.rng = rng }
}

func newConfig(opts []Option) (*config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	if c.noiseStd < 0 {
		return nil, errors.NewValidationError("noise_std", "must be non-negative", c.noiseStd)
	}
	if c.weightStd < 0 {
		return nil, errors.NewValidationError("weight_std", "must be non-negative", c.weightStd)
	}
	if c.valueRange[0] >= c.valueRange[1] {
		return nil, errors.NewValidationError("value_range", "min must be less than max", c.valueRange)
	}
	if c.rng == nil {
		c.rng = matutil.NewRand(c.seed)
	}
	return c, nil
}

// LinearData は LinearRegressionData の結果
type LinearData struct {
	// X は n×(d+1)。先頭列はすべて 1
	X *mat.Dense
	// Y は n×1 で X·W + ノイズ
	Y *mat.Dense
	// W は長さ d+1 の真の重み。W[0] がバイアス
	W *mat.VecDense
}

// LinearRegressionData generates a noisy linear regression problem.
//
// 重み、特徴量、ノイズの順に生成器から引く。
func LinearRegressionData(nSamples, nFeatures int, opts ...Option) (*LinearData, error) {
	if nSamples <= 0 {
		return nil, errors.NewValidationError("n_samples", "must be positive", nSamples)
	}
	if nFeatures <= 0 {
		return nil, errors.NewValidationError("n_features", "must be positive", nFeatures)
	}
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	w := make([]float64, nFeatures+1)
	for i := range w {
		w[i] = c.weightMean + c.weightStd*c.rng.NormFloat64()
	}
	if !c.useBias {
		w[0] = 0
	}
	W := mat.NewVecDense(len(w), w)

	lo, hi := c.valueRange[0], c.valueRange[1]
	X := mat.NewDense(nSamples, nFeatures+1, nil)
	for i := 0; i < nSamples; i++ {
		row := X.RawRowView(i)
		row[0] = 1
		for j := 1; j <= nFeatures; j++ {
			row[j] = lo + (hi-lo)*c.rng.Float64()
		}
	}

	var y mat.VecDense
	y.MulVec(X, W)
	for i := 0; i < nSamples; i++ {
		y.SetVec(i, y.AtVec(i)+c.noiseStd*c.rng.NormFloat64())
	}

	return &LinearData{
		X: X,
		Y: matutil.Column(y.RawVector().Data),
		W: W,
	}, nil
}

// MakeBlobs draws nPerCenter points around each center with Gaussian spread
// WithNoiseStd and returns them with one-hot class targets (column c for centers[c]).
func MakeBlobs(centers [][]float64, nPerCenter int, opts ...Option) (X, Y *mat.Dense, err error) {
	if len(centers) == 0 {
		return nil, nil, errors.NewValidationError("centers", "must not be empty", len(centers))
	}
	if nPerCenter <= 0 {
		return nil, nil, errors.NewValidationError("n_per_center", "must be positive", nPerCenter)
	}
	d := len(centers[0])
	if d == 0 {
		return nil, nil, errors.NewValidationError("centers", "must have at least one dimension", d)
	}
	for _, center := range centers {
		if len(center) != d {
			return nil, nil, errors.NewDimensionError("MakeBlobs", d, len(center), 1)
		}
	}
	c, err := newConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	n := nPerCenter * len(centers)
	X = mat.NewDense(n, d, nil)
	Y = mat.NewDense(n, len(centers), nil)
	for k, center := range centers {
		for i := 0; i < nPerCenter; i++ {
			r := k*nPerCenter + i
			row := X.RawRowView(r)
			for j, m := range center {
				row[j] = m + c.noiseStd*c.rng.NormFloat64()
			}
			Y.Set(r, k, 1)
		}
	}
	return X, Y, nil
}
