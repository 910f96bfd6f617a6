// Package neighbors は総当たり探索による k 近傍法を提供する。
//
// Fit は学習データへの参照を保持するだけで、空間インデックスは作らない。
// Predict はクエリ1行ごとに全学習行との二乗ユークリッド距離を計算し、
// 安定ソートで昇順に並べる（同距離なら学習データの順序を保つ）。
package neighbors

import (
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/metrics"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// Reduction は回帰で近傍の目的変数をまとめる方法
type Reduction int

const (
	ReductionMean Reduction = iota
	ReductionMedian
)

// String returns the reduction name.
func (r Reduction) String() string {
	switch r {
	case ReductionMean:
		return "mean"
	case ReductionMedian:
		return "median"
	default:
		return fmt.Sprintf("Reduction(%d)", int(r))
	}
}

// ParseReduction は "mean" / "median" を Reduction に変換する
func ParseReduction(name string) (Reduction, error) {
	switch name {
	case "mean":
		return ReductionMean, nil
	case "median":
		return ReductionMedian, nil
	default:
		return 0, errors.NewValidationError("reduction", "unknown reduction, options are [mean median]", name)
	}
}

// base は分類器と回帰器で共通の学習データと近傍探索
type base struct {
	name   string
	k      int
	state  *model.StateManager
	logger log.Logger

	X mat.Matrix
	y []float64
}

func newBase(name string, k int, logger log.Logger) (base, error) {
	if k <= 0 {
		return base{}, errors.NewValidationError("n_neighbors", "must be positive", k)
	}
	if logger == nil {
		logger = log.GetLoggerWithName("neighbors")
	}
	return base{
		name:   name,
		k:      k,
		state:  model.NewStateManager(),
		logger: logger.With(log.ModelNameKey, name, log.NeighborsKey, k),
	}, nil
}

func (b *base) fit(X, y mat.Matrix) error {
	op := b.name + ".Fit"
	n, d, err := matutil.CheckXY(op, X, y)
	if err != nil {
		return err
	}
	yv, err := matutil.TargetColumn(op, y)
	if err != nil {
		return err
	}

	b.X = X
	b.y = yv
	b.state.SetDimensions(d, n)
	b.state.SetFitted()

	b.logger.Debug("Stored training data",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
	)
	return nil
}

// predict は各クエリ行の近傍 k 個の目的変数を reduce でまとめる
func (b *base) predict(X mat.Matrix, reduce func([]float64) float64) (mat.Matrix, error) {
	if err := b.state.RequireFitted(b.name, "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := b.state.RequireFeatures(b.name+".Predict", c); err != nil {
		return nil, err
	}

	n, _ := b.X.Dims()
	k := min(b.k, n)
	dist := make([]float64, n)
	order := make([]int, n)
	query := make([]float64, c)
	neighbours := make([]float64, k)
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		mat.Row(query, i, X)
		metrics.SquaredEuclideanDistances(dist, b.X, query)
		for j := range order {
			order[j] = j
		}
		sort.SliceStable(order, func(p, q int) bool { return dist[order[p]] < dist[order[q]] })
		for j := 0; j < k; j++ {
			neighbours[j] = b.y[order[j]]
		}
		out[i] = reduce(neighbours)
	}
	return matutil.Column(out), nil
}

// KNeighborsClassifier は近傍 k 個の多数決でラベルを予測する。
// 得票数が同じ場合は値の小さいラベルを返す
type KNeighborsClassifier struct {
	base
}

// ClassifierOption configures a KNeighborsClassifier.
type ClassifierOption func(*classifierConfig)

type classifierConfig struct {
	logger log.Logger
}

// WithClassifierLogger sets the classifier's logger.
func WithClassifierLogger(l log.Logger) ClassifierOption {
	return func(c *classifierConfig) { c.logger = l }
}

// NewKNeighborsClassifier creates a classifier using k neighbours.
func NewKNeighborsClassifier(k int, opts ...ClassifierOption) (*KNeighborsClassifier, error) {
	cfg := &classifierConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	b, err := newBase("KNeighborsClassifier", k, cfg.logger)
	if err != nil {
		return nil, err
	}
	return &KNeighborsClassifier{base: b}, nil
}

// Fit stores references to X (n×d) and labels y (n×1). Neither is copied.
func (m *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	return m.fit(X, y)
}

// Predict returns the majority label among the k nearest training rows.
func (m *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	return m.predict(X, mode)
}

// Score returns the mean accuracy on the given data.
func (m *KNeighborsClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(y, pred)
}

// K returns the number of neighbours.
func (m *KNeighborsClassifier) K() int { return m.k }

// KNeighborsRegressor は近傍 k 個の目的変数の平均または中央値を予測する
type KNeighborsRegressor struct {
	base
	reduction Reduction
}

// RegressorOption configures a KNeighborsRegressor.
type RegressorOption func(*regressorConfig)

type regressorConfig struct {
	reduction Reduction
	err       error
	logger    log.Logger
}

// WithReduction selects mean or median aggregation.
func WithReduction(r Reduction) RegressorOption {
	return func(c *regressorConfig) { c.reduction = r }
}

// WithReductionName selects the aggregation by name ("mean" or "median").
func WithReductionName(name string) RegressorOption {
	return func(c *regressorConfig) {
		c.reduction, c.err = ParseReduction(name)
	}
}

// WithRegressorLogger sets the regressor's logger.
func WithRegressorLogger(l log.Logger) RegressorOption {
	return func(c *regressorConfig) { c.logger = l }
}

// NewKNeighborsRegressor creates a regressor using k neighbours. The default reduction is the mean.
func NewKNeighborsRegressor(k int, opts ...RegressorOption) (*KNeighborsRegressor, error) {
	cfg := &regressorConfig{reduction: ReductionMean}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}
	if cfg.reduction != ReductionMean && cfg.reduction != ReductionMedian {
		return nil, errors.NewValidationError("reduction", "unknown reduction, options are [mean median]", cfg.reduction.String())
	}
	b, err := newBase("KNeighborsRegressor", k, cfg.logger)
	if err != nil {
		return nil, err
	}
	return &KNeighborsRegressor{base: b, reduction: cfg.reduction}, nil
}

// Fit stores references to X (n×d) and targets y (n×1). Neither is copied.
func (m *KNeighborsRegressor) Fit(X, y mat.Matrix) error {
	return m.fit(X, y)
}

// Predict returns the mean or median target of the k nearest training rows.
func (m *KNeighborsRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if m.reduction == ReductionMedian {
		return m.predict(X, median)
	}
	return m.predict(X, mean)
}

// Score returns the coefficient of determination R² of the prediction.
func (m *KNeighborsRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, pred)
}

// Reduction returns the configured aggregation.
func (m *KNeighborsRegressor) Reduction() Reduction { return m.reduction }

// K returns the number of neighbours.
func (m *KNeighborsRegressor) K() int { return m.k }

// mode は最頻値を返す。ユニーク値を昇順に走査し、最初に見つかった最大得票を採用する
func mode(v []float64) float64 {
	values := slices.Clone(v)
	slices.Sort(values)

	best, bestCount := values[0], 0
	for i := 0; i < len(values); {
		j := i
		for j < len(values) && values[j] == values[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = values[i], j-i
		}
		i = j
	}
	return best
}

func mean(v []float64) float64 {
	return floats.Sum(v) / float64(len(v))
}

// median は偶数個なら中央2値の平均
func median(v []float64) float64 {
	values := slices.Clone(v)
	slices.Sort(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
