package cluster

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// KChooser はエルボー法のヒューリスティックでクラスタ数を推定する。
//
// 試行ごとに K = 1..max-1 で KMeans を学習して inertia を集め、
// I[i]/I[i+1] - I[i]/I[i-1] が初めて (0, threshold) に入る i を選ぶ。
// threshold = 1/(1 + (trials/10 - 3/10)) で、試行回数が多いほど厳しくなる。
// 結果は各試行の i の平均を切り捨てて 1 を足したもの。
type KChooser struct {
	maxClusters   int
	trials        int
	kmeansMaxIter int
	randomState   int64

	rng    *rand.Rand
	logger log.Logger

	chosen          int
	averageInertias []float64
}

// ChooserOption configures a KChooser.
type ChooserOption func(*KChooser)

// WithMaxClusters は探索する K の上限 (max) を設定する。K は max-1 まで試す
func WithMaxClusters(n int) ChooserOption {
	return func(kc *KChooser) { kc.maxClusters = n }
}

// WithTrials は試行回数を設定する
func WithTrials(n int) ChooserOption {
	return func(kc *KChooser) { kc.trials = n }
}

// WithKMeansMaxIter は内部の KMeans の最大イテレーション数を設定する
func WithKMeansMaxIter(n int) ChooserOption {
	return func(kc *KChooser) { kc.kmeansMaxIter = n }
}

// WithChooserRandomState は全試行で共有する生成器のシードを設定する
func WithChooserRandomState(seed int64) ChooserOption {
	return func(kc *KChooser) { kc.randomState = seed }
}

// WithChooserLogger sets the logger.
func WithChooserLogger(l log.Logger) ChooserOption {
	return func(kc *KChooser) { kc.logger = l }
}

// NewKChooser creates a KChooser. Defaults: max 20, 3 trials, 3000 inner iterations.
func NewKChooser(opts ...ChooserOption) (*KChooser, error) {
	kc := &KChooser{
		maxClusters:   20,
		trials:        3,
		kmeansMaxIter: 3000,
		chosen:        -1,
	}
	for _, opt := range opts {
		opt(kc)
	}

	if kc.maxClusters < 4 {
		return nil, errors.NewValidationError("max_clusters", "must be at least 4", kc.maxClusters)
	}
	if kc.trials < 1 {
		return nil, errors.NewValidationError("trials", "must be positive", kc.trials)
	}
	if kc.kmeansMaxIter < 1 {
		return nil, errors.NewValidationError("kmeans_max_iter", "must be positive", kc.kmeansMaxIter)
	}
	kc.rng = matutil.NewRand(kc.randomState)
	if kc.logger == nil {
		kc.logger = log.GetLoggerWithName("cluster")
	}
	kc.logger = kc.logger.With(log.ModelNameKey, "KChooser")
	return kc, nil
}

// Choose returns the recommended number of clusters for X.
// X must have at least max-1 rows.
func (kc *KChooser) Choose(X mat.Matrix) (int, error) {
	const op = "KChooser.Choose"
	n, d, err := matutil.CheckX(op, X)
	if err != nil {
		return 0, err
	}
	if n < kc.maxClusters-1 {
		return 0, errors.NewDimensionError(op, kc.maxClusters-1, n, 0)
	}

	threshold := kc.Threshold()
	kc.logger.Debug("Searching cluster count",
		log.SamplesKey, n,
		log.FeaturesKey, d,
		"threshold", threshold,
	)

	nk := kc.maxClusters - 1
	inertias := mat.NewDense(kc.trials, nk, nil)
	chosen := make([]float64, kc.trials)
	for t := 0; t < kc.trials; t++ {
		row := inertias.RawRowView(t)
		for k := 1; k <= nk; k++ {
			km, err := NewKMeans(k,
				WithMaxIter(kc.kmeansMaxIter),
				WithRandomSource(kc.rng),
				WithEmptyClusterPolicy(EmptyClusterReseed),
				WithLogger(kc.logger),
			)
			if err != nil {
				return 0, err
			}
			if err := km.Fit(X); err != nil {
				return 0, errors.Wrapf(err, "%s: trial %d, k=%d", op, t, k)
			}
			row[k-1] = km.Inertia()
		}
		chosen[t] = float64(elbowIndex(row, threshold))
	}

	kc.averageInertias = make([]float64, nk)
	col := make([]float64, kc.trials)
	for k := range kc.averageInertias {
		mat.Col(col, k, inertias)
		kc.averageInertias[k] = stat.Mean(col, nil)
	}
	kc.chosen = int(stat.Mean(chosen, nil)) + 1

	kc.logger.Debug("Cluster count chosen", log.ClustersKey, kc.chosen)
	return kc.chosen, nil
}

// Threshold returns 1/(1 + (trials/10 - 3/10)).
func (kc *KChooser) Threshold() float64 {
	return 1 / (1 + (float64(kc.trials)/10 - 3.0/10))
}

// Chosen returns the result of the last Choose call, or -1 before any call.
func (kc *KChooser) Chosen() int {
	return kc.chosen
}

// AverageInertias returns the mean inertia for K = 1..max-1 across trials.
func (kc *KChooser) AverageInertias() []float64 {
	return append([]float64(nil), kc.averageInertias...)
}

// elbowIndex は i = 1..len-2 を走査し、0 < I[i]/I[i+1] - I[i]/I[i-1] < threshold と
// なる最初の i を返す。見つからなければ最後に走査した i
func elbowIndex(inertias []float64, threshold float64) int {
	i := 1
	for ; i <= len(inertias)-2; i++ {
		p := inertias[i]/inertias[i+1] - inertias[i]/inertias[i-1]
		if 0 < p && p < threshold {
			return i
		}
	}
	return i - 1
}
