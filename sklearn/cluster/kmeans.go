// Package cluster はクラスタリングとクラスタ数の推定を提供する。
package cluster

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/metrics"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
	"github.com/YuminosukeSato/goml/sklearn/neighbors"
)

// State は KMeans の学習状態
type State int

const (
	// StateUnseeded は中心がまだ選ばれていない状態
	StateUnseeded State = iota
	// StateSeeded は k-means++ で中心を選んだ直後の状態
	StateSeeded
	// StateConverged はラベルが変化しなくなって停止した状態
	StateConverged
	// StateExhausted は反復回数の上限で停止した状態
	StateExhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnseeded:
		return "unseeded"
	case StateSeeded:
		return "seeded"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// EmptyClusterPolicy はメンバーを失ったクラスタの扱い
type EmptyClusterPolicy int

const (
	// EmptyClusterError は *errors.EmptyClusterError を返して Fit を中断する
	EmptyClusterError EmptyClusterPolicy = iota
	// EmptyClusterReseed は中心を、割り当て先の中心から最も遠い点に移す
	EmptyClusterReseed
)

// KMeans はk-means++ で初期化する Lloyd 法のクラスタリング。
//
// 1 つのインスタンスを複数の goroutine から同時に使ってはならない。
type KMeans struct {
	state *model.StateManager

	// ハイパーパラメータ
	nClusters   int
	maxIter     int
	randomState int64
	emptyPolicy EmptyClusterPolicy

	rng    *rand.Rand
	logger log.Logger

	// 学習結果
	phase       State
	X           mat.Matrix // Predict 用に学習データへの参照を保持する
	centroids   *mat.Dense
	labels      []int
	inertia     float64
	inertiaPath []float64
	nIter       int
}

// Option configures a KMeans.
type Option func(*KMeans)

// WithMaxIter は最大イテレーション数を設定
func WithMaxIter(n int) Option {
	return func(km *KMeans) { km.maxIter = n }
}

// WithRandomState は乱数シードを設定
func WithRandomState(seed int64) Option {
	return func(km *KMeans) { km.randomState = seed }
}

// WithRandomSource は初期化に使う生成器を直接渡す
func WithRandomSource(rng *rand.Rand) Option {
	return func(km *KMeans) { km.rng = rng }
}

// WithEmptyClusterPolicy は空クラスタの扱いを設定
func WithEmptyClusterPolicy(p EmptyClusterPolicy) Option {
	return func(km *KMeans) { km.emptyPolicy = p }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(km *KMeans) { km.logger = l }
}

// NewKMeans creates a KMeans with nClusters clusters.
// Defaults: 1000 iterations, seed 0, EmptyClusterError.
func NewKMeans(nClusters int, opts ...Option) (*KMeans, error) {
	km := &KMeans{
		state:     model.NewStateManager(),
		nClusters: nClusters,
		maxIter:   1000,
	}
	for _, opt := range opts {
		opt(km)
	}

	if km.nClusters <= 0 {
		return nil, errors.NewValidationError("n_clusters", "must be positive", km.nClusters)
	}
	if km.maxIter <= 0 {
		return nil, errors.NewValidationError("max_iter", "must be positive", km.maxIter)
	}
	if km.emptyPolicy != EmptyClusterError && km.emptyPolicy != EmptyClusterReseed {
		return nil, errors.NewValidationError("empty_cluster_policy", "must be EmptyClusterError or EmptyClusterReseed", int(km.emptyPolicy))
	}
	if km.rng == nil {
		km.rng = matutil.NewRand(km.randomState)
	}
	if km.logger == nil {
		km.logger = log.GetLoggerWithName("cluster")
	}
	km.logger = km.logger.With(log.ModelNameKey, "KMeans", log.ClustersKey, km.nClusters)
	return km, nil
}

// Fit clusters the rows of X.
//
// 各イテレーションで全点を最近傍の中心に割り当て（同距離なら番号の小さい中心）、
// 中心をメンバーの平均に置き換える。ラベルが前回と同じになるか上限に達したら止まる。
func (km *KMeans) Fit(X mat.Matrix) (err error) {
	const op = "KMeans.Fit"
	defer errors.Recover(&err, op)

	n, d, err := matutil.CheckX(op, X)
	if err != nil {
		return err
	}
	if n < km.nClusters {
		return errors.NewValidationError("n_clusters", "must not exceed the number of samples", km.nClusters)
	}

	km.state.Reset()
	km.phase = StateUnseeded
	km.logger.Debug("Starting model fitting",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
	)

	centroids := km.seed(X)
	km.phase = StateSeeded

	labels := make([]int, n)
	last := make([]int, n)
	for i := range last {
		last[i] = -1
	}
	path := make([]float64, 0, km.maxIter)
	row := make([]float64, d)
	dist := make([]float64, km.nClusters)
	counts := make([]int, km.nClusters)

	converged := false
	iter := 0
	for iter < km.maxIter {
		var inertia float64
		for i := 0; i < n; i++ {
			mat.Row(row, i, X)
			metrics.SquaredEuclideanDistances(dist, centroids, row)
			labels[i] = metrics.ArgMin(dist)
			inertia += dist[labels[i]]
		}
		path = append(path, inertia)

		next := mat.NewDense(km.nClusters, d, nil)
		for c := range counts {
			counts[c] = 0
		}
		for i, c := range labels {
			mat.Row(row, i, X)
			floats.Add(next.RawRowView(c), row)
			counts[c]++
		}
		for c, cnt := range counts {
			if cnt > 0 {
				floats.Scale(1/float64(cnt), next.RawRowView(c))
			}
		}
		if err := km.handleEmpty(X, next, labels, counts, iter); err != nil {
			return err
		}
		if err := errors.CheckMatrix("centroid_update", next, km.nClusters, d, iter); err != nil {
			return err
		}
		centroids = next
		iter++

		if slices.Equal(last, labels) {
			converged = true
			break
		}
		copy(last, labels)
	}

	km.X = X
	km.centroids = centroids
	km.labels = labels
	km.inertiaPath = path
	km.nIter = iter
	km.inertia = km.computeInertia(X, centroids, labels)
	if converged {
		km.phase = StateConverged
	} else {
		km.phase = StateExhausted
		errors.Warn(errors.NewConvergenceWarning("KMeans", iter, "labels still changing"))
	}
	km.state.SetDimensions(d, n)
	km.state.SetFitted()

	km.logger.Debug("Model fitting completed",
		log.OperationKey, log.OperationFit,
		log.IterationKey, iter,
		log.InertiaKey, km.inertia,
	)
	return nil
}

// seed は k-means++ で中心を選ぶ。
// 最初の中心は一様に、以降は既存の中心までの最小二乗距離に比例する確率で選ぶ。
// 距離の合計が 0 の場合は一様に選ぶ。
func (km *KMeans) seed(X mat.Matrix) *mat.Dense {
	n, d := X.Dims()
	centroids := mat.NewDense(km.nClusters, d, nil)
	centroids.SetRow(0, mat.Row(nil, km.rng.IntN(n), X))

	minDist := make([]float64, n)
	for i := range minDist {
		minDist[i] = math.Inf(1)
	}
	row := make([]float64, d)
	for c := 1; c < km.nClusters; c++ {
		prev := centroids.RawRowView(c - 1)
		for i := 0; i < n; i++ {
			mat.Row(row, i, X)
			minDist[i] = math.Min(minDist[i], metrics.SquaredEuclidean(row, prev))
		}

		var idx int
		if total := floats.Sum(minDist); total > 0 {
			target := km.rng.Float64() * total
			var cum float64
			for i, w := range minDist {
				cum += w
				idx = i
				if cum > target {
					break
				}
			}
		} else {
			idx = km.rng.IntN(n)
		}
		centroids.SetRow(c, mat.Row(nil, idx, X))
	}
	return centroids
}

// handleEmpty はメンバーのいないクラスタを方針に従って処理する
func (km *KMeans) handleEmpty(X mat.Matrix, centroids *mat.Dense, labels, counts []int, iter int) error {
	var far []float64
	for c, cnt := range counts {
		if cnt > 0 {
			continue
		}
		if km.emptyPolicy == EmptyClusterError {
			err := errors.NewEmptyClusterError(c, iter)
			km.logger.Error("Cluster lost all members", err,
				log.OperationKey, log.OperationFit,
				log.ErrorCodeKey, log.ErrorEmptyCluster,
			)
			return err
		}

		if far == nil {
			far = make([]float64, len(labels))
			for i, l := range labels {
				far[i] = metrics.SquaredEuclidean(mat.Row(nil, i, X), centroids.RawRowView(l))
			}
		}
		idx := floats.MaxIdx(far)
		centroids.SetRow(c, mat.Row(nil, idx, X))
		// 同じ点を 2 回選ばない
		far[idx] = -1
		km.logger.Debug("Reseeded empty cluster", log.IterationKey, iter, "cluster", c)
	}
	return nil
}

// computeInertia は各点と割り当て先の中心との二乗距離の総和
func (km *KMeans) computeInertia(X mat.Matrix, centroids *mat.Dense, labels []int) float64 {
	_, d := X.Dims()
	row := make([]float64, d)
	var inertia float64
	for i, c := range labels {
		mat.Row(row, i, X)
		inertia += metrics.SquaredEuclidean(row, centroids.RawRowView(c))
	}
	return inertia
}

// Predict labels new rows with a KNN classifier fitted on the training rows
// and their cluster labels, not by nearest centroid.
func (km *KMeans) Predict(X mat.Matrix, nNeighbours int) ([]int, error) {
	if err := km.state.RequireFitted("KMeans", "Predict"); err != nil {
		return nil, err
	}
	knn, err := neighbors.NewKNeighborsClassifier(nNeighbours, neighbors.WithClassifierLogger(km.logger))
	if err != nil {
		return nil, err
	}
	targets := make([]float64, len(km.labels))
	for i, l := range km.labels {
		targets[i] = float64(l)
	}
	if err := knn.Fit(km.X, matutil.Column(targets)); err != nil {
		return nil, err
	}
	pred, err := knn.Predict(X)
	if err != nil {
		return nil, err
	}
	r, _ := X.Dims()
	out := make([]int, r)
	for i := range out {
		out[i] = int(pred.At(i, 0))
	}
	return out, nil
}

// Centroids returns a copy of the K×d centroid matrix.
func (km *KMeans) Centroids() *mat.Dense {
	if km.centroids == nil {
		return nil
	}
	return mat.DenseCopyOf(km.centroids)
}

// Labels returns the cluster index of each training row.
func (km *KMeans) Labels() []int {
	return append([]int(nil), km.labels...)
}

// Inertia returns the within-cluster sum of squared distances after the final iteration.
func (km *KMeans) Inertia() float64 {
	return km.inertia
}

// InertiaPath returns the inertia measured at each assignment step.
func (km *KMeans) InertiaPath() []float64 {
	return append([]float64(nil), km.inertiaPath...)
}

// NIter returns the number of iterations run by the last Fit.
func (km *KMeans) NIter() int {
	return km.nIter
}

// State returns where the last Fit stopped.
func (km *KMeans) State() State {
	return km.phase
}

// NClusters returns K.
func (km *KMeans) NClusters() int {
	return km.nClusters
}

// IsFitted reports whether Fit has completed successfully.
func (km *KMeans) IsFitted() bool {
	return km.state.IsFitted()
}
