// Package decomposition は共分散行列の固有値分解による主成分分析を提供する。
package decomposition

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/pkg/errors"
	"github.com/YuminosukeSato/goml/pkg/log"
)

// PCA は主成分分析。
//
// 成分数は WithNComponents で固定するか、WithVarianceThreshold で
// 累積寄与率が初めて閾値を超える最小の数に決める。共分散は不偏推定 (n-1) を使う。
//
// Transform は Fit に渡した学習データだけを射影する。新しいデータには TransformNew を使う。
type PCA struct {
	state *model.StateManager

	nComponents int
	threshold   float64
	logger      log.Logger

	mean        []float64
	centered    *mat.Dense
	eigenvalues []float64  // 全固有値（降順）
	components  *mat.Dense // d×c、列が固有ベクトル
	ratio       []float64  // 全固有値の寄与率（降順）
	selected    int
}

// Option configures a PCA.
type Option func(*PCA)

// WithNComponents は成分数を固定する。特徴量数より大きい場合は特徴量数に切り詰める
func WithNComponents(n int) Option {
	return func(p *PCA) { p.nComponents = n }
}

// WithVarianceThreshold は累積寄与率の閾値 (0 < t < 1) で成分数を決める
func WithVarianceThreshold(t float64) Option {
	return func(p *PCA) { p.threshold = t }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(p *PCA) { p.logger = l }
}

// NewPCA creates a PCA. Exactly one of WithNComponents and WithVarianceThreshold must be given.
func NewPCA(opts ...Option) (*PCA, error) {
	p := &PCA{state: model.NewStateManager()}
	for _, opt := range opts {
		opt(p)
	}

	byCount, byThreshold := p.nComponents != 0, p.threshold != 0
	switch {
	case byCount == byThreshold:
		return nil, errors.NewValidationError("n_components", "set exactly one of n_components and variance_threshold", p.nComponents)
	case byCount && p.nComponents < 0:
		return nil, errors.NewValidationError("n_components", "must be positive", p.nComponents)
	case byThreshold && (p.threshold <= 0 || p.threshold >= 1):
		return nil, errors.NewValidationError("variance_threshold", "must be in (0, 1)", p.threshold)
	}
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("decomposition")
	}
	p.logger = p.logger.With(log.ModelNameKey, "PCA")
	return p, nil
}

// Fit centers X, eigendecomposes its covariance and keeps the leading components.
func (p *PCA) Fit(X mat.Matrix) (err error) {
	const op = "PCA.Fit"
	defer errors.Recover(&err, op)

	n, d, err := matutil.CheckX(op, X)
	if err != nil {
		return err
	}
	if n < 2 {
		return errors.NewValueError(op, "at least two samples are required to estimate covariance")
	}

	mean := make([]float64, d)
	col := make([]float64, n)
	for j := range mean {
		mat.Col(col, j, X)
		mean[j] = stat.Mean(col, nil)
	}
	centered := mat.NewDense(n, d, nil)
	centered.Apply(func(_, j int, v float64) float64 { return v - mean[j] }, X)

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, centered, nil)

	var es mat.EigenSym
	if ok := es.Factorize(&cov, true); !ok {
		return errors.NewModelError(op, "eigendecomposition failed", errors.ErrDecompositionFailed)
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	// 固有値の降順に並べ替える
	order := make([]int, d)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })
	eigenvalues := make([]float64, d)
	sorted := mat.NewDense(d, d, nil)
	for k, idx := range order {
		eigenvalues[k] = values[idx]
		sorted.SetCol(k, mat.Col(nil, idx, &vectors))
	}

	ratio := make([]float64, d)
	if total := floats.Sum(eigenvalues); total > 0 {
		floats.ScaleTo(ratio, 1/total, eigenvalues)
	}

	selected := p.componentCount(ratio)
	if err := errors.CheckNumericalStability("eigendecomposition", eigenvalues, 0); err != nil {
		return err
	}

	p.mean = mean
	p.centered = centered
	p.eigenvalues = eigenvalues
	p.ratio = ratio
	p.selected = selected
	p.components = mat.DenseCopyOf(sorted.Slice(0, d, 0, selected))
	p.state.SetDimensions(d, n)
	p.state.SetFitted()

	p.logger.Debug("Model fitting completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ComponentsKey, selected,
		log.ExplainedVarianceKey, floats.Sum(ratio[:selected]),
	)
	return nil
}

// componentCount は保持する成分数を決める
func (p *PCA) componentCount(ratio []float64) int {
	d := len(ratio)
	if p.nComponents > 0 {
		return min(p.nComponents, d)
	}
	var cum float64
	for i, r := range ratio {
		cum += r
		if cum > p.threshold {
			return i + 1
		}
	}
	return d
}

// Transform projects the centered training data onto the kept components (n×c).
func (p *PCA) Transform() (mat.Matrix, error) {
	if err := p.state.RequireFitted("PCA", "Transform"); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Mul(p.centered, p.components)
	return &out, nil
}

// FitTransform fits X and returns its projection.
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform()
}

// TransformNew projects new rows using the mean and components learned by Fit.
func (p *PCA) TransformNew(X mat.Matrix) (mat.Matrix, error) {
	if err := p.state.RequireFitted("PCA", "TransformNew"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := p.state.RequireFeatures("PCA.TransformNew", c); err != nil {
		return nil, err
	}
	centered := mat.NewDense(r, c, nil)
	centered.Apply(func(_, j int, v float64) float64 { return v - p.mean[j] }, X)

	var out mat.Dense
	out.Mul(centered, p.components)
	return &out, nil
}

// Reconstruct maps projected rows back to feature space: Xhat·Vᵗ + mean.
func (p *PCA) Reconstruct(Xhat mat.Matrix) (mat.Matrix, error) {
	if err := p.state.RequireFitted("PCA", "Reconstruct"); err != nil {
		return nil, err
	}
	if _, c := Xhat.Dims(); c != p.selected {
		return nil, errors.NewDimensionError("PCA.Reconstruct", p.selected, c, 1)
	}

	var out mat.Dense
	out.Mul(Xhat, p.components.T())
	out.Apply(func(_, j int, v float64) float64 { return v + p.mean[j] }, &out)

	p.logger.Debug("Reconstructed samples", log.OperationKey, log.OperationReconstruct)
	return &out, nil
}

// NComponents returns the number of kept components.
func (p *PCA) NComponents() int { return p.selected }

// Components returns the d×c matrix whose columns are the kept eigenvectors.
func (p *PCA) Components() *mat.Dense {
	if p.components == nil {
		return nil
	}
	return mat.DenseCopyOf(p.components)
}

// ExplainedVariance returns the eigenvalues of the kept components.
func (p *PCA) ExplainedVariance() []float64 {
	return append([]float64(nil), p.eigenvalues[:p.selected]...)
}

// ExplainedVarianceRatio returns the variance ratio of the kept components.
func (p *PCA) ExplainedVarianceRatio() []float64 {
	return append([]float64(nil), p.ratio[:p.selected]...)
}

// Eigenvalues returns every eigenvalue of the covariance matrix in descending order.
func (p *PCA) Eigenvalues() []float64 {
	return append([]float64(nil), p.eigenvalues...)
}

// Mean returns the per-feature mean used for centering.
func (p *PCA) Mean() []float64 {
	return append([]float64(nil), p.mean...)
}

// IsFitted reports whether Fit has completed successfully.
func (p *PCA) IsFitted() bool {
	return p.state.IsFitted()
}
