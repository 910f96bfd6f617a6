package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/goml/pkg/errors"
)

// Regularizer は重みに対するペナルティ項とその勾配
type Regularizer interface {
	// Penalty は重み w に対するペナルティを返す
	Penalty(w []float64) float64
	// Grad は w と同じ長さの勾配を返す
	Grad(w []float64) []float64
	// Name はログ出力用の名前
	Name() string
}

// NoPenalty は正則化なし
type NoPenalty struct{}

func (NoPenalty) Penalty([]float64) float64 { return 0 }

func (NoPenalty) Grad(w []float64) []float64 { return make([]float64, len(w)) }

func (NoPenalty) Name() string { return "none" }

// L1 は λ·Σ|w| (Lasso)
type L1 struct {
	Lambda float64
}

func (r L1) Penalty(w []float64) float64 {
	return r.Lambda * floats.Norm(w, 1)
}

// Grad は λ·sign(w)。sign(0) = 0
func (r L1) Grad(w []float64) []float64 {
	g := make([]float64, len(w))
	for i, v := range w {
		g[i] = r.Lambda * sign(v)
	}
	return g
}

func (L1) Name() string { return "l1" }

// L2 は ω·‖w‖² (Ridge)
type L2 struct {
	Omega float64
}

func (r L2) Penalty(w []float64) float64 {
	return r.Omega * floats.Dot(w, w)
}

// Grad は 2ω·w
func (r L2) Grad(w []float64) []float64 {
	g := make([]float64, len(w))
	floats.ScaleTo(g, 2*r.Omega, w)
	return g
}

func (L2) Name() string { return "l2" }

// ElasticNet は α·L2(1) + (1-α)·L1(1)、α = λ2 / (λ1 + λ2)。
// 内側の L1/L2 は強さ1で固定され、λ1, λ2 は混合比だけを決める
type ElasticNet struct {
	alpha float64
	l1    L1
	l2    L2
}

// NewElasticNet は λ1, λ2 から ElasticNet を作る。
// どちらかが負、または両方0の場合は ValidationError
func NewElasticNet(lambda1, lambda2 float64) (*ElasticNet, error) {
	if lambda1 < 0 || math.IsNaN(lambda1) {
		return nil, errors.NewValidationError("lambda1", "must be non-negative", lambda1)
	}
	if lambda2 < 0 || math.IsNaN(lambda2) {
		return nil, errors.NewValidationError("lambda2", "must be non-negative", lambda2)
	}
	if lambda1+lambda2 == 0 {
		return nil, errors.NewValidationError("lambda1+lambda2", "must be positive", 0)
	}
	return &ElasticNet{
		alpha: lambda2 / (lambda1 + lambda2),
		l1:    L1{Lambda: 1},
		l2:    L2{Omega: 1},
	}, nil
}

// Alpha は L2 側の混合比
func (r *ElasticNet) Alpha() float64 { return r.alpha }

func (r *ElasticNet) Penalty(w []float64) float64 {
	return r.alpha*r.l2.Penalty(w) + (1-r.alpha)*r.l1.Penalty(w)
}

func (r *ElasticNet) Grad(w []float64) []float64 {
	g := r.l2.Grad(w)
	floats.Scale(r.alpha, g)
	floats.AddScaled(g, 1-r.alpha, r.l1.Grad(w))
	return g
}

func (*ElasticNet) Name() string { return "elastic_net" }

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
