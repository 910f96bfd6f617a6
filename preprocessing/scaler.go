// Package preprocessing は特徴量のスケーリングとカテゴリ変数のエンコードを提供する。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goml/core/matutil"
	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/pkg/errors"
)

// constantTol 以下の幅しか持たない列は定数列として扱う
const constantTol = 1e-8

// StandardScaler はデータを平均0、標準偏差1に変換する。
// 標準偏差は母集団のもの（n で割る）を使う
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差。定数列では 1
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	n, d, err := matutil.CheckX("StandardScaler.Fit", X)
	if err != nil {
		return err
	}

	s.Mean = make([]float64, d)
	s.Scale = make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		if s.WithStd && std >= constantTol {
			s.Scale[j] = std
		}
	}

	s.state.SetDimensions(d, n)
	s.state.SetFitted()
	return nil
}

// Transform は (x - mean) / scale を返す
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.check(X, "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return out, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.check(X, "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return out, nil
}

// IsFitted は学習済みかどうかを返す
func (s *StandardScaler) IsFitted() bool {
	return s.state.IsFitted()
}

func (s *StandardScaler) check(X mat.Matrix, method string) error {
	if err := s.state.RequireFitted("StandardScaler", method); err != nil {
		return err
	}
	_, c := X.Dims()
	return s.state.RequireFeatures("StandardScaler."+method, c)
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	d, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, d)
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする。
//
// 定数列は Scale を 1 とするので、変換後は FeatureRange[0] になる（NaN は出さない）。
type MinMaxScaler struct {
	state *model.StateManager

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量の幅 (max - min)。定数列では 1
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler, err := preprocessing.NewMinMaxScaler([2]float64{-1, 1})
//	XScaled, err := scaler.FitTransform(X)
func NewMinMaxScaler(featureRange [2]float64) (*MinMaxScaler, error) {
	if !(featureRange[0] < featureRange[1]) {
		return nil, errors.NewValidationError("feature_range", "minimum must be smaller than maximum", featureRange)
	}
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}, nil
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: [2]float64{0, 1},
	}
}

// Fit は訓練データから各列の最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	n, d, err := matutil.CheckX("MinMaxScaler.Fit", X)
	if err != nil {
		return err
	}

	m.DataMin = make([]float64, d)
	m.DataMax = make([]float64, d)
	m.Scale = make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, X)
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)

		m.Scale[j] = m.DataMax[j] - m.DataMin[j]
		if math.Abs(m.Scale[j]) < constantTol {
			m.Scale[j] = 1
		}
	}

	m.state.SetDimensions(d, n)
	m.state.SetFitted()
	return nil
}

// Transform は (x - min) / (max - min) を FeatureRange に写す
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.check(X, "Transform"); err != nil {
		return nil, err
	}
	width := m.FeatureRange[1] - m.FeatureRange[0]
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	}, X)
	return out, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.check(X, "InverseTransform"); err != nil {
		return nil, err
	}
	width := m.FeatureRange[1] - m.FeatureRange[0]
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	}, X)
	return out, nil
}

// IsFitted は学習済みかどうかを返す
func (m *MinMaxScaler) IsFitted() bool {
	return m.state.IsFitted()
}

func (m *MinMaxScaler) check(X mat.Matrix, method string) error {
	if err := m.state.RequireFitted("MinMaxScaler", method); err != nil {
		return err
	}
	_, c := X.Dims()
	return m.state.RequireFeatures("MinMaxScaler."+method, c)
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	d, _ := m.state.GetDimensions()
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], d)
}
