package preprocessing

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/pkg/errors"
)

// EncodingMode は CategoricalEncoder の出力形式
type EncodingMode int

const (
	// EncodeOneHot はカテゴリを n×K の one-hot 行列にする
	EncodeOneHot EncodingMode = iota
	// EncodeIndex はカテゴリを n×1 のインデックス列にする
	EncodeIndex
)

// String returns the mode name.
func (m EncodingMode) String() string {
	switch m {
	case EncodeOneHot:
		return "onehot"
	case EncodeIndex:
		return "index"
	default:
		return "unknown"
	}
}

// CategoricalEncoder は文字列ラベルを数値表現に変換する。
//
// カテゴリは辞書順に並べたユニーク値で、Encode のたびに作り直される。
type CategoricalEncoder struct {
	state      *model.StateManager
	mode       EncodingMode
	categories []string
}

// NewCategoricalEncoder creates an encoder for the given mode.
func NewCategoricalEncoder(mode EncodingMode) (*CategoricalEncoder, error) {
	if mode != EncodeOneHot && mode != EncodeIndex {
		return nil, errors.NewValidationError("mode", "must be EncodeOneHot or EncodeIndex", int(mode))
	}
	return &CategoricalEncoder{
		state: model.NewStateManager(),
		mode:  mode,
	}, nil
}

// Encode はラベルを数値化する。
// EncodeOneHot では n×K、EncodeIndex では n×1 の行列を返す。
func (e *CategoricalEncoder) Encode(labels []string) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, errors.NewModelError("CategoricalEncoder.Encode", "empty data", errors.ErrEmptyData)
	}

	categories := slices.Clone(labels)
	slices.Sort(categories)
	categories = slices.Compact(categories)

	n, k := len(labels), len(categories)
	var out *mat.Dense
	if e.mode == EncodeOneHot {
		out = mat.NewDense(n, k, nil)
	} else {
		out = mat.NewDense(n, 1, nil)
	}
	for i, label := range labels {
		idx, _ := slices.BinarySearch(categories, label)
		if e.mode == EncodeOneHot {
			out.Set(i, idx, 1)
		} else {
			out.Set(i, 0, float64(idx))
		}
	}

	e.categories = categories
	e.state.SetDimensions(k, n)
	e.state.SetFitted()
	return out, nil
}

// Decode は Encode の出力をラベルに戻す
func (e *CategoricalEncoder) Decode(encoded mat.Matrix) ([]string, error) {
	const op = "CategoricalEncoder.Decode"
	if err := e.state.RequireFitted("CategoricalEncoder", "Decode"); err != nil {
		return nil, err
	}

	var idx []int
	if e.mode == EncodeOneHot {
		if err := e.state.RequireFeatures(op, colsOf(encoded)); err != nil {
			return nil, err
		}
		idx = ArgMaxRows(encoded)
	} else {
		if c := colsOf(encoded); c != 1 {
			return nil, errors.NewDimensionError(op, 1, c, 1)
		}
		for _, v := range mat.Col(nil, 0, encoded) {
			if v != math.Trunc(v) || v < 0 || int(v) >= len(e.categories) {
				return nil, errors.NewValueError(op, "index out of range of known categories")
			}
			idx = append(idx, int(v))
		}
	}

	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = e.categories[j]
	}
	return out, nil
}

// Categories returns the sorted unique labels seen by the last Encode call.
func (e *CategoricalEncoder) Categories() []string {
	return slices.Clone(e.categories)
}

// Mode returns the encoding mode.
func (e *CategoricalEncoder) Mode() EncodingMode {
	return e.mode
}

// ArgMaxRows は各行の最大値の列番号を返す（同値なら先頭）
func ArgMaxRows(m mat.Matrix) []int {
	r, c := m.Dims()
	out := make([]int, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		out[i] = floats.MaxIdx(row)
	}
	return out
}

func colsOf(m mat.Matrix) int {
	_, c := m.Dims()
	return c
}
