package model

// History は反復学習の損失履歴。インデックスが反復回数に対応する
type History []float64

// NewHistory は容量 capacity の空の履歴を作成する
func NewHistory(capacity int) History {
	return make(History, 0, capacity)
}

// Len は記録された反復回数を返す
func (h History) Len() int {
	return len(h)
}

// Last は最後に記録された損失を返す。空の場合は ok=false
func (h History) Last() (loss float64, ok bool) {
	if len(h) == 0 {
		return 0, false
	}
	return h[len(h)-1], true
}

// Copy は呼び出し側が変更しても元の履歴に影響しないコピーを返す
func (h History) Copy() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}
