package domain

import "encoding/json"

// Amount is the tagged outcome of monetary normalization: either a known
// dollar value or an explicit "not known" marker. Zero is a real value and
// stays distinguishable from Undisclosed in every summary.
type Amount struct {
	Value     float64
	Disclosed bool
}

// NewAmount returns a disclosed amount in dollars.
func NewAmount(v float64) Amount {
	return Amount{Value: v, Disclosed: true}
}

// UndisclosedAmount returns the "amount unknown" marker.
func UndisclosedAmount() Amount {
	return Amount{}
}

// OrZero returns the dollar value for summation purposes. Undisclosed
// contributes 0 to totals; this is the documented aggregation policy, not a
// hidden coercion.
func (a Amount) OrZero() float64 {
	if !a.Disclosed {
		return 0
	}
	return a.Value
}

// MarshalJSON emits {"value":...,"disclosed":true} for disclosed amounts and
// {"disclosed":false} otherwise, so API consumers never mistake unknown for 0.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Disclosed {
		return json.Marshal(struct {
			Disclosed bool `json:"disclosed"`
		}{false})
	}
	return json.Marshal(struct {
		Value     float64 `json:"value"`
		Disclosed bool    `json:"disclosed"`
	}{a.Value, true})
}

// UnmarshalJSON accepts both shapes produced by MarshalJSON.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var v struct {
		Value     float64 `json:"value"`
		Disclosed bool    `json:"disclosed"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	a.Value = v.Value
	a.Disclosed = v.Disclosed
	return nil
}
