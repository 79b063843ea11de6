package backtest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type valueKind uint8

const (
	kindUndefined valueKind = iota
	kindNumber
	kindPosInf
)

// Value is a metric scalar that is either a finite number, undefined, or +Inf.
// The zero Value is undefined.
type Value struct {
	x    float64
	kind valueKind
}

// Num wraps a finite number. NaN and infinities become Undefined; use Inf
// for the one documented infinite result.
func Num(x float64) Value {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Value{}
	}
	return Value{x: x, kind: kindNumber}
}

// Undefined returns the "no meaningful value" sentinel.
func Undefined() Value { return Value{} }

// Inf returns the +Inf sentinel.
func Inf() Value { return Value{kind: kindPosInf} }

// Defined reports whether v is a finite number.
func (v Value) Defined() bool { return v.kind == kindNumber }

// IsUndefined reports whether v is the undefined sentinel.
func (v Value) IsUndefined() bool { return v.kind == kindUndefined }

// IsInf reports whether v is the +Inf sentinel.
func (v Value) IsInf() bool { return v.kind == kindPosInf }

// Float returns the numeric value, +Inf or NaN, and whether v is finite.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.x, true
	case kindPosInf:
		return math.Inf(1), false
	default:
		return math.NaN(), false
	}
}

// Less orders values for ranking: Undefined < numbers < +Inf.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		return rank(v.kind) < rank(o.kind)
	}
	return v.kind == kindNumber && v.x < o.x
}

func rank(k valueKind) int {
	switch k {
	case kindNumber:
		return 1
	case kindPosInf:
		return 2
	default:
		return 0
	}
}

func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.x, 'f', 4, 64)
	case kindPosInf:
		return "∞"
	default:
		return "n/a"
	}
}

// Render formats x*scale with format; sentinels render as in String.
func (v Value) Render(format string, scale float64) string {
	if v.kind != kindNumber {
		return v.String()
	}
	return fmt.Sprintf(format, v.x*scale)
}

const infToken = "+Inf"

// MarshalJSON encodes undefined as null and +Inf as the string "+Inf".
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNumber:
		return json.Marshal(v.x)
	case kindPosInf:
		return json.Marshal(infToken)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the encodings produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != infToken {
			return fmt.Errorf("invalid metric value %q", s)
		}
		*v = Inf()
		return nil
	}
	var x float64
	if err := json.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("invalid metric value: %w", err)
	}
	*v = Num(x)
	return nil
}

// MarshalYAML mirrors MarshalJSON for gopkg.in/yaml.v3.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case kindNumber:
		return v.x, nil
	case kindPosInf:
		return infToken, nil
	default:
		return nil, nil
	}
}

// flat returns the value in the flat-map encoding: nil, "+Inf" or float64.
func (v Value) flat() any {
	out, _ := v.MarshalYAML()
	return out
}
