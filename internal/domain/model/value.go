package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is an optional number. The zero Value is invalid: it stands for a
// field that was absent or failed to parse. Callers must check Valid (or use
// Float) before doing arithmetic, so a missing number can never slip into a
// comparison as NaN.
type Value struct {
	v     float64
	valid bool
}

// Unknown is the invalid Value.
var Unknown = Value{}

// Known wraps x. NaN and infinities are not numbers for our purposes and
// yield Unknown.
func Known(x float64) Value {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Unknown
	}
	return Value{v: x, valid: true}
}

// Valid reports whether v holds a number.
func (v Value) Valid() bool { return v.valid }

// Float returns the number and whether it is valid.
func (v Value) Float() (float64, bool) { return v.v, v.valid }

// Or returns the number, or def when v is invalid.
func (v Value) Or(def float64) float64 {
	if !v.valid {
		return def
	}
	return v.v
}

// String renders the number, or "N/A".
func (v Value) String() string {
	if !v.valid {
		return "N/A"
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// MarshalJSON encodes invalid values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON accepts null, numbers and numeric strings.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = ParseValue(raw)
	return nil
}

// ParseValue converts a raw statistic as delivered by a data source into a
// Value. Strings are trimmed; the stats API writes rates like ".280" and
// placeholders like "-.--" for undefined values, the latter becoming Unknown.
func ParseValue(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Unknown
	case Value:
		return x
	case float64:
		return Known(x)
	case float32:
		return Known(float64(x))
	case int:
		return Known(float64(x))
	case int64:
		return Known(float64(x))
	case int32:
		return Known(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Unknown
		}
		return Known(f)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return Unknown
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Unknown
		}
		return Known(f)
	default:
		return Unknown
	}
}
