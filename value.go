package axon

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

// Value kinds. The zero Value is an empty String.
const (
	KindString ValueKind = iota
	KindInteger
	KindFloat
	KindBoolean
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a tool-call parameter value.
// It is a closed union of string, integer, float and boolean so that
// consumers can switch on Kind exhaustively.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
}

// StringValue wraps a string.
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

// IntValue wraps an integer.
func IntValue(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// FloatValue wraps a float.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// BoolValue wraps a boolean.
func BoolValue(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

// Kind reports which variant the value holds.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Str returns the string variant.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

// Int returns the integer variant.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// Float returns the float variant.
func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// Bool returns the boolean variant.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

// Any returns the underlying Go value (string, int64, float64 or bool).
func (v Value) Any() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindBoolean:
		return v.b
	default:
		return v.s
	}
}

// String renders the value the way it would appear in a call argument list.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		// Integral floats keep a point so they parse back as floats.
		if !math.IsInf(v.f, 0) && !math.IsNaN(v.f) && !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	case KindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return strconv.Quote(v.s)
	}
}

// MarshalJSON encodes the value as its underlying scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a JSON scalar into the matching variant.
// Integral numbers become integers, other numbers floats.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := scalarFromJSON(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
