// Package value provides the closed tagged union used for every story
// variable and command parameter.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the payload held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one of None, String, Number or Bool. The zero Value is None.
// Values are comparable and copy by value; no payload is shared.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// None returns the empty value.
func None() Value { return Value{} }

// String returns a String value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a Number value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a Bool value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the discriminant.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v holds no payload.
func (v Value) IsNone() bool { return v.kind == KindNone }

// AsString returns the payload when v is a String.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the payload when v is a Number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the payload when v is a Bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Equal compares by kind and payload. NaN numbers are equal to each other so
// that snapshot comparisons stay reflexive.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		if math.IsNaN(v.num) && math.IsNaN(o.num) {
			return true
		}
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// Text renders the payload for interpolation into dialogue text.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// String implements fmt.Stringer with the kind visible, e.g. Number(1).
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("String(%q)", v.str)
	case KindNumber:
		return fmt.Sprintf("Number(%s)", v.Text())
	case KindBool:
		return fmt.Sprintf("Bool(%t)", v.b)
	default:
		return "None"
	}
}

// Interface returns the payload as a plain Go value: nil, string, float64 or bool.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// FromInterface converts a plain Go value into a Value.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return None(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	default:
		return None(), fmt.Errorf("unsupported value type %T", x)
	}
}

// Parse interprets command line text: true/false become Bool, any finite
// number strconv accepts becomes Number, "~" and "null" become None and
// everything else is a String. "inf" and "nan" stay strings.
func Parse(text string) Value {
	trimmed := strings.TrimSpace(text)
	switch trimmed {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "~", "null":
		return None()
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return Number(n)
	}
	return String(text)
}
