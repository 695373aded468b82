// Package param defines the typed in-memory model of a scene script's
// PARAMETERS block: tagged values, per-parameter records with bounds and
// metadata, and the ordered model the rest of the tool reads from.
package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies one of the four supported parameter value types.
// The string forms match the type literals used in scene scripts.
type Kind int

const (
	Float Kind = iota
	Int
	Bool
	Text
)

// String returns the script-side type literal for the kind.
func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Text:
		return "str"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindFromLiteral resolves a script type literal (float, int, bool, str)
// to a Kind. The second return is false for any other literal.
func KindFromLiteral(lit string) (Kind, bool) {
	switch lit {
	case "float":
		return Float, true
	case "int":
		return Int, true
	case "bool":
		return Bool, true
	case "str":
		return Text, true
	}
	return 0, false
}

// Value is a tagged union holding one of float64, int64, bool, or string.
// The zero Value is a Float 0.
type Value struct {
	kind Kind
	f    float64
	i    int64
	b    bool
	s    string
}

// FloatValue returns a Float-kinded value.
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }

// IntValue returns an Int-kinded value.
func IntValue(i int64) Value { return Value{kind: Int, i: i} }

// BoolValue returns a Bool-kinded value.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// TextValue returns a Text-kinded value.
func TextValue(s string) Value { return Value{kind: Text, s: s} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// Float returns the float payload. Valid only when Kind is Float.
func (v Value) Float() float64 { return v.f }

// Int returns the int payload. Valid only when Kind is Int.
func (v Value) Int() int64 { return v.i }

// Bool returns the bool payload. Valid only when Kind is Bool.
func (v Value) Bool() bool { return v.b }

// Text returns the string payload. Valid only when Kind is Text.
func (v Value) Text() string { return v.s }

// AsFloat widens a numeric value to float64. Valid for Float and Int kinds.
func (v Value) AsFloat() float64 {
	if v.kind == Int {
		return float64(v.i)
	}
	return v.f
}

// IsNumeric reports whether the value is Float- or Int-kinded.
func (v Value) IsNumeric() bool { return v.kind == Float || v.kind == Int }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Float:
		return v.f == o.f
	case Int:
		return v.i == o.i
	case Bool:
		return v.b == o.b
	case Text:
		return v.s == o.s
	}
	return false
}

// String renders the value for display and logs. Booleans use the
// script-side True/False spelling; text is returned raw.
func (v Value) String() string {
	switch v.kind {
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Bool:
		if v.b {
			return "True"
		}
		return "False"
	case Text:
		return v.s
	}
	return ""
}

// Parse converts a user-supplied string (CLI argument, preset field) into
// a Value of the given kind. Bool accepts true/false in any case plus the
// script-side True/False spelling.
func Parse(kind Kind, s string) (Value, error) {
	switch kind {
	case Float:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("param: %q is not a float", s)
		}
		return FloatValue(f), nil
	case Int:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("param: %q is not an int", s)
		}
		return IntValue(i), nil
	case Bool:
		switch strings.ToLower(s) {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("param: %q is not a bool", s)
	case Text:
		return TextValue(s), nil
	}
	return Value{}, fmt.Errorf("param: unsupported kind %v", kind)
}
