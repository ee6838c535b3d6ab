package runtime

import (
	"math"
	"strconv"
	"strings"

	"rusht/interpreter-go/pkg/ast"
)

// Coercions apply one level deep: lists and procedures never convert.

// ToNumber converts a value for numeric builtins. Strings are parsed after
// trimming surrounding whitespace; booleans read as 1 and 0.
func ToNumber(val Value) (float64, error) {
	switch v := val.(type) {
	case NumberValue:
		return v.Val, nil
	case BoolValue:
		if v.Val {
			return 1, nil
		}
		return 0, nil
	case StringValue:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Val), 64)
		if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, TypeMismatch("cannot coerce %s to number", Inspect(val))
		}
		return n, nil
	default:
		return 0, TypeMismatch("cannot coerce %s to number", kindName(val))
	}
}

// ToString converts a value for string builtins. Numbers use the canonical
// decimal form.
func ToString(val Value) (string, error) {
	switch v := val.(type) {
	case StringValue:
		return v.Val, nil
	case NumberValue:
		return ast.FormatNumber(v.Val), nil
	case BoolValue:
		if v.Val {
			return ast.TrueLiteral, nil
		}
		return ast.FalseLiteral, nil
	default:
		return "", TypeMismatch("cannot coerce %s to string", kindName(val))
	}
}

// ToBool converts a value for conditionals and logical builtins.
func ToBool(val Value) (bool, error) {
	switch v := val.(type) {
	case BoolValue:
		return v.Val, nil
	case NumberValue:
		return v.Val != 0, nil
	case StringValue:
		switch strings.TrimSpace(v.Val) {
		case ast.TrueLiteral, "1":
			return true, nil
		case ast.FalseLiteral, "0", "":
			return false, nil
		}
		return false, TypeMismatch("cannot coerce %s to bool", Inspect(val))
	default:
		return false, TypeMismatch("cannot coerce %s to bool", kindName(val))
	}
}

func kindName(val Value) string {
	if val == nil {
		return "nil"
	}
	return val.Kind().String()
}
