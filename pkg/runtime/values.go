package runtime

import (
	"fmt"
	"strings"

	"rusht/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindList
	KindLambda
	KindNativeFunction
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindLambda:
		return "lambda"
	case KindNativeFunction:
		return "builtin"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values. Values are never
// mutated after construction.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NumberValue struct {
	Val float64
}

func (v NumberValue) Kind() Kind { return KindNumber }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

// ListValue is an ordered sequence. Operations that "modify" a list build a
// new one.
type ListValue struct {
	Elements []Value
}

func (v ListValue) Kind() Kind { return KindList }

// NewList copies elements into a fresh list value.
func NewList(elements []Value) ListValue {
	out := make([]Value, len(elements))
	copy(out, elements)
	return ListValue{Elements: out}
}

//-----------------------------------------------------------------------------
// Functions & closures
//-----------------------------------------------------------------------------

// LambdaValue is a user procedure. Closure is the environment active when the
// lambda was created, shared by reference.
type LambdaValue struct {
	Params  []string
	Body    ast.Expression
	Closure *Environment
}

func (v *LambdaValue) Kind() Kind { return KindLambda }

// NativeCallContext provides hooks for native functions. Name is the
// builtin's registered name, used in diagnostics.
type NativeCallContext struct {
	Name string
}

type NativeFunc func(*NativeCallContext, []Value) (Value, error)

// NativeFunctionValue is a built-in procedure. Arity is the exact argument
// count, or the minimum when Variadic is set. MaxArity bounds a variadic
// builtin when positive.
type NativeFunctionValue struct {
	Name     string
	Arity    int
	Variadic bool
	MaxArity int
	Impl     NativeFunc
}

func (v NativeFunctionValue) Kind() Kind { return KindNativeFunction }

// CheckArity validates an argument count against the builtin's signature.
func (v NativeFunctionValue) CheckArity(got int) error {
	if !v.Variadic {
		if got != v.Arity {
			return ArityMismatch(v.Name, v.Arity, got, false)
		}
		return nil
	}
	if got < v.Arity {
		return ArityMismatch(v.Name, v.Arity, got, true)
	}
	if v.MaxArity > 0 && got > v.MaxArity {
		return ArityMismatch(v.Name, v.MaxArity, got, false)
	}
	return nil
}

//-----------------------------------------------------------------------------
// Printing
//-----------------------------------------------------------------------------

// Inspect renders a value the way the REPL shows it: strings are quoted and
// lists are parenthesised.
func Inspect(val Value) string {
	switch v := val.(type) {
	case NumberValue:
		return ast.FormatNumber(v.Val)
	case StringValue:
		return `"` + v.Val + `"`
	case BoolValue:
		if v.Val {
			return ast.TrueLiteral
		}
		return ast.FalseLiteral
	case ListValue:
		parts := make([]string, 0, len(v.Elements))
		for _, el := range v.Elements {
			parts = append(parts, Inspect(el))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *LambdaValue:
		return fmt.Sprintf("λ (%s) -> %s", strings.Join(v.Params, " "), ast.Print(v.Body))
	case NativeFunctionValue:
		return fmt.Sprintf("<builtin %s>", v.Name)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("[%s]", v.Kind())
	}
}

// Equal reports strict equality: same kind and same contents. Procedures are
// equal only to themselves.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case NumberValue:
		y, ok := b.(NumberValue)
		return ok && x.Val == y.Val
	case StringValue:
		y, ok := b.(StringValue)
		return ok && x.Val == y.Val
	case BoolValue:
		y, ok := b.(BoolValue)
		return ok && x.Val == y.Val
	case ListValue:
		y, ok := b.(ListValue)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for idx := range x.Elements {
			if !Equal(x.Elements[idx], y.Elements[idx]) {
				return false
			}
		}
		return true
	case *LambdaValue:
		y, ok := b.(*LambdaValue)
		return ok && x == y
	case NativeFunctionValue:
		y, ok := b.(NativeFunctionValue)
		return ok && x.Name == y.Name
	default:
		return false
	}
}
