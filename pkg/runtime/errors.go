package runtime

import (
	"fmt"

	"rusht/interpreter-go/pkg/ast"
)

// EvalErrorKind enumerates evaluation failures.
type EvalErrorKind int

const (
	ErrUndefinedSymbol EvalErrorKind = iota
	ErrNotCallable
	ErrArityMismatch
	ErrTypeMismatch
	ErrDivisionByZero
	ErrIndexOutOfBounds
)

func (k EvalErrorKind) String() string {
	switch k {
	case ErrUndefinedSymbol:
		return "UndefinedSymbol"
	case ErrNotCallable:
		return "NotCallable"
	case ErrArityMismatch:
		return "ArityMismatch"
	case ErrTypeMismatch:
		return "TypeMismatch"
	case ErrDivisionByZero:
		return "DivisionByZero"
	case ErrIndexOutOfBounds:
		return "IndexOutOfBounds"
	default:
		return fmt.Sprintf("EvalErrorKind(%d)", int(k))
	}
}

// EvalError is returned by every failing evaluation. Only the fields that
// apply to Kind are set.
type EvalError struct {
	Kind EvalErrorKind

	// Name is the symbol or procedure involved, when there is one.
	Name string
	// Expected and Got carry argument counts for ArityMismatch. AtLeast marks
	// Expected as a lower bound.
	Expected int
	Got      int
	AtLeast  bool
	// Index is the offending position for IndexOutOfBounds.
	Index float64
	// Detail describes a TypeMismatch.
	Detail string
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case ErrUndefinedSymbol:
		return fmt.Sprintf("undefined symbol '%s'", e.Name)
	case ErrNotCallable:
		return fmt.Sprintf("%s is not callable", e.Name)
	case ErrArityMismatch:
		bound := ""
		if e.AtLeast {
			bound = "at least "
		}
		name := e.Name
		if name == "" {
			name = "<anonymous>"
		}
		return fmt.Sprintf("'%s' expects %s%d arguments, got %d", name, bound, e.Expected, e.Got)
	case ErrTypeMismatch:
		return "type mismatch: " + e.Detail
	case ErrDivisionByZero:
		return fmt.Sprintf("division by zero in '%s'", e.Name)
	case ErrIndexOutOfBounds:
		return fmt.Sprintf("index %s is out of bounds", ast.FormatNumber(e.Index))
	default:
		return e.Kind.String()
	}
}

func UndefinedSymbol(name string) *EvalError {
	return &EvalError{Kind: ErrUndefinedSymbol, Name: name}
}

// NotCallable describes the value found in call position.
func NotCallable(val Value) *EvalError {
	return &EvalError{Kind: ErrNotCallable, Name: Inspect(val)}
}

func ArityMismatch(name string, expected, got int, atLeast bool) *EvalError {
	return &EvalError{Kind: ErrArityMismatch, Name: name, Expected: expected, Got: got, AtLeast: atLeast}
}

func TypeMismatch(format string, args ...any) *EvalError {
	return &EvalError{Kind: ErrTypeMismatch, Detail: fmt.Sprintf(format, args...)}
}

func DivisionByZero(op string) *EvalError {
	return &EvalError{Kind: ErrDivisionByZero, Name: op}
}

func IndexOutOfBounds(index float64) *EvalError {
	return &EvalError{Kind: ErrIndexOutOfBounds, Index: index}
}
