package interpreter

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"rusht/interpreter-go/pkg/runtime"
)

// numericEpsilon bounds the loose equality used by '='.
const numericEpsilon = 2.220446049250313e-16

type builtinSpec struct {
	name     string
	arity    int
	variadic bool
	maxArity int
	impl     runtime.NativeFunc
}

// PreludeNames lists every builtin bound in a root environment.
func PreludeNames() []string {
	specs := (&Interpreter{}).preludeSpecs()
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.name)
	}
	return names
}

func (i *Interpreter) registerPrelude(env *runtime.Environment) {
	for _, spec := range i.preludeSpecs() {
		env.Define(spec.name, runtime.NativeFunctionValue{
			Name:     spec.name,
			Arity:    spec.arity,
			Variadic: spec.variadic,
			MaxArity: spec.maxArity,
			Impl:     spec.impl,
		})
	}
}

func (i *Interpreter) preludeSpecs() []builtinSpec {
	return []builtinSpec{
		{name: "+", arity: 1, variadic: true, impl: builtinAdd},
		{name: "-", arity: 1, variadic: true, impl: arithmetic(func(a, b float64) (float64, error) {
			return a - b, nil
		}, func(a float64) (float64, error) {
			return -a, nil
		})},
		{name: "*", arity: 1, variadic: true, impl: arithmetic(func(a, b float64) (float64, error) {
			return a * b, nil
		}, nil)},
		{name: "/", arity: 1, variadic: true, impl: arithmetic(func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, runtime.DivisionByZero("/")
			}
			return a / b, nil
		}, func(a float64) (float64, error) {
			if a == 0 {
				return 0, runtime.DivisionByZero("/")
			}
			return 1 / a, nil
		})},
		{name: "%", arity: 2, variadic: true, impl: arithmetic(func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, runtime.DivisionByZero("%")
			}
			return math.Mod(a, b), nil
		}, nil)},
		{name: "=", arity: 2, variadic: true, impl: comparison(func(a, b float64) bool {
			return math.Abs(a-b) < numericEpsilon
		})},
		{name: "<", arity: 2, variadic: true, impl: comparison(func(a, b float64) bool { return a < b })},
		{name: "<=", arity: 2, variadic: true, impl: comparison(func(a, b float64) bool { return a <= b })},
		{name: ">", arity: 2, variadic: true, impl: comparison(func(a, b float64) bool { return a > b })},
		{name: ">=", arity: 2, variadic: true, impl: comparison(func(a, b float64) bool { return a >= b })},
		{name: "==", arity: 2, variadic: true, impl: builtinStrictEqual},
		{name: "concat", arity: 1, variadic: true, impl: builtinConcat},
		{name: "and", arity: 1, variadic: true, impl: logical(func(a, b bool) bool { return a && b })},
		{name: "or", arity: 1, variadic: true, impl: logical(func(a, b bool) bool { return a || b })},
		{name: "not", arity: 1, impl: builtinNot},
		{name: "nth", arity: 2, impl: builtinNth},
		{name: "append", arity: 2, impl: builtinAppend},
		{name: "list", arity: 0, variadic: true, impl: builtinList},
		{name: "begin", arity: 1, variadic: true, impl: builtinBegin},
		{name: "len", arity: 1, impl: builtinLen},
		{name: "print", arity: 0, variadic: true, impl: i.builtinPrint},
		{name: "read", arity: 0, impl: i.builtinRead},
		{name: "exit", arity: 0, variadic: true, maxArity: 1, impl: i.builtinExit},
	}
}

// builtinAdd folds left to right. A step adds when both sides coerce to
// numbers and concatenates their string forms otherwise.
func builtinAdd(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	acc, err := coerceAddOperand(args[0])
	if err != nil {
		return nil, err
	}
	for _, next := range args[1:] {
		a, errA := runtime.ToNumber(acc)
		b, errB := runtime.ToNumber(next)
		if errA == nil && errB == nil {
			acc = runtime.NumberValue{Val: a + b}
			continue
		}
		left, err := runtime.ToString(acc)
		if err != nil {
			return nil, err
		}
		right, err := runtime.ToString(next)
		if err != nil {
			return nil, err
		}
		acc = runtime.StringValue{Val: left + right}
	}
	return acc, nil
}

// coerceAddOperand applies the + policy to a lone operand: a number when it
// coerces, otherwise its string form. Lists and procedures are rejected.
func coerceAddOperand(val runtime.Value) (runtime.Value, error) {
	if n, err := runtime.ToNumber(val); err == nil {
		return runtime.NumberValue{Val: n}, nil
	}
	s, err := runtime.ToString(val)
	if err != nil {
		return nil, err
	}
	return runtime.StringValue{Val: s}, nil
}

// arithmetic builds a numeric left fold. unary handles the single-argument
// case; when nil the lone argument is returned as a number.
func arithmetic(op func(a, b float64) (float64, error), unary func(a float64) (float64, error)) runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		nums, err := numbers(args)
		if err != nil {
			return nil, err
		}
		if len(nums) == 1 {
			if unary == nil {
				return runtime.NumberValue{Val: nums[0]}, nil
			}
			v, err := unary(nums[0])
			if err != nil {
				return nil, err
			}
			return runtime.NumberValue{Val: v}, nil
		}
		acc := nums[0]
		for _, n := range nums[1:] {
			acc, err = op(acc, n)
			if err != nil {
				return nil, err
			}
		}
		return runtime.NumberValue{Val: acc}, nil
	}
}

// comparison checks cmp across every adjacent pair.
func comparison(cmp func(a, b float64) bool) runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		nums, err := numbers(args)
		if err != nil {
			return nil, err
		}
		for idx := 1; idx < len(nums); idx++ {
			if !cmp(nums[idx-1], nums[idx]) {
				return runtime.BoolValue{Val: false}, nil
			}
		}
		return runtime.BoolValue{Val: true}, nil
	}
}

func logical(op func(a, b bool) bool) runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		acc, err := runtime.ToBool(args[0])
		if err != nil {
			return nil, err
		}
		for _, arg := range args[1:] {
			b, err := runtime.ToBool(arg)
			if err != nil {
				return nil, err
			}
			acc = op(acc, b)
		}
		return runtime.BoolValue{Val: acc}, nil
	}
}

func numbers(args []runtime.Value) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, arg := range args {
		n, err := runtime.ToNumber(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func builtinStrictEqual(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	for idx := 1; idx < len(args); idx++ {
		if !runtime.Equal(args[idx-1], args[idx]) {
			return runtime.BoolValue{Val: false}, nil
		}
	}
	return runtime.BoolValue{Val: true}, nil
}

// builtinConcat joins lists when every argument is a list and strings
// otherwise.
func builtinConcat(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	allLists := true
	for _, arg := range args {
		if _, ok := arg.(runtime.ListValue); !ok {
			allLists = false
			break
		}
	}
	if allLists {
		var elements []runtime.Value
		for _, arg := range args {
			elements = append(elements, arg.(runtime.ListValue).Elements...)
		}
		return runtime.NewList(elements), nil
	}
	var b strings.Builder
	for _, arg := range args {
		s, err := runtime.ToString(arg)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
	}
	return runtime.StringValue{Val: b.String()}, nil
}

func builtinNot(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	b, err := runtime.ToBool(args[0])
	if err != nil {
		return nil, err
	}
	return runtime.BoolValue{Val: !b}, nil
}

// (nth index list)
func builtinNth(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	n, err := runtime.ToNumber(args[0])
	if err != nil {
		return nil, err
	}
	list, ok := args[1].(runtime.ListValue)
	if !ok {
		return nil, runtime.TypeMismatch("%s expects a list, got %s", ctx.Name, args[1].Kind())
	}
	// Range-check as a float: converting NaN or a huge value to int first
	// yields an arbitrary index.
	n = math.Trunc(n)
	if math.IsNaN(n) || n < 0 || n >= float64(len(list.Elements)) {
		return nil, runtime.IndexOutOfBounds(n)
	}
	return list.Elements[int(n)], nil
}

// (append elem list) returns a new list; the argument is left untouched.
func builtinAppend(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[1].(runtime.ListValue)
	if !ok {
		return nil, runtime.TypeMismatch("%s expects a list, got %s", ctx.Name, args[1].Kind())
	}
	elements := make([]runtime.Value, 0, len(list.Elements)+1)
	elements = append(elements, list.Elements...)
	elements = append(elements, args[0])
	return runtime.ListValue{Elements: elements}, nil
}

func builtinList(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return runtime.NewList(args), nil
}

func builtinBegin(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return args[len(args)-1], nil
}

func builtinLen(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.ListValue:
		return runtime.NumberValue{Val: float64(len(v.Elements))}, nil
	case runtime.StringValue:
		return runtime.NumberValue{Val: float64(utf8.RuneCountInString(v.Val))}, nil
	default:
		return nil, runtime.TypeMismatch("%s expects a list or string, got %s", ctx.Name, args[0].Kind())
	}
}

// print writes its arguments separated by spaces and returns the line.
func (i *Interpreter) builtinPrint(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	line := displayAll(args)
	if _, err := fmt.Fprintln(i.stdout, line); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return runtime.StringValue{Val: line}, nil
}

// read returns the next input line without its terminator. At end of input
// it returns whatever was left, possibly the empty string.
func (i *Interpreter) builtinRead(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
	line, err := i.stdin.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return runtime.StringValue{Val: line}, nil
}

func (i *Interpreter) builtinExit(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	code := 0
	if len(args) == 1 {
		n, err := runtime.ToNumber(args[0])
		if err != nil {
			return nil, err
		}
		code = int(n)
	}
	i.exit(code)
	return nil, &ExitError{Code: code}
}
