package interpreter

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"rusht/interpreter-go/pkg/ast"
	"rusht/interpreter-go/pkg/parser"
	"rusht/interpreter-go/pkg/runtime"
)

// Interpreter drives evaluation of rusht expressions against a root
// environment populated with the prelude.
type Interpreter struct {
	global *runtime.Environment
	exit   func(code int)
	stdin  *bufio.Reader
	stdout io.Writer
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithExitHandler replaces the action taken by the exit builtin. The default
// is os.Exit. When the handler returns, evaluation unwinds with *ExitError.
func WithExitHandler(fn func(code int)) Option {
	return func(i *Interpreter) {
		if fn != nil {
			i.exit = fn
		}
	}
}

// WithInput sets the reader consumed by the read builtin.
func WithInput(r io.Reader) Option {
	return func(i *Interpreter) {
		if r != nil {
			i.stdin = bufio.NewReader(r)
		}
	}
}

// WithOutput sets the writer used by the print builtin.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		if w != nil {
			i.stdout = w
		}
	}
}

// New returns an interpreter whose global environment holds the prelude.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		global: runtime.NewEnvironment(nil),
		exit:   os.Exit,
		stdin:  bufio.NewReader(os.Stdin),
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.registerPrelude(i.global)
	return i
}

// NewRootEnvironment builds a fresh environment pre-populated with the
// prelude, bound to a default interpreter.
func NewRootEnvironment() *runtime.Environment {
	return New().GlobalEnvironment()
}

// GlobalEnvironment returns the interpreter's root environment.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.global
}

// ExitError reports that the exit builtin ran and its handler returned.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit with code %d", e.Code)
}

// Run tokenizes, parses and evaluates a single top-level form in the global
// environment. Definitions persist across calls.
func (i *Interpreter) Run(source string) (runtime.Value, error) {
	return i.RunIn(source, i.global)
}

// RunIn is Run against an explicit environment.
func (i *Interpreter) RunIn(source string, env *runtime.Environment) (runtime.Value, error) {
	tokens, err := parser.Tokenize(source)
	if err != nil {
		return nil, err
	}
	expr, err := parser.Parse(tokens)
	if err != nil {
		return nil, err
	}
	return i.Evaluate(expr, env)
}

// RunProgram evaluates every top-level form of source in order and returns
// the last value. An empty program evaluates to the empty list.
func (i *Interpreter) RunProgram(source string) (runtime.Value, error) {
	forms, err := parser.ParseProgramSource(source)
	if err != nil {
		return nil, err
	}
	return i.EvaluateProgram(forms, i.global)
}

// EvaluateProgram evaluates parsed forms in order, stopping at the first
// failure.
func (i *Interpreter) EvaluateProgram(forms []ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	var last runtime.Value = runtime.ListValue{}
	for _, form := range forms {
		val, err := i.Evaluate(form, env)
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}

// RunFile reads and evaluates a source file.
func (i *Interpreter) RunFile(path string) (runtime.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	val, err := i.RunProgram(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return val, nil
}

// Evaluate reduces an expression to a value in env.
func (i *Interpreter) Evaluate(expr ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	if env == nil {
		env = i.global
	}
	return i.evaluateExpression(expr, env)
}
