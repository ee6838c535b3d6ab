package interpreter

import (
	"fmt"

	"rusht/interpreter-go/pkg/ast"
	"rusht/interpreter-go/pkg/runtime"
)

// evaluateExpression dispatches on the node type.
func (i *Interpreter) evaluateExpression(node ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return runtime.NumberValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.BooleanLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case *ast.Symbol:
		return env.Get(n.Name)
	case *ast.List:
		return i.evaluateList(n, env)
	case nil:
		return nil, fmt.Errorf("cannot evaluate nil expression")
	default:
		return nil, fmt.Errorf("unsupported expression type: %s", n.NodeType())
	}
}

func (i *Interpreter) evaluateList(list *ast.List, env *runtime.Environment) (runtime.Value, error) {
	if len(list.Elements) == 0 {
		return runtime.ListValue{}, nil
	}
	if form, ok := list.SpecialForm(); ok {
		switch form {
		case ast.SymbolDef:
			return i.evaluateDef(list, env)
		case ast.SymbolFunc:
			return i.evaluateFunc(list, env)
		case ast.SymbolIf:
			return i.evaluateIf(list, env)
		}
	}
	return i.evaluateCall(list, env)
}

// (def name value)
func (i *Interpreter) evaluateDef(list *ast.List, env *runtime.Environment) (runtime.Value, error) {
	operands := list.Operands()
	if len(operands) != 2 {
		return nil, runtime.ArityMismatch(ast.SymbolDef, 2, len(operands), false)
	}
	name, ok := operands[0].(*ast.Symbol)
	if !ok {
		return nil, runtime.TypeMismatch("def expects a symbol name, got %s", ast.Print(operands[0]))
	}
	val, err := i.evaluateExpression(operands[1], env)
	if err != nil {
		return nil, err
	}
	env.Define(name.Name, val)
	return val, nil
}

// (func (params...) body)
func (i *Interpreter) evaluateFunc(list *ast.List, env *runtime.Environment) (runtime.Value, error) {
	operands := list.Operands()
	if len(operands) != 2 {
		return nil, runtime.ArityMismatch(ast.SymbolFunc, 2, len(operands), false)
	}
	paramList, ok := operands[0].(*ast.List)
	if !ok {
		return nil, runtime.TypeMismatch("func expects a parameter list, got %s", ast.Print(operands[0]))
	}
	params := make([]string, 0, len(paramList.Elements))
	seen := make(map[string]struct{}, len(paramList.Elements))
	for _, el := range paramList.Elements {
		sym, ok := el.(*ast.Symbol)
		if !ok {
			return nil, runtime.TypeMismatch("func parameter must be a symbol, got %s", ast.Print(el))
		}
		if _, dup := seen[sym.Name]; dup {
			return nil, runtime.TypeMismatch("duplicate parameter '%s'", sym.Name)
		}
		seen[sym.Name] = struct{}{}
		params = append(params, sym.Name)
	}
	return &runtime.LambdaValue{Params: params, Body: operands[1], Closure: env}, nil
}

// (if test then else): only the selected branch is evaluated.
func (i *Interpreter) evaluateIf(list *ast.List, env *runtime.Environment) (runtime.Value, error) {
	operands := list.Operands()
	if len(operands) != 3 {
		return nil, runtime.ArityMismatch(ast.SymbolIf, 3, len(operands), false)
	}
	testVal, err := i.evaluateExpression(operands[0], env)
	if err != nil {
		return nil, err
	}
	truthy, err := runtime.ToBool(testVal)
	if err != nil {
		return nil, err
	}
	if truthy {
		return i.evaluateExpression(operands[1], env)
	}
	return i.evaluateExpression(operands[2], env)
}

func (i *Interpreter) evaluateCall(list *ast.List, env *runtime.Environment) (runtime.Value, error) {
	head := list.Head()
	calleeVal, err := i.evaluateExpression(head, env)
	if err != nil {
		return nil, err
	}
	switch calleeVal.(type) {
	case runtime.NativeFunctionValue, *runtime.LambdaValue:
	default:
		return nil, runtime.NotCallable(calleeVal)
	}
	operands := list.Operands()
	args := make([]runtime.Value, 0, len(operands))
	for _, argExpr := range operands {
		val, err := i.evaluateExpression(argExpr, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	name := ""
	if sym, ok := head.(*ast.Symbol); ok {
		name = sym.Name
	}
	return i.callFunction(name, calleeVal, args)
}

// callFunction applies a procedure value to already evaluated arguments.
func (i *Interpreter) callFunction(name string, callee runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch fn := callee.(type) {
	case runtime.NativeFunctionValue:
		if err := fn.CheckArity(len(args)); err != nil {
			return nil, err
		}
		ctx := &runtime.NativeCallContext{Name: fn.Name}
		return fn.Impl(ctx, args)
	case *runtime.LambdaValue:
		return i.invokeLambda(name, fn, args)
	default:
		return nil, runtime.NotCallable(callee)
	}
}

// invokeLambda binds arguments in a fresh frame whose parent is the
// lambda's captured environment, not the caller's.
func (i *Interpreter) invokeLambda(name string, fn *runtime.LambdaValue, args []runtime.Value) (runtime.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, runtime.ArityMismatch(name, len(fn.Params), len(args), false)
	}
	localEnv := runtime.NewEnvironment(fn.Closure)
	for idx, param := range fn.Params {
		localEnv.Define(param, args[idx])
	}
	return i.evaluateExpression(fn.Body, localEnv)
}
