package ast

// Literal helpers.

func Num(value float64) *NumberLiteral {
	return NewNumberLiteral(value)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

func Sym(name string) *Symbol {
	return NewSymbol(name)
}

// Form helpers.

func L(elements ...Expression) *List {
	return NewList(elements)
}

func Call(callee string, args ...Expression) *List {
	elements := make([]Expression, 0, len(args)+1)
	elements = append(elements, Sym(callee))
	elements = append(elements, args...)
	return NewList(elements)
}

func Def(name string, value Expression) *List {
	return L(Sym(SymbolDef), Sym(name), value)
}

func Func(params []string, body Expression) *List {
	paramList := make([]Expression, 0, len(params))
	for _, p := range params {
		paramList = append(paramList, Sym(p))
	}
	return L(Sym(SymbolFunc), NewList(paramList), body)
}

func If(test, then, otherwise Expression) *List {
	return L(Sym(SymbolIf), test, then, otherwise)
}
