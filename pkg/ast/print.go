package ast

import (
	"strconv"
	"strings"
)

// FormatNumber renders a number in the canonical decimal form shared by the
// printer and the runtime's number-to-string coercion.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Print renders an expression back to source text. Tokenizing and parsing
// the result yields a structurally equal tree.
func Print(expr Expression) string {
	var b strings.Builder
	writeExpression(&b, expr)
	return b.String()
}

func writeExpression(b *strings.Builder, expr Expression) {
	switch n := expr.(type) {
	case *NumberLiteral:
		b.WriteString(FormatNumber(n.Value))
	case *StringLiteral:
		b.WriteByte('"')
		b.WriteString(n.Value)
		b.WriteByte('"')
	case *BooleanLiteral:
		if n.Value {
			b.WriteString(TrueLiteral)
		} else {
			b.WriteString(FalseLiteral)
		}
	case *Symbol:
		b.WriteString(n.Name)
	case *List:
		b.WriteByte('(')
		for idx, el := range n.Elements {
			if idx > 0 {
				b.WriteByte(' ')
			}
			writeExpression(b, el)
		}
		b.WriteByte(')')
	case nil:
		b.WriteString("<nil>")
	default:
		b.WriteString("<" + string(n.NodeType()) + ">")
	}
}

// Equal reports whether two expression trees have the same shape and atoms.
func Equal(a, b Expression) bool {
	switch x := a.(type) {
	case *NumberLiteral:
		y, ok := b.(*NumberLiteral)
		return ok && x.Value == y.Value
	case *StringLiteral:
		y, ok := b.(*StringLiteral)
		return ok && x.Value == y.Value
	case *BooleanLiteral:
		y, ok := b.(*BooleanLiteral)
		return ok && x.Value == y.Value
	case *Symbol:
		y, ok := b.(*Symbol)
		return ok && x.Name == y.Name
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for idx := range x.Elements {
			if !Equal(x.Elements[idx], y.Elements[idx]) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}
