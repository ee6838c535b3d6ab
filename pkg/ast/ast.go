package ast

type NodeType string

const (
	NodeNumberLiteral  NodeType = "NumberLiteral"
	NodeStringLiteral  NodeType = "StringLiteral"
	NodeBooleanLiteral NodeType = "BooleanLiteral"
	NodeSymbol         NodeType = "Symbol"
	NodeList           NodeType = "List"
)

// Reserved special-form heads. A list headed by one of these symbols is
// interpreted structurally; the head is never evaluated.
const (
	SymbolDef  = "def"
	SymbolFunc = "func"
	SymbolIf   = "if"
)

// Boolean literal spellings.
const (
	TrueLiteral  = "true"
	FalseLiteral = "false"
)

type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) isNode()              {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

// Atom is any leaf expression.
type Atom interface {
	Expression
	atomNode()
}

type atomMarker struct{}

func (atomMarker) atomNode() {}

// Atoms

type NumberLiteral struct {
	nodeImpl
	expressionMarker
	atomMarker

	Value float64 `json:"value"`
}

func NewNumberLiteral(value float64) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	atomMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker
	atomMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

type Symbol struct {
	nodeImpl
	expressionMarker
	atomMarker

	Name string `json:"name"`
}

func NewSymbol(name string) *Symbol {
	return &Symbol{nodeImpl: newNodeImpl(NodeSymbol), Name: name}
}

// List is the parenthesised form `(op arg1 arg2 ...)`.
type List struct {
	nodeImpl
	expressionMarker

	Elements []Expression `json:"elements"`
}

func NewList(elements []Expression) *List {
	return &List{nodeImpl: newNodeImpl(NodeList), Elements: elements}
}

// Head returns the first element of the list, or nil when the list is empty.
func (l *List) Head() Expression {
	if l == nil || len(l.Elements) == 0 {
		return nil
	}
	return l.Elements[0]
}

// Operands returns every element after the head.
func (l *List) Operands() []Expression {
	if l == nil || len(l.Elements) < 2 {
		return nil
	}
	return l.Elements[1:]
}

// SpecialForm reports the reserved head symbol of the list, if any.
func (l *List) SpecialForm() (string, bool) {
	sym, ok := l.Head().(*Symbol)
	if !ok {
		return "", false
	}
	switch sym.Name {
	case SymbolDef, SymbolFunc, SymbolIf:
		return sym.Name, true
	default:
		return "", false
	}
}
