package parser

import "fmt"

// TokenKind classifies a lexical unit.
type TokenKind int

const (
	TokenLeftParen TokenKind = iota
	TokenRightParen
	TokenSymbol
	TokenNumber
	TokenString
)

func (k TokenKind) String() string {
	switch k {
	case TokenLeftParen:
		return "LeftParen"
	case TokenRightParen:
		return "RightParen"
	case TokenSymbol:
		return "Symbol"
	case TokenNumber:
		return "NumberLiteral"
	case TokenString:
		return "StringLiteral"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Token is an immutable lexical unit. Text holds the raw run for symbols and
// numbers and the unquoted contents for strings.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Position
}

func (t Token) String() string {
	switch t.Kind {
	case TokenLeftParen, TokenRightParen:
		return t.Kind.String()
	default:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	}
}

// Same reports whether two tokens have the same kind and text, ignoring
// their source positions.
func (t Token) Same(other Token) bool {
	return t.Kind == other.Kind && t.Text == other.Text
}

// Token constructors used by callers that build token streams by hand.

func LeftParen() Token  { return Token{Kind: TokenLeftParen, Text: "("} }
func RightParen() Token { return Token{Kind: TokenRightParen, Text: ")"} }

func SymbolToken(text string) Token { return Token{Kind: TokenSymbol, Text: text} }
func NumberToken(text string) Token { return Token{Kind: TokenNumber, Text: text} }
func StringToken(text string) Token { return Token{Kind: TokenString, Text: text} }
