package parser

import (
	"fmt"
	"strconv"

	"rusht/interpreter-go/pkg/ast"
)

// Parse builds the expression tree for exactly one top-level form. The whole
// token sequence must be consumed by that form.
func Parse(tokens []Token) (ast.Expression, error) {
	p := &tokenParser{tokens: tokens}
	if len(tokens) == 0 {
		return nil, &ParseError{Kind: ParseUnexpectedEOF}
	}
	expr, err := p.parseForm()
	if err != nil {
		return nil, err
	}
	if next, ok := p.peek(); ok {
		if next.Kind == TokenRightParen {
			return nil, &ParseError{Kind: ParseUnmatchedParen, Pos: next.Pos}
		}
		return nil, &ParseError{Kind: ParseTrailingTokens, Pos: next.Pos}
	}
	return expr, nil
}

// ParseProgram builds one expression tree per top-level form, in order. An
// empty token sequence yields an empty program.
func ParseProgram(tokens []Token) ([]ast.Expression, error) {
	p := &tokenParser{tokens: tokens}
	forms := make([]ast.Expression, 0)
	for {
		if _, ok := p.peek(); !ok {
			return forms, nil
		}
		expr, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, expr)
	}
}

// ParseSource tokenizes and parses a single top-level form.
func ParseSource(source string) (ast.Expression, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// ParseProgramSource tokenizes and parses every top-level form in source.
func ParseProgramSource(source string) ([]ast.Expression, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return ParseProgram(tokens)
}

type tokenParser struct {
	tokens []Token
	index  int
}

func (p *tokenParser) peek() (Token, bool) {
	if p.index >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.index], true
}

func (p *tokenParser) next() (Token, bool) {
	tok, ok := p.peek()
	if ok {
		p.index++
	}
	return tok, ok
}

// lastPos is the position of the final token, used to place end-of-input
// errors.
func (p *tokenParser) lastPos() Position {
	if len(p.tokens) == 0 {
		return Position{}
	}
	return p.tokens[len(p.tokens)-1].Pos
}

func (p *tokenParser) parseForm() (ast.Expression, error) {
	tok, ok := p.next()
	if !ok {
		return nil, &ParseError{Kind: ParseUnexpectedEOF, Pos: p.lastPos()}
	}
	switch tok.Kind {
	case TokenLeftParen:
		return p.parseList()
	case TokenRightParen:
		return nil, &ParseError{Kind: ParseUnmatchedParen, Pos: tok.Pos}
	default:
		return parseAtom(tok)
	}
}

func (p *tokenParser) parseList() (ast.Expression, error) {
	elements := make([]ast.Expression, 0)
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, &ParseError{Kind: ParseUnexpectedEOF, Pos: p.lastPos()}
		}
		if tok.Kind == TokenRightParen {
			p.index++
			return ast.NewList(elements), nil
		}
		el, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
}

func parseAtom(tok Token) (ast.Expression, error) {
	switch tok.Kind {
	case TokenNumber:
		value, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return ast.NewSymbol(tok.Text), nil
		}
		return ast.NewNumberLiteral(value), nil
	case TokenString:
		return ast.NewStringLiteral(tok.Text), nil
	case TokenSymbol:
		switch tok.Text {
		case ast.TrueLiteral:
			return ast.NewBooleanLiteral(true), nil
		case ast.FalseLiteral:
			return ast.NewBooleanLiteral(false), nil
		default:
			return ast.NewSymbol(tok.Text), nil
		}
	default:
		return nil, fmt.Errorf("parser: unexpected token %s", tok)
	}
}
