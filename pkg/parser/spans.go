package parser

import "fmt"

// Position is a 1-based line/column location in source text.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func (p Position) isZero() bool {
	return p.Line == 0 && p.Column == 0
}

// advance moves the position past r.
func (p Position) advance(r rune) Position {
	if r == '\n' {
		return Position{Line: p.Line + 1, Column: 1}
	}
	return Position{Line: p.Line, Column: p.Column + 1}
}

var startPosition = Position{Line: 1, Column: 1}
