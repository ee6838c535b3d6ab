package parser

import "fmt"

// LexErrorKind enumerates tokenizer failures.
type LexErrorKind int

const (
	LexUnterminatedString LexErrorKind = iota
)

func (k LexErrorKind) String() string {
	switch k {
	case LexUnterminatedString:
		return "UnterminatedString"
	default:
		return fmt.Sprintf("LexErrorKind(%d)", int(k))
	}
}

// LexError reports a failure to split source text into tokens.
type LexError struct {
	Kind LexErrorKind
	Pos  Position
}

func (e *LexError) Error() string {
	switch e.Kind {
	case LexUnterminatedString:
		return fmt.Sprintf("lex error: unterminated string starting at %s", e.Pos)
	default:
		return fmt.Sprintf("lex error: %s at %s", e.Kind, e.Pos)
	}
}

// ParseErrorKind enumerates parser failures.
type ParseErrorKind int

const (
	ParseUnexpectedEOF ParseErrorKind = iota
	ParseUnmatchedParen
	ParseTrailingTokens
)

func (k ParseErrorKind) String() string {
	switch k {
	case ParseUnexpectedEOF:
		return "UnexpectedEof"
	case ParseUnmatchedParen:
		return "UnmatchedParen"
	case ParseTrailingTokens:
		return "TrailingTokens"
	default:
		return fmt.Sprintf("ParseErrorKind(%d)", int(k))
	}
}

// ParseError reports a malformed token stream. Pos is zero when the stream
// was built without source positions.
type ParseError struct {
	Kind ParseErrorKind
	Pos  Position
}

func (e *ParseError) Error() string {
	var msg string
	switch e.Kind {
	case ParseUnexpectedEOF:
		msg = "unexpected end of input"
	case ParseUnmatchedParen:
		msg = "unmatched closing parenthesis"
	case ParseTrailingTokens:
		msg = "unexpected input after expression"
	default:
		msg = e.Kind.String()
	}
	if e.Pos.isZero() {
		return "parse error: " + msg
	}
	return fmt.Sprintf("parse error: %s at %s", msg, e.Pos)
}
