package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var numberPattern = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

// Tokenize splits source text into tokens in source order. Parentheses are
// always single-character tokens, a double-quoted run is a string literal
// taken verbatim, and every other maximal run of non-delimiter characters is
// a number literal when it reads as a decimal number and a symbol otherwise.
func Tokenize(source string) ([]Token, error) {
	tokens := make([]Token, 0)
	runes := []rune(source)
	pos := startPosition

	for idx := 0; idx < len(runes); {
		r := runes[idx]
		switch {
		case unicode.IsSpace(r):
			pos = pos.advance(r)
			idx++
		case r == '(':
			tokens = append(tokens, Token{Kind: TokenLeftParen, Text: "(", Pos: pos})
			pos = pos.advance(r)
			idx++
		case r == ')':
			tokens = append(tokens, Token{Kind: TokenRightParen, Text: ")", Pos: pos})
			pos = pos.advance(r)
			idx++
		case r == '"':
			start := pos
			pos = pos.advance(r)
			idx++
			var b strings.Builder
			closed := false
			for idx < len(runes) {
				c := runes[idx]
				pos = pos.advance(c)
				idx++
				if c == '"' {
					closed = true
					break
				}
				b.WriteRune(c)
			}
			if !closed {
				return nil, &LexError{Kind: LexUnterminatedString, Pos: start}
			}
			tokens = append(tokens, Token{Kind: TokenString, Text: b.String(), Pos: start})
		default:
			start := pos
			begin := idx
			for idx < len(runes) && !isDelimiter(runes[idx]) {
				pos = pos.advance(runes[idx])
				idx++
			}
			text := string(runes[begin:idx])
			kind := TokenSymbol
			if isNumberLiteral(text) {
				kind = TokenNumber
			}
			tokens = append(tokens, Token{Kind: kind, Text: text, Pos: start})
		}
	}
	return tokens, nil
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '"'
}

// isNumberLiteral accepts decimal texts that also parse as a finite float64;
// an out-of-range literal such as 1e999 stays a symbol.
func isNumberLiteral(text string) bool {
	if !numberPattern.MatchString(text) {
		return false
	}
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}
