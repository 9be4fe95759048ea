package query

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

type lexer struct {
	input  string
	offset int

	keepComments bool
	trace        io.Writer
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// NextToken yields the next significant token. Whitespace is always skipped
// and comments are skipped unless keepComments is set. At end of input it
// keeps returning an EOF token spanning the empty range at len(input).
func (l *lexer) NextToken() (Token, error) {
	tok, err := l.scan()
	if err != nil {
		return Token{}, err
	}
	if l.trace != nil && tok.Type != tokenEOF {
		fmt.Fprintf(l.trace, "tok: %s %s\n", tok, tok.Span)
	}
	return tok, nil
}

func (l *lexer) scan() (Token, error) {
	for {
		l.skipWhitespace()
		if l.offset >= len(l.input) {
			return Token{Type: tokenEOF, Span: Span{Lo: len(l.input), Hi: len(l.input)}}, nil
		}
		if l.input[l.offset] != '#' {
			break
		}
		start := l.offset
		l.skipComment()
		if l.keepComments {
			return l.makeToken(tokenComment, start), nil
		}
	}

	start := l.offset
	ch := l.input[l.offset]

	switch {
	case ch == '"':
		return l.readString()
	case isDigit(ch):
		return l.readNumber()
	case isIdentifierStart(ch):
		return l.readIdentifier(), nil
	}

	if tt, ok := punctuation[ch]; ok {
		l.offset++
		return l.makeToken(tt, start), nil
	}

	r, width := utf8.DecodeRuneInString(l.input[start:])
	return Token{}, newSourceError(l.input, ErrLexing, Span{Lo: start, Hi: start + width}, fmt.Sprintf("unexpected character %q", r))
}

var punctuation = map[byte]TokenType{
	'=': tokenAssign,
	'+': tokenPlus,
	'-': tokenMinus,
	'*': tokenAsterisk,
	'/': tokenSlash,
	'%': tokenPercent,
	'(': tokenLParen,
	')': tokenRParen,
	'[': tokenLBracket,
	']': tokenRBracket,
	',': tokenComma,
	';': tokenSemi,
}

func (l *lexer) makeToken(tt TokenType, start int) Token {
	return Token{Type: tt, Literal: l.input[start:l.offset], Span: Span{Lo: start, Hi: l.offset}}
}

func (l *lexer) skipWhitespace() {
	for l.offset < len(l.input) {
		switch l.input[l.offset] {
		case ' ', '\t', '\r', '\n':
			l.offset++
		default:
			return
		}
	}
}

func (l *lexer) skipComment() {
	for l.offset < len(l.input) && l.input[l.offset] != '\n' {
		l.offset++
	}
}

func (l *lexer) readIdentifier() Token {
	start := l.offset
	for l.offset < len(l.input) && isIdentifierByte(l.input[l.offset]) {
		l.offset++
	}
	tok := l.makeToken(tokenIdent, start)
	if tok.Literal == "return" {
		tok.Type = tokenReturn
	}
	return tok
}

// readNumber consumes digits, at most one '.', then more digits. There is no
// sign and no exponent.
func (l *lexer) readNumber() (Token, error) {
	start := l.offset
	for l.offset < len(l.input) && isDigit(l.input[l.offset]) {
		l.offset++
	}
	if l.offset < len(l.input) && l.input[l.offset] == '.' {
		l.offset++
		for l.offset < len(l.input) && isDigit(l.input[l.offset]) {
			l.offset++
		}
	}
	tok := l.makeToken(tokenNumber, start)
	value, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		lexErr := newSourceError(l.input, ErrLexing, tok.Span, fmt.Sprintf("number %s is out of range", tok.Literal))
		lexErr.Err = err
		return Token{}, lexErr
	}
	tok.Number = value
	return tok, nil
}

// readString consumes a double-quoted literal. Contents are taken verbatim;
// there are no escape sequences, so the literal ends at the next quote.
func (l *lexer) readString() (Token, error) {
	start := l.offset
	l.offset++
	for l.offset < len(l.input) && l.input[l.offset] != '"' {
		l.offset++
	}
	if l.offset >= len(l.input) {
		l.offset = start + 1
		return Token{}, newSourceError(l.input, ErrLexing, Span{Lo: start, Hi: len(l.input)}, "unterminated string")
	}
	l.offset++
	return Token{
		Type:    tokenString,
		Literal: l.input[start+1 : l.offset-1],
		Span:    Span{Lo: start, Hi: l.offset},
	}, nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentifierStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentifierByte(ch byte) bool {
	return isIdentifierStart(ch) || isDigit(ch)
}

// Tokenize runs the tokenizer over source and returns every significant
// token, stopping at the first lexing failure.
func Tokenize(source string) ([]Token, error) {
	l := newLexer(source)
	var out []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return out, err
		}
		if tok.Type == tokenEOF {
			return out, nil
		}
		out = append(out, tok)
	}
}
