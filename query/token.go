package query

import "fmt"

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenEOF TokenType = "EOF"

	tokenIdent   TokenType = "IDENT"
	tokenNumber  TokenType = "NUMBER"
	tokenString  TokenType = "STRING"
	tokenReturn  TokenType = "RETURN"
	tokenComment TokenType = "COMMENT"

	tokenAssign   TokenType = "="
	tokenPlus     TokenType = "+"
	tokenMinus    TokenType = "-"
	tokenAsterisk TokenType = "*"
	tokenSlash    TokenType = "/"
	tokenPercent  TokenType = "%"
	tokenLParen   TokenType = "("
	tokenRParen   TokenType = ")"
	tokenLBracket TokenType = "["
	tokenRBracket TokenType = "]"
	tokenComma    TokenType = ","
	tokenSemi     TokenType = ";"
)

// Token is one classified lexical unit. Literal holds the identifier name,
// the raw string contents (without quotes) or the number's source text;
// Number holds the parsed value of a NUMBER token.
type Token struct {
	Type    TokenType
	Literal string
	Number  float64
	Span    Span
}

func (t Token) String() string {
	switch t.Type {
	case tokenIdent, tokenNumber:
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	case tokenString:
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	default:
		return string(t.Type)
	}
}

// Span is a half-open byte range [Lo, Hi) into the source.
type Span struct {
	Lo int
	Hi int
}

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	return Span{Lo: min(s.Lo, other.Lo), Hi: max(s.Hi, other.Hi)}
}

// Len reports the number of bytes covered.
func (s Span) Len() int { return s.Hi - s.Lo }

func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Lo, s.Hi)
}

// Position is a 1-based line and column derived from a byte offset.
type Position struct {
	Line   int
	Column int
}

// PositionOf converts a byte offset into a line/column pair. Columns count
// bytes, matching the byte-oriented spans produced by the tokenizer.
func PositionOf(source string, offset int) Position {
	if offset > len(source) {
		offset = len(source)
	}
	if offset < 0 {
		offset = 0
	}
	pos := Position{Line: 1, Column: 1}
	for i := 0; i < offset; i++ {
		if source[i] == '\n' {
			pos.Line++
			pos.Column = 1
			continue
		}
		pos.Column++
	}
	return pos
}

func tokenLabel(tt TokenType) string {
	switch tt {
	case tokenEOF:
		return "end of input"
	case tokenIdent:
		return "identifier"
	case tokenNumber:
		return "number"
	case tokenString:
		return "string"
	case tokenReturn:
		return "'return'"
	case tokenComment:
		return "comment"
	default:
		return fmt.Sprintf("%q", string(tt))
	}
}
