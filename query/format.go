package query

import "strings"

const continuationIndent = "    "

// Format returns source in canonical layout: one statement per line, single
// spaces around operators and `=`, no padding inside brackets or parentheses,
// and `, ` between list elements. Comments are kept; a comment that followed
// code on the same line stays there. Runs of blank lines between statements
// collapse to one. Source that fails to lex or parse is returned as an error.
func Format(source string) (string, error) {
	if _, err := Parse(source); err != nil {
		return "", err
	}

	f := &formatter{source: source}
	lex := newLexer(source)
	lex.keepComments = true
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return "", err
		}
		if tok.Type == tokenEOF {
			break
		}
		f.write(tok)
	}
	f.flush()
	return f.out.String(), nil
}

type formatter struct {
	source string
	out    strings.Builder
	line   strings.Builder

	prev        *Token
	prevCode    *Token
	lineHasCode bool
	lineDone    bool
	inStatement bool
}

func (f *formatter) write(tok Token) {
	newlines := 0
	if f.prev != nil {
		newlines = strings.Count(f.source[f.prev.Span.Hi:tok.Span.Lo], "\n")
	}
	text := f.source[tok.Span.Lo:tok.Span.Hi]
	trailing := f.prev != nil && newlines == 0 && f.line.Len() > 0

	if tok.Type == tokenComment {
		if trailing {
			f.line.WriteString(" ")
			f.line.WriteString(text)
			f.flush()
		} else {
			f.flush()
			f.startLine(newlines)
			f.line.WriteString(text)
			f.flush()
		}
		f.prev = &tok
		return
	}

	if f.lineDone {
		f.flush()
	}
	if f.line.Len() == 0 {
		f.startLine(newlines)
	} else if f.lineHasCode && needsSpace(f.prevCode, tok) {
		f.line.WriteByte(' ')
	}
	f.line.WriteString(text)
	f.lineHasCode = true

	if tok.Type == tokenSemi {
		f.inStatement = false
		f.lineDone = true
	} else {
		f.inStatement = true
	}
	f.prev = &tok
	f.prevCode = &tok
}

// startLine opens a fresh output line, keeping one blank line where the
// source had any between statements, and indenting continuation lines.
func (f *formatter) startLine(newlines int) {
	if f.inStatement {
		f.line.WriteString(continuationIndent)
		return
	}
	if newlines >= 2 && f.out.Len() > 0 {
		f.out.WriteByte('\n')
	}
}

func (f *formatter) flush() {
	if f.line.Len() > 0 {
		f.out.WriteString(strings.TrimRight(f.line.String(), " "))
		f.out.WriteByte('\n')
		f.line.Reset()
	}
	f.lineHasCode = false
	f.lineDone = false
}

func needsSpace(prev *Token, tok Token) bool {
	if prev == nil {
		return false
	}
	switch prev.Type {
	case tokenLParen, tokenLBracket:
		return false
	}
	switch tok.Type {
	case tokenRParen, tokenRBracket, tokenComma, tokenSemi:
		return false
	case tokenLParen:
		return prev.Type != tokenIdent
	}
	return true
}
