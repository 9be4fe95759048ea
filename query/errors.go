package query

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every *Error reports exactly one of these through errors.Is.
var (
	ErrLexing             = errors.New("lexing error")
	ErrParsing            = errors.New("parse error")
	ErrVariableNotDefined = errors.New("variable not defined")
	ErrInvalidType        = errors.New("invalid type")
	ErrMath               = errors.New("math error")
	ErrEmptyProgram       = errors.New("empty program")
	ErrRecursionLimit     = errors.New("recursion limit exceeded")
)

// Error is the single failure type produced by the tokenizer, parser and
// evaluator.
type Error struct {
	Kind    error
	Message string
	Span    Span
	Pos     Position

	// Token is the offending token of a parse failure; nil at end of input.
	Token *Token

	// Name is the identifier or operator the failure is about, if any.
	Name      string
	CodeFrame string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Pos.Line > 0 {
		fmt.Fprintf(&b, " at %d:%d", e.Pos.Line, e.Pos.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(e.CodeFrame)
	}
	return b.String()
}

// Is matches the error's kind sentinel.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, span Span, message string) *Error {
	return &Error{Kind: kind, Message: message, Span: span}
}

func newSourceError(source string, kind error, span Span, message string) *Error {
	return attachSource(newError(kind, span, message), source)
}

// attachSource resolves the span against source so the error can render a
// position and code frame.
func attachSource(err *Error, source string) *Error {
	if err == nil || source == "" {
		return err
	}
	err.Pos = PositionOf(source, err.Span.Lo)
	err.CodeFrame = formatCodeFrame(source, err.Span)
	return err
}
