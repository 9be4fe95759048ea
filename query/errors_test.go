package query

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestErrorRendersPositionAndCodeFrame(t *testing.T) {
	engine := MustNewEngine(Config{Output: io.Discard})
	_, err := engine.Evaluate(context.Background(), "1 / 0;")
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "math error at 1:5: division by zero\n" +
		"  --> line 1, column 5\n" +
		" 1 | 1 / 0;\n" +
		"   |     ^"
	if err.Error() != want {
		t.Fatalf("unexpected error rendering:\n%s\nwant:\n%s", err.Error(), want)
	}
}

func TestErrorCodeFrameOnLaterLine(t *testing.T) {
	source := "x = 1;\ny = missing + 1;\n"
	engine := MustNewEngine(Config{Output: io.Discard})
	_, err := engine.Evaluate(context.Background(), source)
	var qerr *Error
	if !errors.As(err, &qerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if qerr.Pos != (Position{Line: 2, Column: 5}) {
		t.Fatalf("unexpected position %+v", qerr.Pos)
	}
	if qerr.Span != (Span{Lo: 11, Hi: 18}) {
		t.Fatalf("unexpected span %v", qerr.Span)
	}
	if !strings.Contains(qerr.CodeFrame, " 2 | y = missing + 1;") {
		t.Fatalf("code frame missing source line:\n%s", qerr.CodeFrame)
	}
	if !strings.HasSuffix(qerr.CodeFrame, "    ^^^^^^^") {
		t.Fatalf("code frame missing caret run:\n%s", qerr.CodeFrame)
	}
}

func TestErrorKindsAreDistinct(t *testing.T) {
	kinds := []error{ErrLexing, ErrParsing, ErrVariableNotDefined, ErrInvalidType, ErrMath, ErrEmptyProgram, ErrRecursionLimit}
	for i, a := range kinds {
		err := &Error{Kind: a}
		for j, b := range kinds {
			if got := errors.Is(err, b); got != (i == j) {
				t.Fatalf("errors.Is(%v, %v) = %v", a, b, got)
			}
		}
	}
}

func TestParseErrorCarriesOffendingToken(t *testing.T) {
	_, err := Parse("x = ;")
	var qerr *Error
	if !errors.As(err, &qerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if qerr.Token == nil || qerr.Token.String() != ";" {
		t.Fatalf("expected offending ';' token, got %v", qerr.Token)
	}

	_, err = Parse("x = 1")
	if !errors.As(err, &qerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if qerr.Token != nil {
		t.Fatalf("expected no token at end of input, got %v", qerr.Token)
	}
	if !strings.Contains(qerr.Message, "end of input") {
		t.Fatalf("expected end of input in message, got %q", qerr.Message)
	}
}

func TestErrorWithoutSourceOmitsFrame(t *testing.T) {
	err := newError(ErrMath, Span{Lo: 0, Hi: 1}, "division by zero")
	if err.Error() != "math error: division by zero" {
		t.Fatalf("unexpected rendering %q", err.Error())
	}
}

func TestCodeFrameClampsToLine(t *testing.T) {
	frame := formatCodeFrame("ab\ncd", Span{Lo: 1, Hi: 5})
	if !strings.HasSuffix(frame, " |  ^") {
		t.Fatalf("expected caret clamped to the first line:\n%s", frame)
	}
	frame = formatCodeFrame("abc", Span{Lo: 3, Hi: 3})
	if !strings.HasSuffix(frame, " |    ^") {
		t.Fatalf("expected a single caret at end of input:\n%s", frame)
	}
}
