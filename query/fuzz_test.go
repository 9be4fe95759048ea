package query

import (
	"context"
	"errors"
	"io"
	"testing"
)

func FuzzCompileDoesNotPanic(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("x = 5; y = x + 3; y * 2;"))
	f.Add([]byte("print([1, [2], \"a\"]);"))
	f.Add([]byte("x = (1 + ;"))
	f.Add([]byte("\"unterminated"))
	f.Add([]byte("return return;"))

	f.Fuzz(func(t *testing.T, raw []byte) {
		engine := MustNewEngine(Config{Output: io.Discard})
		_, _ = engine.Compile(string(raw))
	})
}

func FuzzEvaluateReportsTypedErrors(f *testing.F) {
	f.Add("x = 1 / 0;")
	f.Add("y;")
	f.Add("[1, 2] + 3;")
	f.Add("x = 2; x(1);")
	f.Add("a = (b = 2) * b;")

	kinds := []error{ErrLexing, ErrParsing, ErrVariableNotDefined, ErrInvalidType, ErrMath, ErrEmptyProgram, ErrRecursionLimit}
	f.Fuzz(func(t *testing.T, source string) {
		if len(source) > 4096 {
			source = source[:4096]
		}
		engine := MustNewEngine(Config{Output: io.Discard})
		_, err := engine.Evaluate(context.Background(), source)
		if err == nil {
			return
		}
		for _, kind := range kinds {
			if errors.Is(err, kind) {
				return
			}
		}
		t.Fatalf("untyped error for %q: %v", source, err)
	})
}

func FuzzFormatIsIdempotent(f *testing.F) {
	f.Add("x=1;y=x+2;")
	f.Add("# c\nprint( [1,2] ); # t\n")
	f.Add("x = 1 + # c\n2;")

	f.Fuzz(func(t *testing.T, source string) {
		first, err := Format(source)
		if err != nil {
			return
		}
		second, err := Format(first)
		if err != nil {
			t.Fatalf("formatted output no longer parses: %v\n%s", err, first)
		}
		if first != second {
			t.Fatalf("format not idempotent\nfirst:  %q\nsecond: %q", first, second)
		}
	})
}
