package query

import (
	"math"
	"testing"
)

func TestValueInspect(t *testing.T) {
	printFn := NewBuiltin("print", builtinPrint)
	cases := []struct {
		value Value
		want  string
	}{
		{NewNone(), "None"},
		{Value{}, "None"},
		{NewNumber(16), "Number(16)"},
		{NewNumber(2.5), "Number(2.5)"},
		{NewNumber(math.Inf(1)), "Number(+Inf)"},
		{NewString("a\"b"), `String("a\"b")`},
		{NewList(nil), "List([])"},
		{NewList([]Value{NewNumber(1), NewString("x"), NewList([]Value{NewNone()})}), `List([Number(1), String("x"), List([None])])`},
		{printFn, "NativeFunction(print)"},
	}
	for _, tc := range cases {
		if got := tc.value.Inspect(); got != tc.want {
			t.Fatalf("inspect: got %q want %q", got, tc.want)
		}
	}
}

func TestValueString(t *testing.T) {
	cases := []struct {
		value Value
		want  string
	}{
		{NewNone(), "none"},
		{NewNumber(3), "3"},
		{NewNumber(0.25), "0.25"},
		{NewString("plain"), "plain"},
		{NewList([]Value{NewNumber(1), NewString("a")}), `[1, "a"]`},
		{NewBuiltin("print", builtinPrint), "<native print>"},
	}
	for _, tc := range cases {
		if got := tc.value.String(); got != tc.want {
			t.Fatalf("string: got %q want %q", got, tc.want)
		}
	}
}

func TestValueListIsolation(t *testing.T) {
	items := []Value{NewNumber(1)}
	list := NewList(items)
	items[0] = NewNumber(99)
	if list.List()[0].Number() != 1 {
		t.Fatalf("NewList should copy its input")
	}

	copyOut := list.List()
	copyOut[0] = NewNumber(5)
	if list.List()[0].Number() != 1 {
		t.Fatalf("List should return a copy")
	}
}

func TestValueEqual(t *testing.T) {
	a := NewList([]Value{NewNumber(1), NewString("x")})
	b := NewList([]Value{NewNumber(1), NewString("x")})
	if !a.Equal(b) {
		t.Fatalf("expected structurally equal lists")
	}
	if a.Equal(NewList([]Value{NewNumber(1)})) {
		t.Fatalf("lists of different length should differ")
	}
	if NewNumber(1).Equal(NewString("1")) {
		t.Fatalf("different kinds should differ")
	}

	p1 := NewBuiltin("print", builtinPrint)
	p2 := NewBuiltin("print", builtinPrint)
	if !p1.Equal(p1) || p1.Equal(p2) {
		t.Fatalf("native functions compare by registration")
	}
}

func TestEnvCopiesValues(t *testing.T) {
	env := newEnv()
	env.Set("x", NewList([]Value{NewNumber(1)}))
	got, ok := env.Get("x")
	if !ok {
		t.Fatalf("expected x to be bound")
	}
	if _, ok := env.Get("y"); ok {
		t.Fatalf("expected y to be unbound")
	}
	env.Set("a", NewNone())
	names := env.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "x" {
		t.Fatalf("unexpected names %v", names)
	}
	if env.Len() != 2 {
		t.Fatalf("expected 2 bindings, got %d", env.Len())
	}
	if got.Kind() != KindList || got.Len() != 1 {
		t.Fatalf("unexpected value %s", got.Inspect())
	}
}

func TestValueKindString(t *testing.T) {
	if KindNative.String() != "native function" || KindList.String() != "list" {
		t.Fatalf("unexpected kind names")
	}
}
