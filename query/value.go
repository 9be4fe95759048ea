package query

type ValueKind int

const (
	KindNone ValueKind = iota
	KindNumber
	KindString
	KindList
	KindNative
)

func (k ValueKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindNative:
		return "native function"
	default:
		return "unknown"
	}
}

// Value is a runtime datum. The zero Value is None.
type Value struct {
	kind ValueKind
	data any
}

// BuiltinFunc is the host side of a native function. It always receives a
// one-element argument list from script calls.
type BuiltinFunc func(exec *Execution, args []Value) (Value, error)

// Builtin is the opaque handle stored in a native function value. Scripts can
// only reach it by name through the environment.
type Builtin struct {
	name string
	fn   BuiltinFunc
}

// Name returns the identifier the builtin was registered under.
func (b *Builtin) Name() string { return b.name }

func NewNone() Value              { return Value{kind: KindNone} }
func NewNumber(n float64) Value   { return Value{kind: KindNumber, data: n} }
func NewString(s string) Value    { return Value{kind: KindString, data: s} }
func NewList(items []Value) Value { return Value{kind: KindList, data: cloneValues(items)} }

// NewBuiltin wraps fn as a native function value named name.
func NewBuiltin(name string, fn BuiltinFunc) Value {
	return Value{kind: KindNative, data: &Builtin{name: name, fn: fn}}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) Number() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.data.(float64)
}

func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.data.(string)
}

// List returns a copy of the list's elements.
func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	return cloneValues(v.data.([]Value))
}

func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.data.([]Value))
	case KindString:
		return len(v.data.(string))
	default:
		return 0
	}
}

func (v Value) Builtin() *Builtin {
	if v.kind != KindNative {
		return nil
	}
	return v.data.(*Builtin)
}

// Clone returns a value that shares no list storage with v.
func (v Value) Clone() Value {
	if v.kind != KindList {
		return v
	}
	return Value{kind: KindList, data: cloneValues(v.data.([]Value))}
}

func cloneValues(items []Value) []Value {
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// Equal reports structural equality. Native functions are equal when they are
// the same registration.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindNumber:
		return v.data.(float64) == other.data.(float64)
	case KindString:
		return v.data.(string) == other.data.(string)
	case KindList:
		a, b := v.data.([]Value), other.data.([]Value)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case KindNative:
		return v.data.(*Builtin) == other.data.(*Builtin)
	default:
		return false
	}
}
