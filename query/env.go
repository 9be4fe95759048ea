package query

import "sort"

// Env maps identifiers to values for the duration of one evaluation. Values
// are copied in and out so no two bindings share list storage.
type Env struct {
	values map[string]Value
}

func newEnv() *Env {
	return &Env{values: make(map[string]Value)}
}

func (e *Env) Get(name string) (Value, bool) {
	val, ok := e.values[name]
	if !ok {
		return Value{}, false
	}
	return val.Clone(), true
}

// Set creates or overwrites the binding for name.
func (e *Env) Set(name string, val Value) {
	e.values[name] = val.Clone()
}

func (e *Env) Len() int { return len(e.values) }

// Names returns the bound identifiers in sorted order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
