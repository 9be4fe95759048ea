package query

import "fmt"

// builtinPrint writes the debug rendering of each argument on its own line
// and returns None.
func builtinPrint(exec *Execution, args []Value) (Value, error) {
	out := exec.Output()
	if out == nil {
		return NewNone(), nil
	}
	for _, arg := range args {
		if _, err := fmt.Fprintln(out, arg.Inspect()); err != nil {
			return NewNone(), fmt.Errorf("print: %w", err)
		}
	}
	return NewNone(), nil
}
