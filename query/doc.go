// Package query implements the vibequery expression engine. A program is a
// sequence of `;`-terminated statements evaluated in order; the value of the
// last statement is the program's result. The grammar supports:
//   - Number literals (`1`, `2.5`, `3.`) and double-quoted strings without escapes.
//   - Arithmetic with `+ - * / %`; `* / %` bind tighter than `+ -` and all are
//     left-associative. Parentheses group.
//   - Assignment `name = expr`, which binds globally and yields the value.
//   - Single-argument calls `name(expr)` against host-registered natives.
//   - List literals `[a, b, c]` and `[]`.
//   - `return expr;`, which echoes the value to the output sink.
//
// Comments beginning with `#` run to the end of the line. Every failure is
// reported as a *Error whose Kind matches one of the Err* sentinels.
package query
