package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mgomes/vibequery/query"
)

type lintWarning struct {
	Span    query.Span
	Pos     query.Position
	Message string
}

func analyzeCommand(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("vq analyze: script path required")
	}

	scriptPath, err := filepath.Abs(remaining[0])
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	input, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	engine := query.MustNewEngine(query.Config{})
	program, err := engine.Compile(string(input))
	if err != nil {
		return fmt.Errorf("analysis compile failed: %w", err)
	}

	warnings := analyzeProgram(program, builtinNames(engine))
	if len(warnings) == 0 {
		fmt.Println("No issues found")
		return nil
	}

	for _, warning := range warnings {
		fmt.Printf("%s:%d:%d: %s\n", scriptPath, warning.Pos.Line, warning.Pos.Column, warning.Message)
	}

	return fmt.Errorf("analysis found %d issue(s)", len(warnings))
}

func builtinNames(engine *query.Engine) map[string]struct{} {
	names := make(map[string]struct{})
	for name := range engine.Builtins() {
		names[name] = struct{}{}
	}
	return names
}

type assignment struct {
	name string
	span query.Span
	read bool
}

// analyzer tracks bindings in evaluation order: an assignment's value is
// visited before its name is bound, and a call's argument before its callee.
type analyzer struct {
	builtins map[string]struct{}
	defined  map[string]struct{}
	literals map[string]query.ValueKind
	pending  map[string]*assignment
	warnings []lintWarning
}

func analyzeProgram(program *query.Program, builtins map[string]struct{}) []lintWarning {
	a := &analyzer{
		builtins: builtins,
		defined:  make(map[string]struct{}),
		literals: make(map[string]query.ValueKind),
		pending:  make(map[string]*assignment),
	}

	for i, stmt := range program.Statements {
		a.walk(stmt)

		// A returned value is emitted and the last statement's value is the
		// program result, so an assignment in either position is used.
		target := stmt
		ret, returned := stmt.(*query.ReturnExpr)
		if returned {
			target = ret.Value
		}
		if assign, ok := target.(*query.AssignExpr); ok && (returned || i == len(program.Statements)-1) {
			if rec := a.pending[assign.Name]; rec != nil {
				rec.read = true
			}
		}
	}
	for _, rec := range a.pending {
		if !rec.read {
			a.warn(rec.span, fmt.Sprintf("value assigned to %s is never used", rec.name))
		}
	}

	source := program.Source()
	for i := range a.warnings {
		a.warnings[i].Pos = query.PositionOf(source, a.warnings[i].Span.Lo)
	}
	sort.SliceStable(a.warnings, func(i, j int) bool {
		return a.warnings[i].Span.Lo < a.warnings[j].Span.Lo
	})
	return a.warnings
}

func (a *analyzer) walk(node query.Node) {
	query.Inspect(node, func(n query.Node) bool {
		switch typed := n.(type) {
		case *query.Identifier:
			a.read(typed.Name, typed.Span())
		case *query.AssignExpr:
			a.walk(typed.Value)
			a.assign(typed)
			return false
		case *query.CallExpr:
			a.walk(typed.Arg)
			a.call(typed)
			return false
		case *query.BinaryExpr:
			a.checkDivisor(typed)
		}
		return true
	})
}

func (a *analyzer) read(name string, span query.Span) {
	if rec := a.pending[name]; rec != nil {
		rec.read = true
	}
	if _, ok := a.defined[name]; ok {
		return
	}
	if _, ok := a.builtins[name]; ok {
		return
	}
	a.warn(span, fmt.Sprintf("%s is read before it is assigned", name))
}

func (a *analyzer) assign(expr *query.AssignExpr) {
	if prev := a.pending[expr.Name]; prev != nil && !prev.read {
		a.warn(prev.span, fmt.Sprintf("value assigned to %s is never used", expr.Name))
	}
	a.pending[expr.Name] = &assignment{name: expr.Name, span: expr.Span()}
	a.defined[expr.Name] = struct{}{}

	switch expr.Value.(type) {
	case *query.NumberLiteral:
		a.literals[expr.Name] = query.KindNumber
	case *query.StringLiteral:
		a.literals[expr.Name] = query.KindString
	case *query.ListLiteral:
		a.literals[expr.Name] = query.KindList
	default:
		delete(a.literals, expr.Name)
	}
}

func (a *analyzer) call(expr *query.CallExpr) {
	a.read(expr.Callee, expr.Span())
	if kind, ok := a.literals[expr.Callee]; ok {
		a.warn(expr.Span(), fmt.Sprintf("%s holds a %s and cannot be called", expr.Callee, kind))
	}
}

func (a *analyzer) checkDivisor(expr *query.BinaryExpr) {
	if expr.Op() != "/" && expr.Op() != "%" {
		return
	}
	if lit, ok := expr.Right.(*query.NumberLiteral); ok && lit.Value == 0 {
		a.warn(lit.Span(), fmt.Sprintf("%s by literal zero always fails", expr.Op()))
	}
}

func (a *analyzer) warn(span query.Span, message string) {
	a.warnings = append(a.warnings, lintWarning{Span: span, Message: message})
}
