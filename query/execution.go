package query

import (
	"context"
	"fmt"
	"io"
	"math"
)

// CallOptions adjusts a single evaluation.
type CallOptions struct {
	// Globals seeds extra bindings before the first statement runs. They
	// shadow builtins of the same name.
	Globals map[string]Value

	// Output overrides the engine's output sink for this run.
	Output io.Writer
}

// Execution holds the state of one evaluation: its environment and sink.
// An Execution is not safe for concurrent use.
type Execution struct {
	engine *Engine
	ctx    context.Context
	env    *Env
	out    io.Writer
	source string
	ran    bool
}

// NewExecution creates an execution whose environment holds the engine's
// builtins plus opts.Globals.
func (e *Engine) NewExecution(opts CallOptions) *Execution {
	exec := &Execution{
		engine: e,
		env:    newEnv(),
		out:    e.config.Output,
	}
	if opts.Output != nil {
		exec.out = opts.Output
	}
	for name, val := range e.builtins {
		exec.env.Set(name, val)
	}
	for name, val := range opts.Globals {
		exec.env.Set(name, val)
	}
	return exec
}

// Output returns the sink this execution writes renderings to.
func (exec *Execution) Output() io.Writer { return exec.out }

// Env exposes the execution's environment.
func (exec *Execution) Env() *Env { return exec.env }

// Context returns the context of the current run.
func (exec *Execution) Context() context.Context {
	if exec.ctx == nil {
		return context.Background()
	}
	return exec.ctx
}

// Bindings returns the environment without the engine builtins that are
// still bound to themselves.
func (exec *Execution) Bindings() map[string]Value {
	out := make(map[string]Value)
	for name, val := range exec.env.values {
		if builtin, ok := exec.engine.builtins[name]; ok && builtin.Equal(val) {
			continue
		}
		out[name] = val.Clone()
	}
	return out
}

// Run evaluates the program's statements in order and returns the value of
// the last one. The first failure stops the run. An Execution runs a single
// program; later calls report an error.
func (exec *Execution) Run(ctx context.Context, program *Program) (Value, error) {
	if exec.ran {
		return NewNone(), fmt.Errorf("query: execution already used")
	}
	exec.ran = true
	exec.ctx = ctx
	exec.source = program.source

	if len(program.Statements) == 0 {
		return NewNone(), newSourceError(exec.source, ErrEmptyProgram, Span{}, "program has no statements")
	}

	var result Value
	for _, stmt := range program.Statements {
		if err := exec.checkContext(); err != nil {
			return NewNone(), err
		}
		val, err := exec.evalExpression(stmt)
		if err != nil {
			return NewNone(), err
		}
		result = val
	}
	return result, nil
}

func (exec *Execution) checkContext() error {
	if exec.ctx == nil {
		return nil
	}
	select {
	case <-exec.ctx.Done():
		return exec.ctx.Err()
	default:
		return nil
	}
}

func (exec *Execution) evalExpression(expr Expression) (Value, error) {
	switch e := expr.(type) {
	case *NumberLiteral:
		return NewNumber(e.Value), nil
	case *StringLiteral:
		return NewString(e.Value), nil
	case *Identifier:
		val, ok := exec.env.Get(e.Name)
		if !ok {
			return NewNone(), exec.undefined(e.Name, e.Span())
		}
		return val, nil
	case *AssignExpr:
		val, err := exec.evalExpression(e.Value)
		if err != nil {
			return NewNone(), err
		}
		exec.env.Set(e.Name, val)
		return val, nil
	case *BinaryExpr:
		return exec.evalBinary(e)
	case *CallExpr:
		return exec.evalCall(e)
	case *ReturnExpr:
		val, err := exec.evalExpression(e.Value)
		if err != nil {
			return NewNone(), err
		}
		if err := exec.emit(val); err != nil {
			return NewNone(), err
		}
		return val, nil
	case *ListLiteral:
		items := make([]Value, 0, len(e.Elements))
		for _, elem := range e.Elements {
			val, err := exec.evalExpression(elem)
			if err != nil {
				return NewNone(), err
			}
			items = append(items, val)
		}
		return Value{kind: KindList, data: items}, nil
	default:
		return NewNone(), fmt.Errorf("query: unsupported expression %T", expr)
	}
}

func (exec *Execution) evalBinary(e *BinaryExpr) (Value, error) {
	left, err := exec.evalExpression(e.Left)
	if err != nil {
		return NewNone(), err
	}
	right, err := exec.evalExpression(e.Right)
	if err != nil {
		return NewNone(), err
	}
	if left.kind != KindNumber {
		return NewNone(), exec.invalidOperand(e, left, e.Left.Span())
	}
	if right.kind != KindNumber {
		return NewNone(), exec.invalidOperand(e, right, e.Right.Span())
	}

	a, b := left.Number(), right.Number()
	switch e.Operator {
	case tokenPlus:
		return NewNumber(a + b), nil
	case tokenMinus:
		return NewNumber(a - b), nil
	case tokenAsterisk:
		return NewNumber(a * b), nil
	case tokenSlash:
		if b == 0 {
			return NewNone(), exec.divisionByZero(e)
		}
		return NewNumber(a / b), nil
	case tokenPercent:
		if b == 0 {
			return NewNone(), exec.divisionByZero(e)
		}
		return NewNumber(math.Mod(a, b)), nil
	default:
		return NewNone(), fmt.Errorf("query: unsupported operator %s", e.Operator)
	}
}

func (exec *Execution) evalCall(e *CallExpr) (Value, error) {
	arg, err := exec.evalExpression(e.Arg)
	if err != nil {
		return NewNone(), err
	}
	callee, ok := exec.env.Get(e.Callee)
	if !ok {
		return NewNone(), exec.undefined(e.Callee, e.Span())
	}
	builtin := callee.Builtin()
	if builtin == nil {
		err := newSourceError(exec.source, ErrInvalidType, e.Span(), fmt.Sprintf("%s is a %s, not a function", e.Callee, callee.kind))
		err.Name = e.Callee
		return NewNone(), err
	}
	return builtin.fn(exec, []Value{arg})
}

// emit writes the debug rendering of val to the output sink, one per line.
func (exec *Execution) emit(val Value) error {
	if exec.out == nil {
		return nil
	}
	if _, err := fmt.Fprintln(exec.out, val.Inspect()); err != nil {
		return fmt.Errorf("return: %w", err)
	}
	return nil
}

func (exec *Execution) undefined(name string, span Span) error {
	err := newSourceError(exec.source, ErrVariableNotDefined, span, name)
	err.Name = name
	return err
}

func (exec *Execution) invalidOperand(e *BinaryExpr, operand Value, span Span) error {
	err := newSourceError(exec.source, ErrInvalidType, span, fmt.Sprintf("operator %s expects numbers, got %s", e.Operator, operand.kind))
	err.Name = string(e.Operator)
	return err
}

func (exec *Execution) divisionByZero(e *BinaryExpr) error {
	err := newSourceError(exec.source, ErrMath, e.Right.Span(), "division by zero")
	err.Name = string(e.Operator)
	return err
}
