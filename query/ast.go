package query

type Node interface {
	Span() Span
}

type Expression interface {
	Node
	exprNode()
}

// Program is the parsed form of a source text: its top-level statements in
// order. A Program is never mutated after parsing.
type Program struct {
	Statements []Expression
	source     string
}

func (p *Program) Span() Span {
	if len(p.Statements) == 0 {
		return Span{}
	}
	return p.Statements[0].Span().Join(p.Statements[len(p.Statements)-1].Span())
}

// Source returns the text the program was parsed from.
func (p *Program) Source() string { return p.source }

// BinaryExpr is one of the arithmetic forms; Operator is +, -, *, / or %.
type BinaryExpr struct {
	Left     Expression
	Operator TokenType
	Right    Expression
	span     Span
}

func (e *BinaryExpr) exprNode()  {}
func (e *BinaryExpr) Span() Span { return e.span }

// Op returns the operator symbol.
func (e *BinaryExpr) Op() string { return string(e.Operator) }

type Identifier struct {
	Name string
	span Span
}

func (e *Identifier) exprNode()  {}
func (e *Identifier) Span() Span { return e.span }

type AssignExpr struct {
	Name  string
	Value Expression
	span  Span
}

func (e *AssignExpr) exprNode()  {}
func (e *AssignExpr) Span() Span { return e.span }

// CallExpr invokes the function bound to Callee with exactly one argument.
type CallExpr struct {
	Callee string
	Arg    Expression
	span   Span
}

func (e *CallExpr) exprNode()  {}
func (e *CallExpr) Span() Span { return e.span }

// ReturnExpr echoes its value to the output sink and yields it unchanged.
type ReturnExpr struct {
	Value Expression
	span  Span
}

func (e *ReturnExpr) exprNode()  {}
func (e *ReturnExpr) Span() Span { return e.span }

type NumberLiteral struct {
	Value float64
	span  Span
}

func (e *NumberLiteral) exprNode()  {}
func (e *NumberLiteral) Span() Span { return e.span }

type StringLiteral struct {
	Value string
	span  Span
}

func (e *StringLiteral) exprNode()  {}
func (e *StringLiteral) Span() Span { return e.span }

type ListLiteral struct {
	Elements []Expression
	span     Span
}

func (e *ListLiteral) exprNode()  {}
func (e *ListLiteral) Span() Span { return e.span }
