package query

import "fmt"

const defaultRecursionLimit = 256

type parser struct {
	tokens   *tokenStream
	source   string
	depth    int
	maxDepth int
}

func newParser(source string, lex *lexer, maxDepth int) *parser {
	if maxDepth <= 0 {
		maxDepth = defaultRecursionLimit
	}
	return &parser{tokens: newTokenStream(lex), source: source, maxDepth: maxDepth}
}

// Parse tokenizes and parses source into a Program using the default
// nesting limit. The first lexing or parsing failure aborts the whole parse.
func Parse(source string) (*Program, error) {
	return newParser(source, newLexer(source), defaultRecursionLimit).parseProgram()
}

func (p *parser) parseProgram() (*Program, error) {
	program := &Program{source: p.source}
	for {
		tok, err := p.tokens.peek(0)
		if err != nil {
			return nil, err
		}
		if tok.Type == tokenEOF {
			return program, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}
}

// statement := ("return")? assignment ";"
func (p *parser) parseStatement() (Expression, error) {
	tok, err := p.tokens.peek(0)
	if err != nil {
		return nil, err
	}

	var stmt Expression
	if tok.Type == tokenReturn {
		if _, err := p.tokens.next(); err != nil {
			return nil, err
		}
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		stmt = &ReturnExpr{Value: value, span: tok.Span.Join(value.Span())}
	} else {
		stmt, err = p.parseAssignment()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(tokenSemi); err != nil {
		return nil, err
	}
	return stmt, nil
}

// assignment := IDENT "(" assignment ")" | IDENT "=" assignment | object
func (p *parser) parseAssignment() (Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok, err := p.tokens.peek(0)
	if err != nil {
		return nil, err
	}
	if tok.Type != tokenIdent {
		return p.parseObject()
	}
	follow, err := p.tokens.peek(1)
	if err != nil {
		return nil, err
	}

	switch follow.Type {
	case tokenLParen:
		p.tokens.next()
		p.tokens.next()
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(tokenRParen)
		if err != nil {
			return nil, err
		}
		return &CallExpr{Callee: tok.Literal, Arg: arg, span: tok.Span.Join(closing.Span)}, nil
	case tokenAssign:
		p.tokens.next()
		p.tokens.next()
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Name: tok.Literal, Value: value, span: tok.Span.Join(value.Span())}, nil
	default:
		return p.parseObject()
	}
}

// object := "[" list "]" | "[" "]" | term
// list   := object | list "," object
func (p *parser) parseObject() (Expression, error) {
	open, err := p.tokens.peek(0)
	if err != nil {
		return nil, err
	}
	if open.Type != tokenLBracket {
		return p.parseTerm()
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	p.tokens.next()

	elements := []Expression{}
	next, err := p.tokens.peek(0)
	if err != nil {
		return nil, err
	}
	if next.Type != tokenRBracket {
		for {
			elem, err := p.parseObject()
			if err != nil {
				return nil, err
			}
			elements = append(elements, elem)

			sep, err := p.tokens.peek(0)
			if err != nil {
				return nil, err
			}
			if sep.Type != tokenComma {
				break
			}
			p.tokens.next()
		}
	}

	closing, err := p.expect(tokenRBracket)
	if err != nil {
		return nil, err
	}
	return &ListLiteral{Elements: elements, span: open.Span.Join(closing.Span)}, nil
}

// term := term ("+"|"-") factor | factor
func (p *parser) parseTerm() (Expression, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		op, err := p.tokens.peek(0)
		if err != nil {
			return nil, err
		}
		if op.Type != tokenPlus && op.Type != tokenMinus {
			return left, nil
		}
		p.tokens.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Operator: op.Type, Right: right, span: left.Span().Join(right.Span())}
	}
}

// factor := factor ("*"|"/"|"%") atom | atom
func (p *parser) parseFactor() (Expression, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		op, err := p.tokens.peek(0)
		if err != nil {
			return nil, err
		}
		if op.Type != tokenAsterisk && op.Type != tokenSlash && op.Type != tokenPercent {
			return left, nil
		}
		p.tokens.next()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Operator: op.Type, Right: right, span: left.Span().Join(right.Span())}
	}
}

// atom := IDENT | NUMBER | STRING | "(" assignment ")"
func (p *parser) parseAtom() (Expression, error) {
	tok, err := p.tokens.next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case tokenIdent:
		return &Identifier{Name: tok.Literal, span: tok.Span}, nil
	case tokenNumber:
		return &NumberLiteral{Value: tok.Number, span: tok.Span}, nil
	case tokenString:
		return &StringLiteral{Value: tok.Literal, span: tok.Span}, nil
	case tokenLParen:
		inner, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.errorUnexpected(tok)
	}
}

func (p *parser) expect(tt TokenType) (Token, error) {
	tok, err := p.tokens.next()
	if err != nil {
		return Token{}, err
	}
	if tok.Type != tt {
		return Token{}, p.errorExpected(tok, tokenLabel(tt))
	}
	return tok, nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		tok, _ := p.tokens.peek(0)
		err := newSourceError(p.source, ErrRecursionLimit, tok.Span, fmt.Sprintf("nesting deeper than %d levels", p.maxDepth))
		err.Err = ErrParsing
		return err
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) errorExpected(tok Token, expected string) error {
	return p.parseError(tok, fmt.Sprintf("expected %s, got %s", expected, tokenLabel(tok.Type)))
}

func (p *parser) errorUnexpected(tok Token) error {
	return p.parseError(tok, fmt.Sprintf("unexpected token %s", tokenLabel(tok.Type)))
}

func (p *parser) parseError(tok Token, msg string) error {
	err := newError(ErrParsing, tok.Span, msg)
	if tok.Type != tokenEOF {
		offending := tok
		err.Token = &offending
	}
	return attachSource(err, p.source)
}
