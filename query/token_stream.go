package query

import "github.com/edwingeng/deque"

// tokenStream buffers tokens pulled lazily from the lexer so the parser can
// look ahead without forcing the whole input to be tokenized up front.
type tokenStream struct {
	lex     *lexer
	pending deque.Deque
	eof     Token
}

func newTokenStream(lex *lexer) *tokenStream {
	return &tokenStream{lex: lex, pending: deque.NewDeque()}
}

// peek returns the token n positions ahead of the cursor (0 is the current
// token). Past the end of input it returns the EOF token.
func (s *tokenStream) peek(n int) (Token, error) {
	for s.pending.Len() <= n {
		if s.eof.Type == tokenEOF {
			return s.eof, nil
		}
		tok, err := s.lex.NextToken()
		if err != nil {
			return Token{}, err
		}
		if tok.Type == tokenEOF {
			s.eof = tok
			return tok, nil
		}
		s.pending.PushBack(tok)
	}
	return s.pending.Peek(n).(Token), nil
}

// next consumes and returns the current token.
func (s *tokenStream) next() (Token, error) {
	tok, err := s.peek(0)
	if err != nil {
		return Token{}, err
	}
	if s.pending.Len() > 0 {
		s.pending.PopFront()
	}
	return tok, nil
}
