package gracedec

import (
	"errors"
	"fmt"
	"io"

	eng "github.com/reoring/gracedec/internal/engine"
)

// TokenStream is the peekable view of a Source that decoders consume. Every
// error it returns is a *StreamError.
type TokenStream struct {
	src    Source
	tok    Token
	peeked bool
	eof    bool
}

// NewTokenStream wraps src.
func NewTokenStream(src Source) *TokenStream { return &TokenStream{src: src} }

func (s *TokenStream) fill() error {
	if s.peeked {
		return nil
	}
	if s.eof {
		return s.eofError()
	}
	t, err := s.src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			return s.eofError()
		}
		return s.wrap(err)
	}
	s.tok = t
	s.peeked = true
	return nil
}

func (s *TokenStream) eofError() error {
	return &StreamError{Code: CodeUnexpectedEOF, Offset: s.src.Location(), Err: io.ErrUnexpectedEOF}
}

func (s *TokenStream) wrap(err error) error {
	var se *StreamError
	if errors.As(err, &se) {
		return err
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return &StreamError{Code: ie.Code, Path: ie.Path, Offset: s.src.Location(), Err: err}
	}
	return &StreamError{Code: CodeParseError, Offset: s.src.Location(), Err: err}
}

// Peek returns the kind of the next token without consuming it.
func (s *TokenStream) Peek() (TokenKind, error) {
	if err := s.fill(); err != nil {
		return 0, err
	}
	return s.tok.Kind, nil
}

// AtEOF reports whether the source is exhausted.
func (s *TokenStream) AtEOF() (bool, error) {
	err := s.fill()
	if err == nil {
		return false, nil
	}
	if s.eof {
		return true, nil
	}
	return false, err
}

func (s *TokenStream) next() (Token, error) {
	if err := s.fill(); err != nil {
		return Token{}, err
	}
	s.peeked = false
	return s.tok, nil
}

func (s *TokenStream) expect(k TokenKind) (Token, error) {
	t, err := s.next()
	if err != nil {
		return Token{}, err
	}
	if t.Kind != k {
		return Token{}, &StreamError{
			Code:   CodeParseError,
			Offset: t.Offset,
			Err:    fmt.Errorf("expected %s, got %s", k, t.Kind),
		}
	}
	return t, nil
}

// ConsumeNull consumes a null token.
func (s *TokenStream) ConsumeNull() error {
	_, err := s.expect(TokenNull)
	return err
}

// ConsumeScalar consumes a string, number or bool token.
func (s *TokenStream) ConsumeScalar() (Token, error) {
	t, err := s.next()
	if err != nil {
		return Token{}, err
	}
	switch t.Kind {
	case TokenString, TokenNumber, TokenBool:
		return t, nil
	}
	return Token{}, &StreamError{Code: CodeParseError, Offset: t.Offset, Err: fmt.Errorf("expected scalar, got %s", t.Kind)}
}

// EnterObject consumes '{'.
func (s *TokenStream) EnterObject() error {
	_, err := s.expect(TokenBeginObject)
	return err
}

// ExitObject consumes '}'.
func (s *TokenStream) ExitObject() error {
	_, err := s.expect(TokenEndObject)
	return err
}

// EnterArray consumes '['.
func (s *TokenStream) EnterArray() error {
	_, err := s.expect(TokenBeginArray)
	return err
}

// ExitArray consumes ']'.
func (s *TokenStream) ExitArray() error {
	_, err := s.expect(TokenEndArray)
	return err
}

// NextKey consumes an object key.
func (s *TokenStream) NextKey() (string, error) {
	t, err := s.expect(TokenKey)
	if err != nil {
		return "", err
	}
	return t.String, nil
}

// More reports whether the enclosing object or array has another entry.
func (s *TokenStream) More() (bool, error) {
	k, err := s.Peek()
	if err != nil {
		return false, err
	}
	return k != TokenEndObject && k != TokenEndArray, nil
}

// Skip consumes one complete value, including nested containers.
func (s *TokenStream) Skip() error {
	depth := 0
	for {
		t, err := s.next()
		if err != nil {
			return err
		}
		switch t.Kind {
		case TokenBeginObject, TokenBeginArray:
			depth++
		case TokenEndObject, TokenEndArray:
			depth--
			if depth < 0 {
				return &StreamError{Code: CodeParseError, Offset: t.Offset, Err: fmt.Errorf("unexpected %s", t.Kind)}
			}
		case TokenKey:
			continue
		}
		if depth == 0 {
			return nil
		}
	}
}

// drainObject skips the remaining entries of the current object and
// consumes its closing token.
func (s *TokenStream) drainObject() error {
	for {
		more, err := s.More()
		if err != nil {
			return err
		}
		if !more {
			return s.ExitObject()
		}
		if _, err := s.NextKey(); err != nil {
			return err
		}
		if err := s.Skip(); err != nil {
			return err
		}
	}
}

// Location returns the byte offset of the underlying source, or -1.
func (s *TokenStream) Location() int64 { return s.src.Location() }
