package engine

import "io"

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBeginObject:
		return "begin_object"
	case KindEndObject:
		return "end_object"
	case KindBeginArray:
		return "begin_array"
	case KindEndArray:
		return "end_array"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

// Framer tracks container nesting for tokenizers whose underlying decoder
// does not distinguish object keys from string values.
type Framer struct {
	stack []frame
}

// OpenObject records a '{'.
func (f *Framer) OpenObject() { f.stack = append(f.stack, frame{kind: kindObject, expectingKey: true}) }

// OpenArray records a '['.
func (f *Framer) OpenArray() { f.stack = append(f.stack, frame{kind: kindArray}) }

// Close records a '}' or ']' and marks the enclosing value complete.
func (f *Framer) Close() {
	if n := len(f.stack); n > 0 {
		f.stack = f.stack[:n-1]
	}
	f.ValueDone()
}

// IsKey reports whether the next string is an object key and, if so,
// switches the enclosing object to expect its value.
func (f *Framer) IsKey() bool {
	if n := len(f.stack); n > 0 {
		top := &f.stack[n-1]
		if top.kind == kindObject && top.expectingKey {
			top.expectingKey = false
			return true
		}
	}
	return false
}

// ValueDone marks a value inside the enclosing object as complete.
func (f *Framer) ValueDone() {
	if n := len(f.stack); n > 0 {
		top := &f.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

// SliceSource replays a pre-materialized token slice. Drivers whose
// underlying decoder is not streaming build the slice up front.
type SliceSource struct {
	Tokens []Token
	Err    error
	idx    int
}

func (s *SliceSource) NextToken() (Token, error) {
	if s.Err != nil {
		return Token{}, s.Err
	}
	if s.idx >= len(s.Tokens) {
		return Token{}, io.EOF
	}
	t := s.Tokens[s.idx]
	s.idx++
	return t, nil
}

// Location is unknown for replayed tokens.
func (s *SliceSource) Location() int64 { return -1 }
