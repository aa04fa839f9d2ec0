package gracedec

import (
	"bytes"
	"reflect"
)

// Codec decodes and encodes one model type through a built Registry.
// It is safe for concurrent use.
type Codec[T any] struct {
	r *Registry
	h *Handle
}

// For returns the Codec of T. The registry must be built and T must be one
// of its models.
func For[T any](r *Registry) (*Codec[T], error) {
	if !r.sealed.Load() {
		return nil, ErrRegistryNotBuilt
	}
	h := r.Resolve(reflect.TypeFor[T]())
	if _, err := h.model(); err != nil {
		return nil, err
	}
	return &Codec[T]{r: r, h: h}, nil
}

// Decode reads exactly one value from src. A top-level null yields (nil, nil).
// Failures are returned as *GracefulFailure; stream errors are carried as
// its Cause.
func (c *Codec[T]) Decode(src Source) (*T, error) {
	src = EnforceSourceIfNeeded(src, c.r.opts.Parse, c.r.streamIssue)
	ts := NewTokenStream(src)
	v, err := c.DecodeStream(ts)
	if err != nil {
		return nil, err
	}
	eof, err := ts.AtEOF()
	if err == nil && !eof {
		err = &StreamError{Code: CodeTrailingData, Offset: ts.Location()}
	}
	if err != nil {
		m, _ := c.h.model()
		gf := &GracefulFailure{Model: m.name(), Reason: ReasonStream, Cause: err}
		c.r.escalated(gf)
		return nil, gf
	}
	return v, nil
}

// DecodeStream reads the next value from ts and leaves ts positioned after
// it, which allows decoding several values from one stream.
func (c *Codec[T]) DecodeStream(ts *TokenStream) (*T, error) {
	m, err := c.h.model()
	if err != nil {
		return nil, err
	}
	st := &decodeState{ts: ts, opts: &c.r.opts}
	v, oc, err := m.decode(st)
	if err != nil {
		gf, ok := AsGracefulFailure(err)
		if !ok {
			gf = &GracefulFailure{Model: m.name(), Reason: ReasonStream, Cause: err}
			if se, isStream := AsStreamError(err); isStream {
				gf.Path = se.Path
			}
		}
		c.r.escalated(gf)
		return nil, gf
	}
	if oc == outcomeNull {
		return nil, nil
	}
	return v.Addr().Interface().(*T), nil
}

// Encode writes v to sink; a nil v is written as null.
func (c *Codec[T]) Encode(sink Sink, v *T) error {
	if v == nil {
		return sink.Null()
	}
	m, err := c.h.model()
	if err != nil {
		return err
	}
	return m.encode(&encodeState{sink: sink, opts: &c.r.opts}, reflect.ValueOf(v).Elem())
}

// Unmarshal decodes JSON data with the current JSON driver.
func (c *Codec[T]) Unmarshal(data []byte) (*T, error) { return c.Decode(JSONBytes(data)) }

// Marshal encodes v as compact JSON.
func (c *Codec[T]) Marshal(v *T) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(NewJSONSink(&buf), v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode is shorthand for For[T] followed by Codec.Decode.
func Decode[T any](r *Registry, src Source) (*T, error) {
	c, err := For[T](r)
	if err != nil {
		return nil, err
	}
	return c.Decode(src)
}

// Encode is shorthand for For[T] followed by Codec.Encode.
func Encode[T any](r *Registry, sink Sink, v *T) error {
	c, err := For[T](r)
	if err != nil {
		return err
	}
	return c.Encode(sink, v)
}

// Unmarshal decodes JSON data into a new T.
func Unmarshal[T any](r *Registry, data []byte) (*T, error) {
	return Decode[T](r, JSONBytes(data))
}

// Marshal encodes v as compact JSON.
func Marshal[T any](r *Registry, v *T) ([]byte, error) {
	c, err := For[T](r)
	if err != nil {
		return nil, err
	}
	return c.Marshal(v)
}
