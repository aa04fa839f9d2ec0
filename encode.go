package gracedec

import (
	"encoding"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"

	j "github.com/goccy/go-json"
)

// Sink receives the tokens of an encoded value.
type Sink interface {
	BeginObject() error
	EndObject() error
	BeginArray() error
	EndArray() error
	Key(k string) error
	String(s string) error
	Number(text string) error
	Bool(b bool) error
	Null() error
}

type sinkFrame struct {
	array bool
	n     int
}

// JSONSink writes compact JSON to an io.Writer.
type JSONSink struct {
	w     io.Writer
	stack []sinkFrame
	err   error
}

// NewJSONSink returns a Sink writing JSON text to w.
func NewJSONSink(w io.Writer) *JSONSink { return &JSONSink{w: w} }

func (s *JSONSink) write(b []byte) error {
	if s.err != nil {
		return s.err
	}
	_, s.err = s.w.Write(b)
	return s.err
}

// beforeValue writes the separator of an array element. Object values
// follow their key, which already wrote the separator.
func (s *JSONSink) beforeValue() error {
	if n := len(s.stack); n > 0 && s.stack[n-1].array {
		top := &s.stack[n-1]
		top.n++
		if top.n > 1 {
			return s.write([]byte{','})
		}
	}
	return s.err
}

func (s *JSONSink) writeString(v string) error {
	b, err := j.MarshalNoEscape(v)
	if err != nil {
		s.err = err
		return err
	}
	return s.write(b)
}

func (s *JSONSink) open(array bool, delim byte) error {
	if err := s.beforeValue(); err != nil {
		return err
	}
	s.stack = append(s.stack, sinkFrame{array: array})
	return s.write([]byte{delim})
}

func (s *JSONSink) close(delim byte) error {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	return s.write([]byte{delim})
}

func (s *JSONSink) BeginObject() error { return s.open(false, '{') }
func (s *JSONSink) EndObject() error   { return s.close('}') }
func (s *JSONSink) BeginArray() error  { return s.open(true, '[') }
func (s *JSONSink) EndArray() error    { return s.close(']') }

func (s *JSONSink) Key(k string) error {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		top.n++
		if top.n > 1 {
			if err := s.write([]byte{','}); err != nil {
				return err
			}
		}
	}
	if err := s.writeString(k); err != nil {
		return err
	}
	return s.write([]byte{':'})
}

func (s *JSONSink) String(v string) error {
	if err := s.beforeValue(); err != nil {
		return err
	}
	return s.writeString(v)
}

func (s *JSONSink) Number(text string) error {
	if err := s.beforeValue(); err != nil {
		return err
	}
	return s.write([]byte(text))
}

func (s *JSONSink) Bool(b bool) error {
	if err := s.beforeValue(); err != nil {
		return err
	}
	return s.write(strconv.AppendBool(nil, b))
}

func (s *JSONSink) Null() error {
	if err := s.beforeValue(); err != nil {
		return err
	}
	return s.write([]byte("null"))
}

type encodeState struct {
	sink Sink
	opts *Options
}

func (m *model) encode(es *encodeState, v reflect.Value) error {
	if err := es.sink.BeginObject(); err != nil {
		return err
	}
	for i := range m.plan.steps {
		step := &m.plan.steps[i]
		if step.shadowed {
			continue
		}
		fv := v.FieldByIndex(step.index)
		if isNil(fv) && step.nullable && es.opts.OmitNulls {
			continue
		}
		if err := es.sink.Key(step.outKey); err != nil {
			return err
		}
		if err := encodeValue(es, step.codec, fv, step.nullable); err != nil {
			return fmt.Errorf("%s.%s: %w", m.name(), step.name, err)
		}
	}
	return es.sink.EndObject()
}

// encodeValue writes nil slices and maps of non-nullable fields as empty
// containers and every other nil as null.
func encodeValue(es *encodeState, c valueCodec, v reflect.Value, nullable bool) error {
	if !isNil(v) {
		return c.encode(es, v)
	}
	if !nullable {
		switch v.Kind() {
		case reflect.Slice:
			if err := es.sink.BeginArray(); err != nil {
				return err
			}
			return es.sink.EndArray()
		case reflect.Map:
			if err := es.sink.BeginObject(); err != nil {
				return err
			}
			return es.sink.EndObject()
		}
	}
	return es.sink.Null()
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (c *compositeCodec) encode(es *encodeState, v reflect.Value) error {
	m, err := c.h.model()
	if err != nil {
		return err
	}
	return m.encode(es, v)
}

func (c *ptrCodec) encode(es *encodeState, v reflect.Value) error {
	if v.IsNil() {
		return es.sink.Null()
	}
	return c.elem.encode(es, v.Elem())
}

func (c *seqCodec) encode(es *encodeState, v reflect.Value) error {
	if err := es.sink.BeginArray(); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := encodeValue(es, c.elem, v.Index(i), true); err != nil {
			return err
		}
	}
	return es.sink.EndArray()
}

func (c *mapCodec) encode(es *encodeState, v reflect.Value) error {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	it := v.MapRange()
	for it.Next() {
		k, err := formatScalar(c.key, it.Key())
		if err != nil {
			return err
		}
		entries = append(entries, entry{key: k, val: it.Value()})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].key < entries[b].key })

	if err := es.sink.BeginObject(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := es.sink.Key(e.key); err != nil {
			return err
		}
		if err := encodeValue(es, c.elem, e.val, true); err != nil {
			return err
		}
	}
	return es.sink.EndObject()
}

func (c *scalarCodec) encode(es *encodeState, v reflect.Value) error {
	switch {
	case c.kind == KindBool:
		return es.sink.Bool(v.Bool())
	case c.kind.isSigned(), c.kind.isUnsigned():
		text, _ := formatScalar(c.kind, v)
		if es.opts.LongAsString && (c.kind == KindInt64 || c.kind == KindUint64) {
			return es.sink.String(text)
		}
		return es.sink.Number(text)
	case c.kind.isFloat():
		bits := 64
		if c.kind == KindFloat32 {
			bits = 32
		}
		f := v.Float()
		text := strconv.FormatFloat(f, 'g', -1, bits)
		// JSON has no NaN or infinity literals
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return es.sink.String(text)
		}
		return es.sink.Number(text)
	default:
		text, err := formatScalar(c.kind, v)
		if err != nil {
			return err
		}
		return es.sink.String(text)
	}
}

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

// formatScalar renders a scalar as text; it is also used for map keys.
func formatScalar(kind ScalarKind, v reflect.Value) (string, error) {
	switch {
	case kind == KindBool:
		return strconv.FormatBool(v.Bool()), nil
	case kind.isSigned():
		return strconv.FormatInt(v.Int(), 10), nil
	case kind.isUnsigned():
		return strconv.FormatUint(v.Uint(), 10), nil
	case kind == KindString:
		return v.String(), nil
	case kind == KindText:
		var tm encoding.TextMarshaler
		switch {
		case v.Type().Implements(textMarshalerType):
			tm = v.Interface().(encoding.TextMarshaler)
		case reflect.PointerTo(v.Type()).Implements(textMarshalerType):
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			tm = p.Interface().(encoding.TextMarshaler)
		default:
			return "", fmt.Errorf("%s does not implement encoding.TextMarshaler", v.Type())
		}
		b, err := tm.MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", fmt.Errorf("cannot format %s as text", kind)
}
