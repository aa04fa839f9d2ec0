package gracedec

import (
	"fmt"
	"reflect"

	jsonsrc "github.com/reoring/gracedec/source/json"
)

// outcome classifies one attempt to read a value.
type outcome int

const (
	outcomeValue outcome = iota
	outcomeMalformed
	outcomeNull
)

// valueCodec decodes and encodes values of one Go type. decode leaves the
// stream positioned past the value whatever the outcome; a non-nil error is
// either a *GracefulFailure raised by a nested model or a *StreamError.
type valueCodec interface {
	decode(st *decodeState) (reflect.Value, outcome, error)
	encode(es *encodeState, v reflect.Value) error
}

// fieldStep is one row of a decode plan.
type fieldStep struct {
	name       string
	pos        int    // position in ModelDescriptor.Fields
	key        string // primary wire key
	keys       []string
	policy     Policy
	codec      valueCodec
	index      []int
	typ        reflect.Type
	nullable   bool
	hasDefault bool
	shadowed   bool   // every wire key is claimed by a later field
	outKey     string // first wire key this field still owns; used by encode
}

// plan is the table a model is decoded and encoded with.
type plan struct {
	steps []fieldStep
	byKey map[string]int
}

type model struct {
	desc  ModelDescriptor
	typ   reflect.Type
	plan  *plan
	proto reflect.Value // construction value with defaults applied
	clone []int         // steps whose defaults must be deep-copied per instance
}

func (m *model) name() string { return m.desc.Name }

func (r *Registry) compile(md ModelDescriptor) (*plan, error) {
	p := &plan{byKey: map[string]int{}}
	var errs DescriptorErrors
	for pos, f := range md.Fields {
		c, err := r.codecFor(f.Shape, f.Type)
		if err != nil {
			errs = append(errs, NewDescriptorError(md.Name, f.Name, CodeUnsupportedType,
				map[string]string{"type": fmt.Sprintf("%s (%v)", f.Type, err)}))
			continue
		}
		idx := len(p.steps)
		p.steps = append(p.steps, fieldStep{
			name:       f.Name,
			pos:        pos,
			key:        f.PrimaryKey(),
			keys:       f.WireKeys,
			policy:     PolicyOf(f),
			codec:      c,
			index:      f.Index,
			typ:        f.Type,
			nullable:   f.Nullable,
			hasDefault: f.HasStaticDefault,
		})
		// later-declared fields shadow earlier ones
		for _, k := range f.WireKeys {
			p.byKey[k] = idx
		}
	}
	for i := range p.steps {
		p.steps[i].shadowed = true
		for _, k := range p.steps[i].keys {
			if p.byKey[k] == i {
				p.steps[i].shadowed = false
				p.steps[i].outKey = k
				break
			}
		}
	}
	return p, errs.orNil()
}

func (r *Registry) codecFor(s Shape, t reflect.Type) (valueCodec, error) {
	if t.Kind() == reflect.Pointer {
		elem, err := r.codecFor(s, t.Elem())
		if err != nil {
			return nil, err
		}
		return &ptrCodec{typ: t, elem: elem}, nil
	}
	switch s := s.(type) {
	case ScalarShape:
		k, ok := ScalarKindOf(t)
		if !ok || k != s.Kind {
			return nil, fmt.Errorf("shape %s does not match", s)
		}
		return &scalarCodec{kind: k, typ: t}, nil
	case CompositeShape:
		if t.Kind() != reflect.Struct || (s.Model != nil && s.Model != t) {
			return nil, fmt.Errorf("shape %s does not match", s)
		}
		return &compositeCodec{h: r.handleLocked(t)}, nil
	case SequenceShape:
		if t.Kind() != reflect.Slice {
			return nil, fmt.Errorf("shape %s does not match", s)
		}
		elem, err := r.codecFor(s.Elem, t.Elem())
		if err != nil {
			return nil, err
		}
		return &seqCodec{typ: t, elem: elem, keepNull: nilable(t.Elem())}, nil
	case MappingShape:
		if t.Kind() != reflect.Map {
			return nil, fmt.Errorf("shape %s does not match", s)
		}
		kk, ok := ScalarKindOf(t.Key())
		if !ok || kk != s.Key || kk.isFloat() {
			return nil, fmt.Errorf("map key %s is not supported", t.Key())
		}
		elem, err := r.codecFor(s.Value, t.Elem())
		if err != nil {
			return nil, err
		}
		return &mapCodec{typ: t, key: kk, elem: elem, keepNull: nilable(t.Elem())}, nil
	}
	return nil, fmt.Errorf("unknown shape %v", s)
}

// prepare decodes the default literals of m into its prototype. Models that
// defaults refer to are prepared first; state breaks cycles.
func (r *Registry) prepare(m *model, state map[*model]int) DescriptorErrors {
	if state[m] != 0 {
		return nil
	}
	state[m] = 1
	defer func() { state[m] = 2 }()

	var errs DescriptorErrors
	for i := range m.plan.steps {
		step := &m.plan.steps[i]
		if !step.hasDefault {
			continue
		}
		var refs []reflect.Type
		f := m.desc.Fields[step.pos]
		collectModels(f.Shape, f.Type, &refs)
		for _, ref := range refs {
			if dep := r.models[ref]; dep != nil {
				errs = append(errs, r.prepare(dep, state)...)
			}
		}

		invalid := NewDescriptorError(m.name(), step.name, CodeInvalidDefault,
			map[string]string{"literal": string(f.Default), "type": step.typ.String()})
		st := &decodeState{ts: NewTokenStream(SourceFromEngine(jsonsrc.NewBytes(f.Default))), opts: &r.opts, quiet: true}
		v, oc, err := step.codec.decode(st)
		if err != nil || oc != outcomeValue {
			errs = append(errs, invalid)
			continue
		}
		if eof, err := st.ts.AtEOF(); err != nil || !eof {
			errs = append(errs, invalid)
			continue
		}
		m.proto.FieldByIndex(step.index).Set(v)
		switch step.typ.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Struct:
			m.clone = append(m.clone, i)
		}
	}
	return errs
}

// newInstance returns a fresh addressable value with every default applied.
func (m *model) newInstance() reflect.Value {
	v := reflect.New(m.typ).Elem()
	v.Set(m.proto)
	for _, i := range m.clone {
		f := v.FieldByIndex(m.plan.steps[i].index)
		f.Set(deepCopy(f))
	}
	return v
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		n := reflect.New(v.Type().Elem())
		n.Elem().Set(deepCopy(v.Elem()))
		return n
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		n := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			n.Index(i).Set(deepCopy(v.Index(i)))
		}
		return n
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		n := reflect.MakeMapWithSize(v.Type(), v.Len())
		it := v.MapRange()
		for it.Next() {
			n.SetMapIndex(it.Key(), deepCopy(it.Value()))
		}
		return n
	case reflect.Struct:
		n := reflect.New(v.Type()).Elem()
		n.Set(v)
		for i := 0; i < n.NumField(); i++ {
			if f := n.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i)))
			}
		}
		return n
	}
	return v
}
