// Package introspect builds gracedec model descriptors from Go struct types
// using reflection and struct tags.
//
// Field rules:
//   - exported fields only; `graceful:"-"` or `json:"-"` skips a field
//   - embedded structs without a tag are inherited: the struct's own fields
//     come first, then embedded fields breadth-first
//   - pointers are nullable unless tagged nonnull; slices and maps are
//     nullable when tagged nullable
//   - `default:"<json>"` declares a static default
package introspect

import (
	"fmt"
	"reflect"

	j "github.com/goccy/go-json"

	"github.com/reoring/gracedec"
)

// Introspector implements gracedec.Introspector.
type Introspector struct {
	naming NamingPolicy
	tag    string
}

// Option configures an Introspector.
type Option func(*Introspector)

// WithNamingPolicy sets how untagged field names become wire keys.
func WithNamingPolicy(p NamingPolicy) Option { return func(in *Introspector) { in.naming = p } }

// WithTag changes the struct tag name read instead of "graceful".
func WithTag(name string) Option { return func(in *Introspector) { in.tag = name } }

// New returns an Introspector with the Identity naming policy.
func New(opts ...Option) *Introspector {
	in := &Introspector{tag: DefaultTag}
	for _, o := range opts {
		o(in)
	}
	return in
}

var _ gracedec.Introspector = (*Introspector)(nil)

type level struct {
	typ   reflect.Type
	index []int
}

// Describe returns the descriptor of struct type t (or pointer to struct).
func (in *Introspector) Describe(t reflect.Type) (gracedec.ModelDescriptor, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return gracedec.ModelDescriptor{}, gracedec.DescriptorErrors{unsupported(fmt.Sprint(t), "", t)}
	}
	md := gracedec.ModelDescriptor{Name: t.Name(), Type: t}
	var errs gracedec.DescriptorErrors

	queue := []level{{typ: t}}
	seen := map[reflect.Type]bool{t: true}
	for len(queue) > 0 {
		lv := queue[0]
		queue = queue[1:]
		for i := 0; i < lv.typ.NumField(); i++ {
			sf := lv.typ.Field(i)
			index := append(append([]int(nil), lv.index...), i)
			tag := ParseTag(sf.Tag, in.tag)
			if sf.Anonymous && sf.Tag == "" {
				switch {
				case sf.Type.Kind() == reflect.Struct:
					if !seen[sf.Type] {
						seen[sf.Type] = true
						queue = append(queue, level{typ: sf.Type, index: index})
					}
					continue
				case sf.Type.Kind() == reflect.Pointer && sf.Type.Elem().Kind() == reflect.Struct:
					errs = append(errs, unsupported(md.Name, sf.Name, sf.Type))
					continue
				}
			}
			if !sf.IsExported() || tag.Skip {
				continue
			}
			fd, err := in.field(lv.typ.Name(), sf, index, tag)
			if err != nil {
				errs = append(errs, unsupported(md.Name, sf.Name, sf.Type))
				continue
			}
			md.Fields = append(md.Fields, fd)
		}
	}
	if len(errs) > 0 {
		return md, errs
	}
	return md, nil
}

func (in *Introspector) field(owner string, sf reflect.StructField, index []int, tag Tag) (gracedec.FieldDescriptor, error) {
	shape, err := ShapeOf(sf.Type)
	if err != nil {
		return gracedec.FieldDescriptor{}, err
	}
	fd := gracedec.FieldDescriptor{
		Name:     sf.Name,
		Owner:    owner,
		Index:    index,
		Type:     sf.Type,
		WireKeys: tag.WireKeys(sf.Name, in.naming),
		Shape:    shape,
	}
	switch sf.Type.Kind() {
	case reflect.Pointer:
		fd.Nullable = !tag.NonNull
	default:
		fd.Nullable = tag.Nullable
	}
	if tag.HasDef {
		fd.HasStaticDefault = true
		fd.Default = DefaultLiteral(tag.Default, shape)
	}
	return fd, nil
}

// DefaultLiteral quotes bare defaults of string fields so that
// `default:"pending"` works as well as `default:"\"pending\""`.
func DefaultLiteral(lit string, shape gracedec.Shape) []byte {
	if s, ok := shape.(gracedec.ScalarShape); ok && (s.Kind == gracedec.KindString || s.Kind == gracedec.KindText) {
		if len(lit) == 0 || lit[0] != '"' {
			if b, err := j.Marshal(lit); err == nil {
				return b
			}
		}
	}
	return []byte(lit)
}

// ShapeOf maps a Go type to its value shape. Pointers are transparent.
func ShapeOf(t reflect.Type) (gracedec.Shape, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if k, ok := gracedec.ScalarKindOf(t); ok {
		return gracedec.ScalarShape{Kind: k}, nil
	}
	switch t.Kind() {
	case reflect.Struct:
		return gracedec.CompositeShape{Model: t, Name: t.Name()}, nil
	case reflect.Slice:
		elem, err := ShapeOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return gracedec.SequenceShape{Elem: elem}, nil
	case reflect.Map:
		k, ok := gracedec.ScalarKindOf(t.Key())
		if !ok || k == gracedec.KindFloat32 || k == gracedec.KindFloat64 {
			return nil, fmt.Errorf("map key %s", t.Key())
		}
		val, err := ShapeOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return gracedec.MappingShape{Key: k, Value: val}, nil
	}
	return nil, fmt.Errorf("type %s", t)
}

func unsupported(model, field string, t reflect.Type) gracedec.DescriptorError {
	return gracedec.NewDescriptorError(model, field, gracedec.CodeUnsupportedType,
		map[string]string{"type": fmt.Sprint(t)})
}
