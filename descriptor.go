package gracedec

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
)

// ScalarKind is the primitive kind of a scalar value.
type ScalarKind int

const (
	KindBool ScalarKind = iota + 1
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	// KindText is a string on the wire decoded through encoding.TextUnmarshaler.
	KindText
)

var scalarKindNames = [...]string{
	KindBool: "bool", KindInt: "int", KindInt8: "int8", KindInt16: "int16",
	KindInt32: "int32", KindInt64: "int64", KindUint: "uint", KindUint8: "uint8",
	KindUint16: "uint16", KindUint32: "uint32", KindUint64: "uint64",
	KindFloat32: "float32", KindFloat64: "float64", KindString: "string", KindText: "text",
}

func (k ScalarKind) String() string {
	if k > 0 && int(k) < len(scalarKindNames) {
		return scalarKindNames[k]
	}
	return fmt.Sprintf("ScalarKind(%d)", int(k))
}

func (k ScalarKind) isSigned() bool   { return k >= KindInt && k <= KindInt64 }
func (k ScalarKind) isUnsigned() bool { return k >= KindUint && k <= KindUint64 }
func (k ScalarKind) isFloat() bool    { return k == KindFloat32 || k == KindFloat64 }

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// ScalarKindOf maps a Go type to its ScalarKind. Types whose pointer
// implements encoding.TextUnmarshaler map to KindText.
func ScalarKindOf(t reflect.Type) (ScalarKind, bool) {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return KindText, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBool, true
	case reflect.Int:
		return KindInt, true
	case reflect.Int8:
		return KindInt8, true
	case reflect.Int16:
		return KindInt16, true
	case reflect.Int32:
		return KindInt32, true
	case reflect.Int64:
		return KindInt64, true
	case reflect.Uint:
		return KindUint, true
	case reflect.Uint8:
		return KindUint8, true
	case reflect.Uint16:
		return KindUint16, true
	case reflect.Uint32:
		return KindUint32, true
	case reflect.Uint64:
		return KindUint64, true
	case reflect.Float32:
		return KindFloat32, true
	case reflect.Float64:
		return KindFloat64, true
	case reflect.String:
		return KindString, true
	}
	return 0, false
}

// Shape describes the container structure of a field value.
type Shape interface {
	shape()
	String() string
}

// ScalarShape is a primitive value.
type ScalarShape struct{ Kind ScalarKind }

// CompositeShape is a nested model. Model is nil for descriptors produced
// from source code, where Name identifies the model instead.
type CompositeShape struct {
	Model reflect.Type
	Name  string
}

// SequenceShape is an ordered list of Elem values.
type SequenceShape struct{ Elem Shape }

// MappingShape is a map from scalar keys to Value values.
type MappingShape struct {
	Key   ScalarKind
	Value Shape
}

func (ScalarShape) shape()    {}
func (CompositeShape) shape() {}
func (SequenceShape) shape()  {}
func (MappingShape) shape()   {}

func (s ScalarShape) String() string { return s.Kind.String() }
func (s CompositeShape) String() string {
	if s.Model != nil {
		return s.Model.String()
	}
	return s.Name
}
func (s SequenceShape) String() string { return "[]" + s.Elem.String() }
func (s MappingShape) String() string  { return "map[" + s.Key.String() + "]" + s.Value.String() }

// FieldDescriptor is one declared field of a model.
type FieldDescriptor struct {
	Name     string // Go field name
	Owner    string // declaring type, used for the default-validity gate
	Index    []int  // reflect field index; looked up by Name when empty
	Type     reflect.Type
	WireKeys []string // primary first
	Shape    Shape
	Nullable bool
	// HasStaticDefault is true when Default holds a JSON literal that
	// construction applies before decoding.
	HasStaticDefault bool
	Default          []byte
}

// PrimaryKey returns the first wire key, or "" when there are none.
func (f FieldDescriptor) PrimaryKey() string {
	if len(f.WireKeys) == 0 {
		return ""
	}
	return f.WireKeys[0]
}

// ModelDescriptor is the ordered field list of a model, own fields first,
// then inherited (embedded) ones nearest-declared-first.
type ModelDescriptor struct {
	Name   string
	Type   reflect.Type
	Fields []FieldDescriptor
}

// Policy is the failure policy of a field.
type Policy int

const (
	// PolicyLenient fields absorb any failure as nil.
	PolicyLenient Policy = iota
	// PolicyDefaultOnFailure fields absorb any failure by keeping their default.
	PolicyDefaultOnFailure
	// PolicyRequired fields abort the enclosing model on any failure.
	PolicyRequired
)

func (p Policy) String() string {
	switch p {
	case PolicyLenient:
		return "lenient"
	case PolicyDefaultOnFailure:
		return "default_on_failure"
	case PolicyRequired:
		return "required"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// PolicyOf derives the failure policy of f.
func PolicyOf(f FieldDescriptor) Policy {
	switch {
	case f.Nullable:
		return PolicyLenient
	case f.HasStaticDefault:
		return PolicyDefaultOnFailure
	default:
		return PolicyRequired
	}
}

// ValidateOptions tunes ModelDescriptor.Validate.
type ValidateOptions struct {
	AllowShadowedKeys bool
}

// Validate runs the generation-time checks on m and returns DescriptorErrors
// or nil.
func (m ModelDescriptor) Validate(opts ValidateOptions) error {
	var errs DescriptorErrors

	// default-validity gate, per declaring type
	type ownerStats struct{ total, defaulted int }
	stats := map[string]*ownerStats{}
	var owners []string
	for _, f := range m.Fields {
		if len(f.WireKeys) == 0 {
			errs = append(errs, NewDescriptorError(m.Name, f.Name, CodeEmptyWireKeys, nil))
		}
		if f.Shape == nil {
			errs = append(errs, NewDescriptorError(m.Name, f.Name, CodeUnsupportedType,
				map[string]string{"type": fmt.Sprint(f.Type)}))
		}
		if f.Nullable && f.Type != nil && !nilable(f.Type) {
			errs = append(errs, NewDescriptorError(m.Name, f.Name, CodeNullableNotNilable,
				map[string]string{"type": f.Type.String()}))
		}
		if f.Nullable {
			continue
		}
		owner := f.Owner
		if owner == "" {
			owner = m.Name
		}
		st, ok := stats[owner]
		if !ok {
			st = &ownerStats{}
			stats[owner] = st
			owners = append(owners, owner)
		}
		st.total++
		if f.HasStaticDefault {
			st.defaulted++
		}
	}
	for _, owner := range owners {
		st := stats[owner]
		if st.defaulted > 0 && st.defaulted < st.total {
			for _, f := range m.Fields {
				fo := f.Owner
				if fo == "" {
					fo = m.Name
				}
				if fo == owner && !f.Nullable && !f.HasStaticDefault {
					errs = append(errs, NewDescriptorError(m.Name, f.Name, CodeMixedDefaults,
						map[string]string{"owner": owner}))
				}
			}
		}
	}

	if !opts.AllowShadowedKeys {
		claimed := map[string]string{}
		for _, f := range m.Fields {
			for _, k := range f.WireKeys {
				if prev, dup := claimed[k]; dup {
					errs = append(errs, NewDescriptorError(m.Name, f.Name, CodeDuplicateKey,
						map[string]string{"key": fmt.Sprintf("%q (also %s)", k, prev)}))
					continue
				}
				claimed[k] = f.Name
			}
		}
	}
	return errs.orNil()
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

// String renders a one-line summary, used by the CLI.
func (f FieldDescriptor) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s %s keys=%s policy=%s", f.Name, f.Shape, strings.Join(f.WireKeys, "|"), PolicyOf(f))
	if f.HasStaticDefault {
		fmt.Fprintf(b, " default=%s", f.Default)
	}
	return b.String()
}
