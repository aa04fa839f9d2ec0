package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/reoring/gracedec"
	"github.com/reoring/gracedec/introspect"
)

// Model is the source-level descriptor of one struct type. Descriptor
// carries no reflect types; composite shapes are identified by Name.
type Model struct {
	Name       string
	Descriptor gracedec.ModelDescriptor
}

// Package is the result of Scan.
type Package struct {
	Name   string
	Models []Model
}

// ScanOption configures Scan.
type ScanOption func(*scanner)

// WithNamingPolicy sets how untagged field names become wire keys.
func WithNamingPolicy(p introspect.NamingPolicy) ScanOption {
	return func(s *scanner) { s.naming = p }
}

// WithTag changes the struct tag read instead of "graceful".
func WithTag(name string) ScanOption { return func(s *scanner) { s.tag = name } }

var builtinKinds = map[string]gracedec.ScalarKind{
	"bool": gracedec.KindBool, "int": gracedec.KindInt, "int8": gracedec.KindInt8,
	"int16": gracedec.KindInt16, "int32": gracedec.KindInt32, "rune": gracedec.KindInt32,
	"int64": gracedec.KindInt64, "uint": gracedec.KindUint, "uint8": gracedec.KindUint8,
	"byte": gracedec.KindUint8, "uint16": gracedec.KindUint16, "uint32": gracedec.KindUint32,
	"uint64": gracedec.KindUint64, "float32": gracedec.KindFloat32, "float64": gracedec.KindFloat64,
	"string": gracedec.KindString,
}

type scanner struct {
	naming introspect.NamingPolicy
	tag    string

	structs map[string]*ast.StructType
	named   map[string]ast.Expr // non-struct type declarations
	text    map[string]bool     // types with an UnmarshalText method
	errs    gracedec.DescriptorErrors
}

// Scan parses the non-test Go files of dir and describes the named struct
// types plus every package-local struct they reference, following the same
// rules as the reflection introspector. Types declared in other packages
// must implement encoding.TextUnmarshaler. Embedded types declared in other
// packages are skipped.
//
// Descriptor problems are returned as gracedec.DescriptorErrors together
// with the partial Package.
func Scan(dir string, typeNames []string, opts ...ScanOption) (*Package, error) {
	s := &scanner{
		tag:     introspect.DefaultTag,
		structs: map[string]*ast.StructType{},
		named:   map[string]ast.Expr{},
		text:    map[string]bool{},
	}
	for _, o := range opts {
		o(s)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("gen: reading %s: %w", dir, err)
	}
	fset := token.NewFileSet()
	pkg := &Package{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("gen: parsing %s: %w", name, err)
		}
		if pkg.Name == "" {
			pkg.Name = f.Name.Name
		}
		s.collect(f)
	}
	if pkg.Name == "" {
		return nil, fmt.Errorf("gen: no Go files in %s", dir)
	}

	queue := append([]string(nil), typeNames...)
	seen := map[string]bool{}
	for i := 0; i < len(queue); i++ {
		name := queue[i]
		if seen[name] {
			continue
		}
		seen[name] = true
		if s.structs[name] == nil {
			s.errs = append(s.errs, gracedec.NewDescriptorError(name, "", gracedec.CodeUnresolvedModel,
				map[string]string{"type": name}))
			continue
		}
		md, refs := s.describe(name)
		pkg.Models = append(pkg.Models, Model{Name: name, Descriptor: md})
		queue = append(queue, refs...)
	}
	if len(s.errs) > 0 {
		return pkg, s.errs
	}
	return pkg, nil
}

func (s *scanner) collect(f *ast.File) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts := spec.(*ast.TypeSpec)
				if ts.TypeParams != nil {
					continue
				}
				if st, ok := ts.Type.(*ast.StructType); ok {
					s.structs[ts.Name.Name] = st
					continue
				}
				s.named[ts.Name.Name] = ts.Type
			}
		case *ast.FuncDecl:
			if d.Recv != nil && len(d.Recv.List) == 1 && d.Name.Name == "UnmarshalText" {
				if name := receiverName(d.Recv.List[0].Type); name != "" {
					s.text[name] = true
				}
			}
		}
	}
}

func receiverName(e ast.Expr) string {
	if star, ok := e.(*ast.StarExpr); ok {
		e = star.X
	}
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

type level struct {
	name  string
	st    *ast.StructType
	index []int
}

func (s *scanner) describe(name string) (gracedec.ModelDescriptor, []string) {
	md := gracedec.ModelDescriptor{Name: name}
	var refs []string
	queue := []level{{name: name, st: s.structs[name]}}
	seen := map[string]bool{name: true}
	for len(queue) > 0 {
		lv := queue[0]
		queue = queue[1:]
		pos := 0
		for _, field := range lv.st.Fields.List {
			tag := introspect.ParseTag(fieldTag(field), s.tag)
			if len(field.Names) == 0 {
				index := appendIndex(lv.index, pos)
				pos++
				fname := embeddedName(field.Type)
				if field.Tag == nil {
					switch t := field.Type.(type) {
					case *ast.Ident:
						if st := s.structs[t.Name]; st != nil {
							if !seen[t.Name] {
								seen[t.Name] = true
								queue = append(queue, level{name: t.Name, st: st, index: index})
							}
							continue
						}
					case *ast.StarExpr:
						if id, ok := t.X.(*ast.Ident); ok && s.structs[id.Name] != nil {
							s.unsupported(name, fname, field.Type)
							continue
						}
					case *ast.SelectorExpr:
						continue
					}
				}
				if fname == "" || !ast.IsExported(fname) || tag.Skip {
					continue
				}
				s.field(&md, &refs, lv.name, fname, field.Type, index, tag)
				continue
			}
			for _, id := range field.Names {
				index := appendIndex(lv.index, pos)
				pos++
				if !id.IsExported() || tag.Skip {
					continue
				}
				s.field(&md, &refs, lv.name, id.Name, field.Type, index, tag)
			}
		}
	}
	return md, refs
}

func (s *scanner) field(md *gracedec.ModelDescriptor, refs *[]string, owner, name string, typ ast.Expr, index []int, tag introspect.Tag) {
	ptr := false
	elem := typ
	for {
		star, ok := elem.(*ast.StarExpr)
		if !ok {
			break
		}
		elem, ptr = star.X, true
	}
	shape, err := s.shapeOf(elem, refs, 0)
	if err != nil {
		s.unsupported(md.Name, name, typ)
		return
	}
	fd := gracedec.FieldDescriptor{
		Name:     name,
		Owner:    owner,
		Index:    index,
		WireKeys: tag.WireKeys(name, s.naming),
		Shape:    shape,
	}
	if ptr {
		fd.Nullable = !tag.NonNull
	} else {
		fd.Nullable = tag.Nullable
		if tag.Nullable && !s.nilable(elem, 0) {
			s.errs = append(s.errs, gracedec.NewDescriptorError(md.Name, name, gracedec.CodeNullableNotNilable,
				map[string]string{"type": types.ExprString(typ)}))
		}
	}
	if tag.HasDef {
		lit := introspect.DefaultLiteral(tag.Default, shape)
		if !j.Valid(lit) {
			s.errs = append(s.errs, gracedec.NewDescriptorError(md.Name, name, gracedec.CodeInvalidDefault,
				map[string]string{"literal": tag.Default, "type": types.ExprString(typ)}))
		}
		fd.HasStaticDefault = true
		fd.Default = lit
	}
	md.Fields = append(md.Fields, fd)
}

const maxNamedDepth = 32

func (s *scanner) shapeOf(e ast.Expr, refs *[]string, depth int) (gracedec.Shape, error) {
	if depth > maxNamedDepth {
		return nil, fmt.Errorf("type %s is too deeply nested", types.ExprString(e))
	}
	switch t := e.(type) {
	case *ast.StarExpr:
		return s.shapeOf(t.X, refs, depth+1)
	case *ast.ParenExpr:
		return s.shapeOf(t.X, refs, depth+1)
	case *ast.Ident:
		if s.text[t.Name] {
			return gracedec.ScalarShape{Kind: gracedec.KindText}, nil
		}
		if k, ok := builtinKinds[t.Name]; ok {
			return gracedec.ScalarShape{Kind: k}, nil
		}
		if s.structs[t.Name] != nil {
			*refs = append(*refs, t.Name)
			return gracedec.CompositeShape{Name: t.Name}, nil
		}
		if u, ok := s.named[t.Name]; ok {
			return s.shapeOf(u, refs, depth+1)
		}
	case *ast.SelectorExpr:
		return gracedec.ScalarShape{Kind: gracedec.KindText}, nil
	case *ast.ArrayType:
		if t.Len != nil {
			break
		}
		elem, err := s.shapeOf(t.Elt, refs, depth+1)
		if err != nil {
			return nil, err
		}
		return gracedec.SequenceShape{Elem: elem}, nil
	case *ast.MapType:
		var keyRefs []string
		key, err := s.shapeOf(t.Key, &keyRefs, depth+1)
		if err != nil {
			return nil, err
		}
		ks, ok := key.(gracedec.ScalarShape)
		if !ok || ks.Kind == gracedec.KindFloat32 || ks.Kind == gracedec.KindFloat64 {
			return nil, fmt.Errorf("map key %s", types.ExprString(t.Key))
		}
		val, err := s.shapeOf(t.Value, refs, depth+1)
		if err != nil {
			return nil, err
		}
		return gracedec.MappingShape{Key: ks.Kind, Value: val}, nil
	}
	return nil, fmt.Errorf("type %s", types.ExprString(e))
}

func (s *scanner) nilable(e ast.Expr, depth int) bool {
	switch t := e.(type) {
	case *ast.StarExpr, *ast.MapType, *ast.InterfaceType:
		return true
	case *ast.ArrayType:
		return t.Len == nil
	case *ast.ParenExpr:
		return s.nilable(t.X, depth)
	case *ast.Ident:
		if u, ok := s.named[t.Name]; ok && depth < maxNamedDepth {
			return s.nilable(u, depth+1)
		}
	}
	return false
}

func (s *scanner) unsupported(model, field string, typ ast.Expr) {
	s.errs = append(s.errs, gracedec.NewDescriptorError(model, field, gracedec.CodeUnsupportedType,
		map[string]string{"type": types.ExprString(typ)}))
}

func fieldTag(f *ast.Field) reflect.StructTag {
	if f.Tag == nil {
		return ""
	}
	tag, err := strconv.Unquote(f.Tag.Value)
	if err != nil {
		return ""
	}
	return reflect.StructTag(tag)
}

func embeddedName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	}
	return ""
}

func appendIndex(base []int, i int) []int {
	return append(append([]int(nil), base...), i)
}
