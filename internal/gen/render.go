// Package gen scans Go source for model structs and renders static
// descriptor tables with typed Decode/Encode functions.
package gen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/reoring/gracedec"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var modelsTmpl = template.Must(template.ParseFS(templatesFS, "templates/models.go.tmpl"))

// File is the input of Render.
type File struct {
	Package string
	// Registry names the generated constructor New<Registry>; defaults to
	// "GracedecRegistry".
	Registry string
	Models   []Model
	// AllowShadowedKeys makes the generated constructor build with
	// gracedec.WithAllowShadowedKeys.
	AllowShadowedKeys bool
}

type modelView struct {
	Name   string
	Var    string
	Desc   string
	Fields []string
}

type fileView struct {
	Package           string
	Registry          string
	Models            []modelView
	AllowShadowedKeys bool
}

// Render returns the gofmt-ed source of f.
func Render(f File) ([]byte, error) {
	if f.Package == "" {
		return nil, fmt.Errorf("gen: package name is required")
	}
	v := fileView{Package: f.Package, Registry: f.Registry, AllowShadowedKeys: f.AllowShadowedKeys}
	if v.Registry == "" {
		v.Registry = "GracedecRegistry"
	}
	for _, m := range f.Models {
		mv := modelView{
			Name: m.Name,
			Var:  lowerFirst(m.Name) + "Descriptor",
			Desc: descriptorExpr(m.Descriptor),
		}
		for _, fd := range m.Descriptor.Fields {
			mv.Fields = append(mv.Fields, fd.String())
		}
		v.Models = append(v.Models, mv)
	}

	var buf bytes.Buffer
	if err := modelsTmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("gen: executing template: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: formatting output: %w", err)
	}
	return out, nil
}

func descriptorExpr(md gracedec.ModelDescriptor) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "gracedec.ModelDescriptor{\nName: %q,\nFields: []gracedec.FieldDescriptor{\n", md.Name)
	for _, f := range md.Fields {
		fmt.Fprintf(b, "{\nName: %q,\nOwner: %q,\nIndex: %s,\nWireKeys: %s,\nShape: %s,\n",
			f.Name, f.Owner, intsExpr(f.Index), stringsExpr(f.WireKeys), shapeExpr(f.Shape))
		if f.Nullable {
			b.WriteString("Nullable: true,\n")
		}
		if f.HasStaticDefault {
			fmt.Fprintf(b, "HasStaticDefault: true,\nDefault: []byte(%s),\n", strconv.Quote(string(f.Default)))
		}
		b.WriteString("},\n")
	}
	b.WriteString("},\n}")
	return b.String()
}

func shapeExpr(s gracedec.Shape) string {
	switch s := s.(type) {
	case gracedec.ScalarShape:
		return "gracedec.ScalarShape{Kind: " + kindExpr(s.Kind) + "}"
	case gracedec.CompositeShape:
		return fmt.Sprintf("gracedec.CompositeShape{Name: %q}", s.String())
	case gracedec.SequenceShape:
		return "gracedec.SequenceShape{Elem: " + shapeExpr(s.Elem) + "}"
	case gracedec.MappingShape:
		return "gracedec.MappingShape{Key: " + kindExpr(s.Key) + ", Value: " + shapeExpr(s.Value) + "}"
	}
	return "nil"
}

// kindExpr maps a kind to its exported constant: int64 -> gracedec.KindInt64.
func kindExpr(k gracedec.ScalarKind) string {
	name := k.String()
	r, size := utf8.DecodeRuneInString(name)
	return "gracedec.Kind" + string(unicode.ToUpper(r)) + name[size:]
}

func intsExpr(xs []int) string {
	if xs == nil {
		return "nil"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return "[]int{" + strings.Join(parts, ", ") + "}"
}

func stringsExpr(xs []string) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Quote(x)
	}
	return "[]string{" + strings.Join(parts, ", ") + "}"
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
