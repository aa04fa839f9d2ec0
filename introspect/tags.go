package introspect

import (
	"reflect"
	"strings"
)

// DefaultTag is the struct tag read for wire keys and nullability.
const DefaultTag = "graceful"

// Tag is the parsed field configuration of one struct field.
//
//	Name string `graceful:"name=n,alt=a|b,nullable" default:"\"x\""`
type Tag struct {
	Name     string   // primary wire key, "" when derived from the field name
	Alts     []string // alias wire keys
	Nullable bool
	NonNull  bool
	Skip     bool
	Default  string
	HasDef   bool
}

// ParseTag reads the graceful-style tag named tagName, then the json tag,
// then the default tag.
// Priority for the primary key: name= > json tag name > naming policy.
func ParseTag(st reflect.StructTag, tagName string) Tag {
	var t Tag
	if gt, ok := st.Lookup(tagName); ok {
		if gt == "-" {
			t.Skip = true
			return t
		}
		for _, p := range strings.Split(gt, ",") {
			p = strings.TrimSpace(p)
			switch {
			case strings.HasPrefix(p, "name="):
				t.Name = strings.TrimPrefix(p, "name=")
			case strings.HasPrefix(p, "alt="):
				for _, a := range strings.Split(strings.TrimPrefix(p, "alt="), "|") {
					if a = strings.TrimSpace(a); a != "" {
						t.Alts = append(t.Alts, a)
					}
				}
			case p == "nullable":
				t.Nullable = true
			case p == "nonnull":
				t.NonNull = true
			}
		}
	}
	if jt, ok := st.Lookup("json"); ok {
		name := jt
		if i := strings.IndexByte(jt, ','); i >= 0 {
			name = jt[:i]
		}
		if name == "-" && !strings.HasPrefix(jt, "-,") {
			t.Skip = true
			return t
		}
		if t.Name == "" {
			t.Name = name
		}
	}
	t.Default, t.HasDef = st.Lookup("default")
	return t
}

// WireKeys returns the primary key followed by the aliases, dropping
// repeats. fieldName is translated by policy when the tag names no key.
func (t Tag) WireKeys(fieldName string, policy NamingPolicy) []string {
	primary := t.Name
	if primary == "" {
		primary = policy.Apply(fieldName)
	}
	keys := []string{primary}
	for _, a := range t.Alts {
		dup := false
		for _, k := range keys {
			if k == a {
				dup = true
				break
			}
		}
		if !dup {
			keys = append(keys, a)
		}
	}
	return keys
}
