package introspect

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NamingPolicy derives a wire key from a Go field name when no tag names it.
type NamingPolicy int

const (
	// Identity uses the Go field name unchanged.
	Identity NamingPolicy = iota
	// UpperCamelCase upper-cases the first letter: "someField" -> "SomeField".
	UpperCamelCase
	// UpperCamelCaseWithSpaces separates words with spaces: "SomeField" -> "Some Field".
	UpperCamelCaseWithSpaces
	// LowerCaseWithUnderscores: "SomeFieldID" -> "some_field_id".
	LowerCaseWithUnderscores
	// LowerCaseWithDashes: "SomeFieldID" -> "some-field-id".
	LowerCaseWithDashes
	// LowerCamelCase: "SomeFieldID" -> "someFieldID".
	LowerCamelCase
)

var namingPolicyNames = map[NamingPolicy]string{
	Identity:                 "identity",
	UpperCamelCase:           "upper_camel_case",
	UpperCamelCaseWithSpaces: "upper_camel_case_with_spaces",
	LowerCaseWithUnderscores: "lower_case_with_underscores",
	LowerCaseWithDashes:      "lower_case_with_dashes",
	LowerCamelCase:           "lower_camel_case",
}

func (p NamingPolicy) String() string {
	if s, ok := namingPolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("NamingPolicy(%d)", int(p))
}

// ParseNamingPolicy parses the String form of a policy. The empty string
// is Identity.
func ParseNamingPolicy(s string) (NamingPolicy, error) {
	if s == "" {
		return Identity, nil
	}
	for p, name := range namingPolicyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return Identity, fmt.Errorf("introspect: unknown naming policy %q", s)
}

// Apply translates a Go field name.
func (p NamingPolicy) Apply(name string) string {
	switch p {
	case UpperCamelCase:
		return upperFirst(name)
	case UpperCamelCaseWithSpaces:
		words := splitWords(name)
		for i, w := range words {
			words[i] = upperFirst(w)
		}
		return strings.Join(words, " ")
	case LowerCaseWithUnderscores:
		return strings.ToLower(strings.Join(splitWords(name), "_"))
	case LowerCaseWithDashes:
		return strings.ToLower(strings.Join(splitWords(name), "-"))
	case LowerCamelCase:
		words := splitWords(name)
		if len(words) == 0 {
			return name
		}
		words[0] = strings.ToLower(words[0])
		return strings.Join(words, "")
	}
	return name
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// splitWords splits a Go identifier at case changes, keeping acronyms
// together: "HTTPServerID2" -> ["HTTP", "Server", "ID2"].
func splitWords(name string) []string {
	rs := []rune(name)
	var words []string
	start := 0
	for i := 1; i < len(rs); i++ {
		prev, cur := rs[i-1], rs[i]
		boundary := false
		switch {
		case cur == '_':
			words = appendWord(words, rs[start:i])
			start = i + 1
			continue
		case unicode.IsUpper(cur) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(rs) && unicode.IsLower(rs[i+1]):
			boundary = true
		}
		if boundary {
			words = appendWord(words, rs[start:i])
			start = i
		}
	}
	if start < len(rs) {
		words = appendWord(words, rs[start:])
	}
	return words
}

func appendWord(words []string, w []rune) []string {
	if len(w) == 0 {
		return words
	}
	return append(words, string(w))
}
