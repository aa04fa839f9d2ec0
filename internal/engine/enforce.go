package engine

import (
	"strconv"
	"strings"
)

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives non-fatal issues (duplicate keys in warn mode) as
	// well as the fatal ones right before they are returned.
	IssueSink func(SimpleIssue)
}

// Enabled reports whether any enforcement is configured.
func (o EnforceOptions) Enabled() bool {
	return o.OnDuplicate != DupIgnore || o.MaxDepth > 0 || o.MaxBytes > 0
}

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// Issue codes produced by the enforcing source.
const (
	CodeDuplicateKey = "duplicate_key"
	CodeMaxDepth     = "max_depth"
	CodeMaxBytes     = "max_bytes"
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type scope struct {
	array bool
	keys  map[string]struct{}
	path  string
	index int
	key   string
}

type enforcingTokenSource struct {
	inner  TokenSource
	opt    EnforceOptions
	scopes []scope
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		path := e.valuePath()
		e.scopes = append(e.scopes, scope{
			array: tok.Kind == KindBeginArray,
			keys:  map[string]struct{}{},
			path:  path,
		})
		if e.opt.MaxDepth > 0 && len(e.scopes) > e.opt.MaxDepth {
			return Token{}, e.fail(CodeMaxDepth, path, "max depth exceeded")
		}
	case KindEndObject, KindEndArray:
		if n := len(e.scopes); n > 0 {
			e.scopes = e.scopes[:n-1]
		}
	case KindKey:
		if n := len(e.scopes); n > 0 {
			top := &e.scopes[n-1]
			top.key = tok.String
			if e.opt.OnDuplicate != DupIgnore {
				if _, dup := top.keys[tok.String]; dup {
					si := SimpleIssue{
						Code:    CodeDuplicateKey,
						Path:    joinPointer(top.path, tok.String),
						Message: "key '" + tok.String + "' duplicated",
					}
					if e.opt.OnDuplicate == DupError {
						return Token{}, e.failIssue(si)
					}
					if e.opt.IssueSink != nil {
						e.opt.IssueSink(si)
					}
				}
				top.keys[tok.String] = struct{}{}
			}
		}
	default:
		e.valuePath()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.inner.Location(); off >= 0 && off > e.opt.MaxBytes {
			return Token{}, e.fail(CodeMaxBytes, e.currentPath(), "max bytes exceeded")
		}
	}
	return tok, nil
}

// valuePath returns the pointer of the value starting at the current token
// and advances array indexes.
func (e *enforcingTokenSource) valuePath() string {
	n := len(e.scopes)
	if n == 0 {
		return ""
	}
	top := &e.scopes[n-1]
	if top.array {
		p := joinPointer(top.path, strconv.Itoa(top.index))
		top.index++
		return p
	}
	return joinPointer(top.path, top.key)
}

func (e *enforcingTokenSource) currentPath() string {
	if n := len(e.scopes); n > 0 {
		return e.scopes[n-1].path
	}
	return ""
}

func (e *enforcingTokenSource) fail(code, path, msg string) error {
	return e.failIssue(SimpleIssue{Code: code, Path: path, Message: msg})
}

func (e *enforcingTokenSource) failIssue(si SimpleIssue) error {
	if si.Path == "" {
		si.Path = "/"
	}
	if e.opt.IssueSink != nil {
		e.opt.IssueSink(si)
	}
	return IssueError{si}
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// EscapePointerToken escapes one JSON Pointer reference token (RFC 6901).
func EscapePointerToken(s string) string { return pointerEscaper.Replace(s) }

func joinPointer(base, token string) string {
	return base + "/" + EscapePointerToken(token)
}
