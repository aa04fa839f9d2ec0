package gracedec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/gracedec/i18n"
)

// Descriptor error codes (generation time).
const (
	CodeEmptyWireKeys      = "empty_wire_keys"
	CodeMixedDefaults      = "mixed_defaults"
	CodeDuplicateKey       = "duplicate_key"
	CodeNullableNotNilable = "nullable_not_nilable"
	CodeInvalidDefault     = "invalid_default"
	CodeUnsupportedType    = "unsupported_type"
	CodeUnresolvedModel    = "unresolved_model"
)

// Stream error codes (decode time).
const (
	CodeParseError    = "parse_error"
	CodeUnexpectedEOF = "unexpected_eof"
	CodeTrailingData  = "trailing_data"
	CodeMaxDepth      = "max_depth"
	CodeMaxBytes      = "max_bytes"
)

var (
	// ErrRegistrySealed is returned by Register and Build once Build succeeded.
	ErrRegistrySealed = errors.New("gracedec: registry is sealed")
	// ErrRegistryNotBuilt is returned when decoding through a registry before Build.
	ErrRegistryNotBuilt = errors.New("gracedec: registry is not built")
	// ErrUnknownModel is returned by For when the type was never registered
	// nor referenced by a registered model.
	ErrUnknownModel = errors.New("gracedec: unknown model")
)

// Reason classifies why a field value could not be used.
type Reason string

const (
	ReasonMalformed Reason = "malformed"
	ReasonNull      Reason = "null"
	ReasonAbsent    Reason = "absent"
	// ReasonNested marks a field whose composite value raised a failure.
	ReasonNested Reason = "nested"
	// ReasonShape marks a model value that is neither an object nor null.
	ReasonShape Reason = "shape"
	// ReasonStream marks a top-level failure caused by a StreamError.
	ReasonStream Reason = "stream"
)

// GracefulFailure is raised when a Required field cannot be satisfied. It
// aborts the decode of the owning model and is absorbed by the first
// ancestor whose field is Lenient or DefaultOnFailure.
type GracefulFailure struct {
	Model  string // model that raised
	Field  string // primary wire key of the failing field; empty for shape/stream
	Path   string // JSON Pointer of the failing value
	Reason Reason
	Cause  error
}

func (f *GracefulFailure) Error() string {
	b := &strings.Builder{}
	b.WriteString("gracedec: cannot decode ")
	b.WriteString(f.Model)
	if f.Field != "" {
		b.WriteString(".")
		b.WriteString(f.Field)
	}
	fmt.Fprintf(b, ": %s", f.Reason)
	if f.Path != "" {
		fmt.Fprintf(b, " at %s", f.Path)
	}
	if f.Cause != nil {
		fmt.Fprintf(b, ": %v", f.Cause)
	}
	return b.String()
}

func (f *GracefulFailure) Unwrap() error { return f.Cause }

// StreamError reports a token stream that cannot be read any further:
// tokenizer errors, premature end of input, enforcement violations. It is
// never absorbed by field policies.
type StreamError struct {
	Code   string
	Path   string
	Offset int64
	Err    error
}

func (e *StreamError) Error() string {
	msg := i18n.T(e.Code, nil)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StreamError) Unwrap() error { return e.Err }

// DescriptorError is a generation-time problem with a model descriptor.
type DescriptorError struct {
	Model   string
	Field   string
	Code    string
	Message string
}

func (e DescriptorError) Error() string {
	loc := e.Model
	if e.Field != "" {
		loc += "." + e.Field
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Code, e.Message)
}

// NewDescriptorError builds a DescriptorError with a translated message.
func NewDescriptorError(model, field, code string, data map[string]string) DescriptorError {
	return DescriptorError{Model: model, Field: field, Code: code, Message: i18n.T(code, data)}
}

// DescriptorErrors aggregates DescriptorError values and implements error.
type DescriptorErrors []DescriptorError

// Error summarizes the first few entries.
func (es DescriptorErrors) Error() string {
	if len(es) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(es), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(es[i].Error())
	}
	if len(es) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(es))
	}
	return b.String()
}

// Has reports whether any entry carries code.
func (es DescriptorErrors) Has(code string) bool {
	for _, e := range es {
		if e.Code == code {
			return true
		}
	}
	return false
}

func (es DescriptorErrors) orNil() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// AsGracefulFailure extracts a *GracefulFailure from err.
func AsGracefulFailure(err error) (*GracefulFailure, bool) {
	var gf *GracefulFailure
	if errors.As(err, &gf) {
		return gf, true
	}
	return nil, false
}

// AsStreamError extracts a *StreamError from err.
func AsStreamError(err error) (*StreamError, bool) {
	var se *StreamError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsDescriptorErrors extracts DescriptorErrors from err.
func AsDescriptorErrors(err error) (DescriptorErrors, bool) {
	if err == nil {
		return nil, false
	}
	var es DescriptorErrors
	if errors.As(err, &es) {
		return es, true
	}
	return nil, false
}
