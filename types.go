package gracedec

import "github.com/rs/zerolog"

// Severity expresses the severity level for stream issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys and NaN handling.
type Strictness struct {
	OnDuplicateKey Severity // Warn or Error (duplicate JSON keys).
	AllowNaN       bool     // Accept "NaN" and "±Inf" strings for float fields.
}

// ParseOpt bundles token stream enforcement options.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
}

func (o ParseOpt) enforcing() bool {
	return o.Strictness.OnDuplicateKey != Ignore || o.MaxDepth > 0 || o.MaxBytes > 0
}

// Options configures a Registry.
type Options struct {
	Logger            zerolog.Logger
	Reporter          Reporter
	Parse             ParseOpt
	OmitNulls         bool
	LongAsString      bool
	AllowShadowedKeys bool
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{Logger: zerolog.Nop()}
}

// WithLogger logs absorbed and escalated failures at debug level.
func WithLogger(l zerolog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithReporter receives absorbed and escalated failures.
func WithReporter(r Reporter) Option { return func(o *Options) { o.Reporter = r } }

// WithParseOpt enables duplicate key, depth and size enforcement on every
// decode through the registry.
func WithParseOpt(p ParseOpt) Option { return func(o *Options) { o.Parse = p } }

// WithStrictness sets only the strictness part of ParseOpt.
func WithStrictness(s Strictness) Option { return func(o *Options) { o.Parse.Strictness = s } }

// WithOmitNulls makes encoders skip nil nullable fields instead of writing null.
func WithOmitNulls() Option { return func(o *Options) { o.OmitNulls = true } }

// WithLongAsString makes encoders write int64 and uint64 values as JSON strings.
func WithLongAsString() Option { return func(o *Options) { o.LongAsString = true } }

// WithAllowShadowedKeys accepts models where two fields claim the same wire
// key; the later-declared field wins.
func WithAllowShadowedKeys() Option { return func(o *Options) { o.AllowShadowedKeys = true } }
