// Package jsonc reads JSON with comments and trailing commas. Input is
// normalized with tidwall/jsonc and then tokenized by the default JSON
// source.
package jsonc

import (
	"io"

	"github.com/tidwall/jsonc"

	"github.com/reoring/gracedec"
	eng "github.com/reoring/gracedec/internal/engine"
	jsonsrc "github.com/reoring/gracedec/source/json"
)

// Driver returns a gracedec.JSONDriver that accepts JSONC input.
func Driver() gracedec.JSONDriver { return driver{} }

type driver struct{}

func (driver) NewReader(r io.Reader) gracedec.Source { return gracedec.SourceFromEngine(NewReader(r)) }
func (driver) NewBytes(b []byte) gracedec.Source     { return gracedec.SourceFromEngine(NewBytes(b)) }
func (driver) Name() string                          { return "jsonc" }

// NewBytes strips comments and trailing commas from b and tokenizes the result.
func NewBytes(b []byte) eng.TokenSource {
	return jsonsrc.NewBytes(jsonc.ToJSON(b))
}

// NewReader buffers r fully; comment stripping needs the whole document.
func NewReader(r io.Reader) eng.TokenSource {
	b, err := io.ReadAll(r)
	if err != nil {
		return &eng.SliceSource{Err: err}
	}
	return NewBytes(b)
}
