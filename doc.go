// Package gracedec decodes JSON-like documents into Go structs one field at a
// time, so that a malformed field costs that field instead of the document.
//
// Every field gets one of three policies, derived from its descriptor:
//
//   - Lenient (nullable field): any failure leaves the field nil.
//   - DefaultOnFailure (field with a static default): any failure keeps the default.
//   - Required (neither): any failure aborts the enclosing model with a
//     *GracefulFailure, which the nearest tolerant ancestor absorbs.
//
// Sequences and maps drop the elements that fail instead of failing
// themselves.
//
// Models are described by an Introspector (see package introspect) or by
// hand-written ModelDescriptor tables, registered on a Registry and compiled
// once by Build:
//
//	reg := gracedec.NewRegistry(introspect.New())
//	_ = gracedec.Register[Order](reg)
//	if err := reg.Build(); err != nil { ... }
//	order, err := gracedec.Unmarshal[Order](reg, data)
//
// Input is consumed as a token stream (Source); JSON is the default, and the
// source/ subpackages add go-json, JSONC, YAML and CBOR.
package gracedec
