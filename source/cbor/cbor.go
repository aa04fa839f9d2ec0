// Package cbor exposes CBOR documents as a gracedec token stream.
//
// The document is decoded with fxamacker/cbor into a generic tree and then
// replayed as tokens. Map keys are emitted in sorted order because CBOR
// decoding into Go maps does not keep wire order.
package cbor

import (
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/reoring/gracedec"
	eng "github.com/reoring/gracedec/internal/engine"
)

var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IntDec:          cbor.IntDecConvertNone,
		TimeTag:         cbor.DecTagOptional,
		DefaultMapType:  reflect.TypeOf(map[any]any(nil)),
		MaxNestedLevels: 256,
	}.DecMode()
	if err != nil {
		panic("cbor: decoder initialization failed: " + err.Error())
	}
}

// Bytes returns a gracedec.Source over a single CBOR data item.
func Bytes(b []byte) gracedec.Source { return gracedec.SourceFromEngine(NewBytes(b)) }

// Reader returns a gracedec.Source reading one CBOR data item from r.
func Reader(r io.Reader) gracedec.Source { return gracedec.SourceFromEngine(NewReader(r)) }

// NewBytes decodes b and returns the replayed token stream.
func NewBytes(b []byte) eng.TokenSource {
	var v any
	if err := decMode.Unmarshal(b, &v); err != nil {
		return &eng.SliceSource{Err: fmt.Errorf("cbor: %w", err)}
	}
	return materialize(v)
}

// NewReader decodes one data item from r.
func NewReader(r io.Reader) eng.TokenSource {
	var v any
	if err := decMode.NewDecoder(r).Decode(&v); err != nil {
		return &eng.SliceSource{Err: fmt.Errorf("cbor: %w", err)}
	}
	return materialize(v)
}

func materialize(v any) eng.TokenSource {
	var toks []eng.Token
	if err := appendTokens(&toks, v); err != nil {
		return &eng.SliceSource{Err: err}
	}
	return &eng.SliceSource{Tokens: toks}
}

func appendTokens(out *[]eng.Token, v any) error {
	switch x := v.(type) {
	case nil:
		*out = append(*out, eng.Token{Kind: eng.KindNull, Offset: -1})
	case bool:
		*out = append(*out, eng.Token{Kind: eng.KindBool, Bool: x, Offset: -1})
	case string:
		*out = append(*out, eng.Token{Kind: eng.KindString, String: x, Offset: -1})
	case []byte:
		*out = append(*out, eng.Token{Kind: eng.KindString, String: base64.StdEncoding.EncodeToString(x), Offset: -1})
	case uint64:
		*out = append(*out, number(strconv.FormatUint(x, 10)))
	case int64:
		*out = append(*out, number(strconv.FormatInt(x, 10)))
	case float64:
		*out = append(*out, float(x))
	case float32:
		*out = append(*out, float(float64(x)))
	case big.Int:
		*out = append(*out, number(x.String()))
	case *big.Int:
		*out = append(*out, number(x.String()))
	case time.Time:
		*out = append(*out, eng.Token{Kind: eng.KindString, String: x.Format(time.RFC3339Nano), Offset: -1})
	case cbor.Tag:
		return appendTokens(out, x.Content)
	case cbor.SimpleValue:
		*out = append(*out, number(strconv.FormatUint(uint64(x), 10)))
	case []any:
		*out = append(*out, eng.Token{Kind: eng.KindBeginArray, Offset: -1})
		for _, e := range x {
			if err := appendTokens(out, e); err != nil {
				return err
			}
		}
		*out = append(*out, eng.Token{Kind: eng.KindEndArray, Offset: -1})
	case map[any]any:
		return appendMap(out, x)
	default:
		return fmt.Errorf("cbor: unsupported data item %T", v)
	}
	return nil
}

func appendMap(out *[]eng.Token, m map[any]any) error {
	keys := make([]string, 0, len(m))
	vals := make(map[string]any, len(m))
	for k, v := range m {
		ks, err := keyString(k)
		if err != nil {
			return err
		}
		if _, dup := vals[ks]; dup {
			return fmt.Errorf("cbor: map key %q collides after conversion to text", ks)
		}
		keys = append(keys, ks)
		vals[ks] = v
	}
	sort.Strings(keys)
	*out = append(*out, eng.Token{Kind: eng.KindBeginObject, Offset: -1})
	for _, k := range keys {
		*out = append(*out, eng.Token{Kind: eng.KindKey, String: k, Offset: -1})
		if err := appendTokens(out, vals[k]); err != nil {
			return err
		}
	}
	*out = append(*out, eng.Token{Kind: eng.KindEndObject, Offset: -1})
	return nil
}

func keyString(k any) (string, error) {
	switch x := k.(type) {
	case string:
		return x, nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("cbor: unsupported map key type %T", k)
	}
}

func number(text string) eng.Token { return eng.Token{Kind: eng.KindNumber, Number: text, Offset: -1} }

// float keeps NaN and infinities out of numeric tokens; they surface as
// strings so scalar coercion applies the NaN policy.
func float(f float64) eng.Token {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return eng.Token{Kind: eng.KindString, String: strconv.FormatFloat(f, 'g', -1, 64), Offset: -1}
	}
	return number(strconv.FormatFloat(f, 'g', -1, 64))
}
