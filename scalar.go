package gracedec

import (
	"encoding"
	"math"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

type scalarCodec struct {
	kind ScalarKind
	typ  reflect.Type
}

func (c *scalarCodec) decode(st *decodeState) (reflect.Value, outcome, error) {
	k, err := st.ts.Peek()
	if err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}
	switch k {
	case TokenNull:
		if err := st.ts.ConsumeNull(); err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		return reflect.Value{}, outcomeNull, nil
	case TokenString, TokenNumber, TokenBool:
		tok, err := st.ts.ConsumeScalar()
		if err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		v, ok := coerceScalar(c.kind, c.typ, tok, st.opts.Parse.Strictness.AllowNaN)
		if !ok {
			return reflect.Value{}, outcomeMalformed, nil
		}
		return v, outcomeValue, nil
	}
	if err := st.ts.Skip(); err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}
	return reflect.Value{}, outcomeMalformed, nil
}

// coerceScalar converts a scalar token into a value of typ.
//
//   - integers accept numbers and numeric strings with an integral value in range
//   - floats accept numbers and numeric strings; NaN and infinities need allowNaN
//   - bools accept true/false, the strings "true"/"false" in any case, and 1/0
//   - strings and text values accept string tokens only
func coerceScalar(kind ScalarKind, typ reflect.Type, tok Token, allowNaN bool) (reflect.Value, bool) {
	v := reflect.New(typ).Elem()
	switch {
	case kind == KindBool:
		b, ok := coerceBool(tok)
		if !ok {
			return reflect.Value{}, false
		}
		v.SetBool(b)
	case kind.isSigned():
		text, ok := numericText(tok)
		if !ok {
			return reflect.Value{}, false
		}
		i, ok := parseSignedKind(kind, text)
		if !ok {
			return reflect.Value{}, false
		}
		v.SetInt(i)
	case kind.isUnsigned():
		text, ok := numericText(tok)
		if !ok {
			return reflect.Value{}, false
		}
		u, ok := parseUnsignedKind(kind, text)
		if !ok {
			return reflect.Value{}, false
		}
		v.SetUint(u)
	case kind.isFloat():
		text, ok := numericText(tok)
		if !ok {
			return reflect.Value{}, false
		}
		bits := 64
		if kind == KindFloat32 {
			bits = 32
		}
		f, err := strconv.ParseFloat(text, bits)
		if err != nil || (!allowNaN && (math.IsNaN(f) || math.IsInf(f, 0))) {
			return reflect.Value{}, false
		}
		v.SetFloat(f)
	case kind == KindString:
		if tok.Kind != TokenString {
			return reflect.Value{}, false
		}
		v.SetString(tok.String)
	case kind == KindText:
		if tok.Kind != TokenString {
			return reflect.Value{}, false
		}
		p := reflect.New(typ)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(tok.String)); err != nil {
			return reflect.Value{}, false
		}
		return p.Elem(), true
	default:
		return reflect.Value{}, false
	}
	return v, true
}

func coerceBool(tok Token) (bool, bool) {
	switch tok.Kind {
	case TokenBool:
		return tok.Bool, true
	case TokenString:
		switch {
		case strings.EqualFold(tok.String, "true"):
			return true, true
		case strings.EqualFold(tok.String, "false"):
			return false, true
		}
	case TokenNumber:
		if i, err := strconv.ParseInt(tok.Number, 10, 64); err == nil {
			switch i {
			case 1:
				return true, true
			case 0:
				return false, true
			}
		}
	}
	return false, false
}

func numericText(tok Token) (string, bool) {
	switch tok.Kind {
	case TokenNumber:
		return tok.Number, true
	case TokenString:
		return tok.String, true
	}
	return "", false
}

func parseSignedKind(kind ScalarKind, text string) (int64, bool) {
	switch kind {
	case KindInt8:
		return widenSigned(parseSigned[int8](text))
	case KindInt16:
		return widenSigned(parseSigned[int16](text))
	case KindInt32:
		return widenSigned(parseSigned[int32](text))
	case KindInt64:
		return widenSigned(parseSigned[int64](text))
	default:
		return widenSigned(parseSigned[int](text))
	}
}

func parseUnsignedKind(kind ScalarKind, text string) (uint64, bool) {
	switch kind {
	case KindUint8:
		return widenUnsigned(parseUnsigned[uint8](text))
	case KindUint16:
		return widenUnsigned(parseUnsigned[uint16](text))
	case KindUint32:
		return widenUnsigned(parseUnsigned[uint32](text))
	case KindUint64:
		return widenUnsigned(parseUnsigned[uint64](text))
	default:
		return widenUnsigned(parseUnsigned[uint](text))
	}
}

func widenSigned[T constraints.Signed](v T, ok bool) (int64, bool)       { return int64(v), ok }
func widenUnsigned[T constraints.Unsigned](v T, ok bool) (uint64, bool) { return uint64(v), ok }

// parseSigned parses decimal integer text, falling back to integral
// floating point text such as "1.0" or "1e3".
func parseSigned[T constraints.Signed](text string) (T, bool) {
	bits := reflect.TypeFor[T]().Bits()
	if i, err := strconv.ParseInt(text, 10, bits); err == nil {
		return T(i), true
	}
	f, ok := integralFloat(text)
	if !ok {
		return 0, false
	}
	limit := math.Ldexp(1, bits-1)
	if f < -limit || f >= limit {
		return 0, false
	}
	return T(f), true
}

func parseUnsigned[T constraints.Unsigned](text string) (T, bool) {
	bits := reflect.TypeFor[T]().Bits()
	if u, err := strconv.ParseUint(text, 10, bits); err == nil {
		return T(u), true
	}
	f, ok := integralFloat(text)
	if !ok || f < 0 || f >= math.Ldexp(1, bits) {
		return 0, false
	}
	return T(f), true
}

func integralFloat(text string) (float64, bool) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return f, true
}
