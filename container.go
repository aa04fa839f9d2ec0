package gracedec

import (
	"reflect"
	"strconv"
)

// seqCodec decodes []E. Elements that fail are dropped; the sequence
// itself only fails when the value is not an array.
type seqCodec struct {
	typ      reflect.Type
	elem     valueCodec
	keepNull bool // element type can hold nil
}

func (c *seqCodec) decode(st *decodeState) (reflect.Value, outcome, error) {
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
	case TokenBeginArray:
	default:
		if err := st.ts.Skip(); err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		return reflect.Value{}, outcomeMalformed, nil
	}
	if err := st.ts.EnterArray(); err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}
	out := reflect.MakeSlice(c.typ, 0, 0)
	for i := 0; ; i++ {
		more, err := st.ts.More()
		if err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		if !more {
			break
		}
		st.push(strconv.Itoa(i))
		ev, ok, err := decodeElement(st, c.elem, c.keepNull, c.typ.Elem())
		st.pop()
		if err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		if ok {
			out = reflect.Append(out, ev)
		}
	}
	if err := st.ts.ExitArray(); err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}
	return out, outcomeValue, nil
}

// mapCodec decodes map[K]V. Entries with unparsable keys or failing values
// are dropped.
type mapCodec struct {
	typ      reflect.Type
	key      ScalarKind
	elem     valueCodec
	keepNull bool
}

func (c *mapCodec) decode(st *decodeState) (reflect.Value, outcome, error) {
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
	case TokenBeginObject:
	default:
		if err := st.ts.Skip(); err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		return reflect.Value{}, outcomeMalformed, nil
	}
	if err := st.ts.EnterObject(); err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}
	out := reflect.MakeMap(c.typ)
	for {
		more, err := st.ts.More()
		if err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		if !more {
			break
		}
		key, err := st.ts.NextKey()
		if err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		st.push(key)
		kv, ok := coerceScalar(c.key, c.typ.Key(), Token{Kind: TokenString, String: key}, false)
		if !ok {
			st.report(Event{Model: st.currentModel(), Path: st.pointer(), Reason: ReasonMalformed, Element: true})
			err := st.ts.Skip()
			st.pop()
			if err != nil {
				return reflect.Value{}, outcomeMalformed, err
			}
			continue
		}
		ev, ok, err := decodeElement(st, c.elem, c.keepNull, c.typ.Elem())
		st.pop()
		if err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		if ok {
			out.SetMapIndex(kv, ev)
		}
	}
	if err := st.ts.ExitObject(); err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}
	return out, outcomeValue, nil
}

// decodeElement decodes one container element. ok is false when the
// element is dropped; err is only ever a stream error.
func decodeElement(st *decodeState, c valueCodec, keepNull bool, typ reflect.Type) (reflect.Value, bool, error) {
	ev, oc, err := c.decode(st)
	if err != nil {
		gf, raised := AsGracefulFailure(err)
		if !raised {
			return reflect.Value{}, false, err
		}
		st.report(Event{Model: st.currentModel(), Path: st.pointer(), Reason: ReasonNested, Element: true, Cause: gf})
		return reflect.Value{}, false, nil
	}
	switch oc {
	case outcomeValue:
		return ev, true, nil
	case outcomeNull:
		if keepNull {
			return reflect.Zero(typ), true, nil
		}
		st.report(Event{Model: st.currentModel(), Path: st.pointer(), Reason: ReasonNull, Element: true})
		return reflect.Value{}, false, nil
	default:
		st.report(Event{Model: st.currentModel(), Path: st.pointer(), Reason: ReasonMalformed, Element: true})
		return reflect.Value{}, false, nil
	}
}
