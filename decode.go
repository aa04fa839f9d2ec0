package gracedec

import (
	"reflect"
	"strings"

	eng "github.com/reoring/gracedec/internal/engine"
)

// decodeState is shared by every codec of one top-level decode.
type decodeState struct {
	ts     *TokenStream
	opts   *Options
	path   []string
	models []string
	quiet  bool // no reporting (default literals)
}

func (st *decodeState) push(seg string) { st.path = append(st.path, seg) }
func (st *decodeState) pop()            { st.path = st.path[:len(st.path)-1] }

// pointer renders the current path as a JSON Pointer.
func (st *decodeState) pointer() string {
	if len(st.path) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, seg := range st.path {
		b.WriteByte('/')
		b.WriteString(eng.EscapePointerToken(seg))
	}
	return b.String()
}

func (st *decodeState) currentModel() string {
	if n := len(st.models); n > 0 {
		return st.models[n-1]
	}
	return ""
}

// abort drains the rest of the current object so the stream stays
// positioned past it, then returns err. A stream error while draining wins.
func (st *decodeState) abort(err error) error {
	if derr := st.ts.drainObject(); derr != nil {
		return derr
	}
	return err
}

type compositeCodec struct{ h *Handle }

func (c *compositeCodec) decode(st *decodeState) (reflect.Value, outcome, error) {
	m, err := c.h.model()
	if err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}
	return m.decode(st)
}

// decode runs the object state machine of one model. It returns
// outcomeNull for an explicit null and raises *GracefulFailure when the
// value is not an object or a Required field is not satisfied.
func (m *model) decode(st *decodeState) (reflect.Value, outcome, error) {
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
		return reflect.Value{}, outcomeMalformed, &GracefulFailure{Model: m.name(), Path: st.pointer(), Reason: ReasonShape}
	}
	if err := st.ts.EnterObject(); err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}
	st.models = append(st.models, m.name())
	defer func() { st.models = st.models[:len(st.models)-1] }()

	v := m.newInstance()
	steps := m.plan.steps
	satisfied := make([]bool, len(steps))
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
		i, known := m.plan.byKey[key]
		if !known || satisfied[i] {
			if err := st.ts.Skip(); err != nil {
				return reflect.Value{}, outcomeMalformed, err
			}
			continue
		}
		step := &steps[i]
		st.push(key)
		fv, oc, err := step.codec.decode(st)
		if err != nil {
			gf, raised := AsGracefulFailure(err)
			if !raised || step.policy == PolicyRequired {
				st.pop()
				if raised {
					err = st.abort(err)
				}
				return reflect.Value{}, outcomeMalformed, err
			}
			st.report(Event{Model: m.name(), Field: step.key, Path: st.pointer(), Reason: ReasonNested, Policy: step.policy, Cause: gf})
			m.tolerate(v, step)
			st.pop()
			continue
		}
		switch oc {
		case outcomeValue:
			v.FieldByIndex(step.index).Set(fv)
			satisfied[i] = true
		default:
			reason := ReasonMalformed
			if oc == outcomeNull {
				reason = ReasonNull
			}
			if step.policy == PolicyRequired {
				gf := &GracefulFailure{Model: m.name(), Field: step.key, Path: st.pointer(), Reason: reason}
				st.pop()
				return reflect.Value{}, outcomeMalformed, st.abort(gf)
			}
			// null is a legitimate value for a lenient field
			if reason != ReasonNull || step.policy != PolicyLenient {
				st.report(Event{Model: m.name(), Field: step.key, Path: st.pointer(), Reason: reason, Policy: step.policy})
			}
			m.tolerate(v, step)
		}
		st.pop()
	}
	if err := st.ts.ExitObject(); err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}

	for i := range steps {
		if steps[i].policy == PolicyRequired && !satisfied[i] && !steps[i].shadowed {
			st.push(steps[i].key)
			gf := &GracefulFailure{Model: m.name(), Field: steps[i].key, Path: st.pointer(), Reason: ReasonAbsent}
			st.pop()
			return reflect.Value{}, outcomeMalformed, gf
		}
	}
	return v, outcomeValue, nil
}

// tolerate applies a tolerant policy to a field whose value failed.
// DefaultOnFailure keeps the construction value.
func (m *model) tolerate(v reflect.Value, step *fieldStep) {
	if step.policy == PolicyLenient {
		f := v.FieldByIndex(step.index)
		f.Set(reflect.Zero(f.Type()))
	}
}

type ptrCodec struct {
	typ  reflect.Type
	elem valueCodec
}

func (c *ptrCodec) decode(st *decodeState) (reflect.Value, outcome, error) {
	k, err := st.ts.Peek()
	if err != nil {
		return reflect.Value{}, outcomeMalformed, err
	}
	if k == TokenNull {
		if err := st.ts.ConsumeNull(); err != nil {
			return reflect.Value{}, outcomeMalformed, err
		}
		return reflect.Value{}, outcomeNull, nil
	}
	ev, oc, err := c.elem.decode(st)
	if err != nil || oc != outcomeValue {
		return reflect.Value{}, oc, err
	}
	p := reflect.New(c.typ.Elem())
	p.Elem().Set(ev)
	return p, outcomeValue, nil
}
