package gracedec

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Introspector derives a ModelDescriptor from a Go struct type.
type Introspector interface {
	Describe(t reflect.Type) (ModelDescriptor, error)
}

// ModelBuilder produces the descriptor of a model type.
type ModelBuilder func(t reflect.Type) (ModelDescriptor, error)

// Static returns a ModelBuilder for a hand-written descriptor table.
func Static(md ModelDescriptor) ModelBuilder {
	return func(reflect.Type) (ModelDescriptor, error) { return md, nil }
}

// Registry maps model types to compiled decoders. It is populated in two
// phases: Register every root model, then Build once. After Build it is
// read-only and safe for concurrent decodes.
type Registry struct {
	mu   sync.Mutex
	in   Introspector
	opts Options

	builders map[reflect.Type]ModelBuilder
	order    []reflect.Type

	handles     map[reflect.Type]*Handle
	handleOrder []reflect.Type

	// written by Build only; read without locks once sealed
	models map[reflect.Type]*model
	sealed atomic.Bool
}

// NewRegistry returns an empty registry. in synthesizes descriptors for
// models that are referenced but not registered; it may be nil when every
// model is registered with an explicit builder.
func NewRegistry(in Introspector, opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		in:       in,
		opts:     o,
		builders: map[reflect.Type]ModelBuilder{},
		handles:  map[reflect.Type]*Handle{},
	}
}

// Register records how to describe t. A nil builder uses the registry's
// introspector. Registering a type twice keeps the first builder.
func (r *Registry) Register(t reflect.Type, b ModelBuilder) error {
	t = modelType(t)
	if t == nil || t.Kind() != reflect.Struct {
		return DescriptorErrors{NewDescriptorError(fmt.Sprint(t), "", CodeUnsupportedType,
			map[string]string{"type": fmt.Sprint(t)})}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed.Load() {
		return ErrRegistrySealed
	}
	if b == nil {
		if r.in == nil {
			return DescriptorErrors{NewDescriptorError(t.String(), "", CodeUnresolvedModel,
				map[string]string{"type": t.String()})}
		}
		b = r.in.Describe
	}
	if _, ok := r.builders[t]; ok {
		return nil
	}
	r.builders[t] = b
	r.order = append(r.order, t)
	return nil
}

// Register records T using the registry's introspector.
func Register[T any](r *Registry) error {
	return r.Register(reflect.TypeFor[T](), nil)
}

// Resolve returns the lazily bound handle of t. The handle may be obtained
// before t is registered; it binds on first use after Build.
func (r *Registry) Resolve(t reflect.Type) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handleLocked(modelType(t))
}

func (r *Registry) handleLocked(t reflect.Type) *Handle {
	if h, ok := r.handles[t]; ok {
		return h
	}
	h := &Handle{reg: r, typ: t}
	r.handles[t] = h
	r.handleOrder = append(r.handleOrder, t)
	return h
}

// Describe returns the validated descriptor of t once the registry is built.
func (r *Registry) Describe(t reflect.Type) (ModelDescriptor, bool) {
	if !r.sealed.Load() {
		return ModelDescriptor{}, false
	}
	m, ok := r.models[modelType(t)]
	if !ok {
		return ModelDescriptor{}, false
	}
	return m.desc, true
}

// Built reports whether Build succeeded.
func (r *Registry) Built() bool { return r.sealed.Load() }

// Build describes, validates and compiles every registered model and every
// model reachable from them, decodes default literals and binds handles.
// On failure it returns DescriptorErrors and the registry stays open.
func (r *Registry) Build() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed.Load() {
		return ErrRegistrySealed
	}

	var errs DescriptorErrors
	queue := append([]reflect.Type(nil), r.order...)
	for _, t := range r.handleOrder {
		if _, ok := r.builders[t]; ok {
			continue
		}
		if r.in == nil || t.Kind() != reflect.Struct {
			errs = append(errs, NewDescriptorError(t.String(), "", CodeUnresolvedModel,
				map[string]string{"type": t.String()}))
			continue
		}
		r.builders[t] = r.in.Describe
		r.order = append(r.order, t)
		queue = append(queue, t)
	}

	descs := map[reflect.Type]ModelDescriptor{}
	for i := 0; i < len(queue); i++ {
		t := queue[i]
		md, err := r.describe(t)
		if err != nil {
			errs = appendDescriptorError(errs, t, err)
			continue
		}
		if err := md.Validate(ValidateOptions{AllowShadowedKeys: r.opts.AllowShadowedKeys}); err != nil {
			errs = appendDescriptorError(errs, t, err)
		}
		descs[t] = md
		for _, f := range md.Fields {
			var refs []reflect.Type
			collectModels(f.Shape, f.Type, &refs)
			for _, ref := range refs {
				if _, ok := r.builders[ref]; ok {
					continue
				}
				if r.in == nil {
					errs = append(errs, NewDescriptorError(md.Name, f.Name, CodeUnresolvedModel,
						map[string]string{"type": ref.String()}))
					continue
				}
				r.builders[ref] = r.in.Describe
				r.order = append(r.order, ref)
				queue = append(queue, ref)
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}

	r.models = make(map[reflect.Type]*model, len(queue))
	for _, t := range queue {
		r.models[t] = &model{desc: descs[t], typ: t, proto: reflect.New(t).Elem()}
	}
	for _, t := range queue {
		m := r.models[t]
		p, err := r.compile(m.desc)
		if err != nil {
			errs = appendDescriptorError(errs, t, err)
			continue
		}
		m.plan = p
	}
	if len(errs) == 0 {
		state := map[*model]int{}
		for _, t := range queue {
			errs = append(errs, r.prepare(r.models[t], state)...)
		}
	}
	for _, t := range r.handleOrder {
		if _, ok := r.models[t]; !ok {
			errs = append(errs, NewDescriptorError(t.String(), "", CodeUnresolvedModel,
				map[string]string{"type": t.String()}))
		}
	}
	if len(errs) > 0 {
		r.models = nil
		for _, h := range r.handles {
			h.bound.Store(nil)
		}
		return errs
	}
	r.sealed.Store(true)
	r.opts.Logger.Debug().Int("models", len(r.models)).Msg("registry built")
	return nil
}

// describe runs the builder of t and fills in what hand-written tables may
// leave out: model name, field index and field type.
func (r *Registry) describe(t reflect.Type) (ModelDescriptor, error) {
	md, err := r.builders[t](t)
	if err != nil {
		return ModelDescriptor{}, err
	}
	if md.Name == "" {
		md.Name = t.Name()
	}
	md.Type = t
	fields := make([]FieldDescriptor, len(md.Fields))
	var errs DescriptorErrors
	for i, f := range md.Fields {
		if len(f.Index) == 0 {
			sf, ok := t.FieldByName(f.Name)
			if !ok {
				errs = append(errs, NewDescriptorError(md.Name, f.Name, CodeUnsupportedType,
					map[string]string{"type": "<missing field>"}))
				continue
			}
			f.Index = sf.Index
		}
		if f.Type == nil {
			f.Type = t.FieldByIndex(f.Index).Type
		}
		if f.Owner == "" {
			f.Owner = md.Name
		}
		fields[i] = f
	}
	md.Fields = fields
	return md, errs.orNil()
}

func appendDescriptorError(errs DescriptorErrors, t reflect.Type, err error) DescriptorErrors {
	if des, ok := AsDescriptorErrors(err); ok {
		return append(errs, des...)
	}
	return append(errs, DescriptorError{Model: t.String(), Code: CodeUnsupportedType, Message: err.Error()})
}

func modelType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// collectModels appends the struct types referenced by a shape.
func collectModels(s Shape, t reflect.Type, out *[]reflect.Type) {
	t = modelType(t)
	if t == nil {
		return
	}
	switch s := s.(type) {
	case CompositeShape:
		if t.Kind() == reflect.Struct {
			*out = append(*out, t)
		}
	case SequenceShape:
		if t.Kind() == reflect.Slice {
			collectModels(s.Elem, t.Elem(), out)
		}
	case MappingShape:
		if t.Kind() == reflect.Map {
			collectModels(s.Value, t.Elem(), out)
		}
	}
}

// Handle is a lazily bound reference to a model's compiled decoder.
type Handle struct {
	reg   *Registry
	typ   reflect.Type
	mu    sync.Mutex
	bound atomic.Pointer[model]
}

// Type returns the model type the handle refers to.
func (h *Handle) Type() reflect.Type { return h.typ }

func (h *Handle) model() (*model, error) {
	if m := h.bound.Load(); m != nil {
		return m, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.bound.Load(); m != nil {
		return m, nil
	}
	m, ok := h.reg.models[h.typ]
	if !ok || m.plan == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, h.typ)
	}
	h.bound.Store(m)
	return m, nil
}
