package compiler

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/sghaida/speedioc/artifact"
	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/internal/identity"
	"github.com/sghaida/speedioc/internal/runtime"
)

// argument produces one injected value of a fixed target type.
type argument func() (reflect.Value, error)

// applier injects one member into an addressable instance.
type applier func(obj reflect.Value) error

// linker binds a plan's active entries into a runtime.
type linker struct {
	g    *Generator
	regs []*di.Registration
	plan *artifact.Plan
	opts di.BuildOptions
	rt   *runtime.Resolver
}

// link checks the plan against the registrations, binds a handler per active
// entry, pre-creates the flagged Container and Process instances and seals
// the runtime.
func (l *linker) link() error {
	if got, want := len(l.plan.Entries), len(l.regs); got != want {
		return fmt.Errorf("plan has %d entries, %d registrations given", got, want)
	}

	type bound struct {
		h *runtime.Handler
		e artifact.Entry
	}
	var active []bound
	for i, e := range l.plan.Entries {
		if e.Index != i {
			return fmt.Errorf("entry %d has index %d", i, e.Index)
		}
		r := l.regs[i]
		id, err := identity.Identifier(r, i)
		if err != nil {
			return err
		}
		if id != e.Identifier {
			return fmt.Errorf("entry %d is %s, registration is %s", i, e.Identifier, id)
		}
		if e.Status != artifact.StatusActive {
			continue
		}
		h, err := l.handler(r, e)
		if err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, e.Identifier, err)
		}
		if err := l.rt.Bind(h); err != nil {
			return err
		}
		active = append(active, bound{h: h, e: e})
	}

	// Every handler is bound before pre-creation so resolved dependencies
	// are reachable.
	for _, b := range active {
		if !b.e.PreCreate || (b.e.Lifetime != di.Container && b.e.Lifetime != di.Process) {
			continue
		}
		v, err := b.h.Produce()
		if err != nil {
			return fmt.Errorf("pre-creating %s: %w", b.e.Identifier, err)
		}
		b.h.Instance = v
	}
	l.rt.Seal()
	return nil
}

// handler wraps the construction of r in its lifetime strategy.
func (l *linker) handler(r *di.Registration, e artifact.Entry) (*runtime.Handler, error) {
	construct, err := l.construction(r, e)
	if err != nil {
		return nil, err
	}
	lifetime := e.Lifetime.String()
	counted := func() (any, error) {
		v, err := construct()
		if err != nil {
			return nil, di.ConstructionError{Key: r.Key(), Err: err}
		}
		l.g.metrics.Construction(lifetime)
		return v, nil
	}

	var produce runtime.Producer
	switch e.Lifetime {
	case di.Transient:
		produce = runtime.Transient(counted)
	case di.Container:
		produce = runtime.ContainerSlot(counted)
	case di.Process:
		produce = runtime.ProcessSlot(l.g.process, l.opts.ArtifactIdentity, e.Identifier, counted)
	case di.Thread:
		produce = runtime.ThreadSlot(l.rt.Threads(), e.Index, counted)
	case di.Custom:
		if r.Manager == nil {
			return nil, errors.New("custom lifetime has no manager")
		}
		produce = runtime.CustomSlot(r.Manager, counted)
	default:
		return nil, fmt.Errorf("unknown lifetime %s", e.Lifetime)
	}
	return &runtime.Handler{
		Key:        r.Key(),
		Identifier: e.Identifier,
		Lifetime:   e.Lifetime,
		Produce:    produce,
	}, nil
}

// construction returns a producer that builds and injects a fresh instance.
func (l *linker) construction(r *di.Registration, e artifact.Entry) (runtime.Producer, error) {
	t := r.ConcreteType
	var build func() (reflect.Value, error)

	switch e.Construction.Kind {
	case artifact.ConstructPrimitive:
		if !r.HasPrimitiveValue {
			return nil, errors.New("registration has no primitive value")
		}
		if err := checkLiteral(r.PrimitiveValue, t); err != nil {
			return nil, err
		}
		v := literalValue(r.PrimitiveValue, t)
		build = func() (reflect.Value, error) { return v, nil }
	case artifact.ConstructExplicit:
		if r.Constructor == nil || r.Constructor.Func == nil {
			return nil, errors.New("registration has no constructor func")
		}
		call, err := l.call(r.Constructor.Func, e.Construction.Signature, r.Constructor.Parameters)
		if err != nil {
			return nil, err
		}
		build = call
	case artifact.ConstructDeclared:
		i := e.Construction.Index
		if i < 0 || i >= len(r.Constructors) {
			return nil, fmt.Errorf("declared constructor %d does not exist", i)
		}
		var params []di.Injection
		if r.Constructor != nil {
			params = r.Constructor.Parameters
		}
		call, err := l.call(r.Constructors[i], e.Construction.Signature, params)
		if err != nil {
			return nil, err
		}
		build = call
	case artifact.ConstructZero:
		if r.Constructor != nil {
			return nil, errors.New("zero construction of a registration with a constructor")
		}
		if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
			elem := t.Elem()
			build = func() (reflect.Value, error) { return reflect.New(elem), nil }
		} else {
			build = func() (reflect.Value, error) { return reflect.Zero(t), nil }
		}
	default:
		return nil, fmt.Errorf("unknown construction %q", e.Construction.Kind)
	}

	appliers, err := l.members(r, e)
	if err != nil {
		return nil, err
	}
	return func() (any, error) {
		v, err := build()
		if err != nil {
			return nil, err
		}
		if len(appliers) == 0 {
			return v.Interface(), nil
		}
		obj, err := addressable(v)
		if err != nil {
			return nil, err
		}
		for _, apply := range appliers {
			if err := apply(obj); err != nil {
				return nil, err
			}
		}
		return obj.Interface(), nil
	}, nil
}

// call prepares fn with the given parameters. signature guards against a
// constructor that changed since the plan was written.
func (l *linker) call(fn any, signature string, params []di.Injection) (func() (reflect.Value, error), error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor %T is not a func", fn)
	}
	ft := fv.Type()
	if ft.String() != signature {
		return nil, fmt.Errorf("constructor is %s, plan expects %s", ft, signature)
	}
	if err := matchParameters(ft, 0, params); err != nil {
		return nil, err
	}
	args := l.arguments(ft, 0, params)
	return func() (reflect.Value, error) {
		in, err := evaluate(args)
		if err != nil {
			return reflect.Value{}, err
		}
		out := fv.Call(in)
		if err := trailingError(out); err != nil {
			return reflect.Value{}, err
		}
		return out[0], nil
	}, nil
}

func (l *linker) arguments(ft reflect.Type, offset int, params []di.Injection) []argument {
	args := make([]argument, len(params))
	for i, p := range params {
		args[i] = l.argument(p, ft.In(i+offset))
	}
	return args
}

// argument prepares one injection. Literals are converted once; factories
// and resolved values are evaluated at every construction.
func (l *linker) argument(in di.Injection, target reflect.Type) argument {
	switch v := in.(type) {
	case di.Value:
		val := literalValue(v.V, target)
		return func() (reflect.Value, error) { return val, nil }
	case di.ValueFactory:
		return func() (reflect.Value, error) {
			return fit(v.Produce(), target, "value factory")
		}
	case di.Resolved:
		return func() (reflect.Value, error) {
			got, err := l.rt.ResolveNamed(v.T, v.Name)
			if err != nil {
				return reflect.Value{}, err
			}
			return fit(got, target, "resolved "+di.Key{Type: v.T, Name: v.Name}.String())
		}
	default:
		return func() (reflect.Value, error) {
			return reflect.Value{}, fmt.Errorf("unknown injection %T", in)
		}
	}
}

// fit checks a produced value against target; nil becomes the zero value.
func fit(v any, target reflect.Type, source string) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(target) {
		return reflect.Value{}, fmt.Errorf("%s produced %s, want %s", source, rv.Type(), target)
	}
	return rv, nil
}

func evaluate(args []argument) ([]reflect.Value, error) {
	out := make([]reflect.Value, len(args))
	for i, a := range args {
		v, err := a()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func trailingError(out []reflect.Value) error {
	if len(out) == 0 {
		return nil
	}
	last := out[len(out)-1]
	if last.Type() != errorType || last.IsNil() {
		return nil
	}
	return last.Interface().(error)
}

// members prepares the member injections recorded for e.
func (l *linker) members(r *di.Registration, e artifact.Entry) ([]applier, error) {
	if len(e.Members) != len(r.Members) {
		return nil, fmt.Errorf("plan binds %d members, registration has %d", len(e.Members), len(r.Members))
	}
	out := make([]applier, len(r.Members))
	for k, m := range r.Members {
		b := e.Members[k]
		if b.Name != m.Name || b.Kind != m.Kind.String() {
			return nil, fmt.Errorf("member %d is %s %s, plan has %s %s", k, m.Kind, m.Name, b.Kind, b.Name)
		}
		var err error
		switch b.Via {
		case artifact.ViaField:
			out[k], err = l.fieldApplier(r.ConcreteType, m, b)
		case artifact.ViaSetter:
			out[k], err = l.methodApplier(r.ConcreteType, b, []di.Injection{m.Value})
		case artifact.ViaMethod:
			out[k], err = l.methodApplier(r.ConcreteType, b, m.Parameters)
		default:
			err = fmt.Errorf("unknown member binding %q", b.Via)
		}
		if err != nil {
			return nil, fmt.Errorf("member %d (%s): %w", k, m.Name, err)
		}
	}
	return out, nil
}

func (l *linker) fieldApplier(t reflect.Type, m di.Member, b artifact.MemberBinding) (applier, error) {
	st := structType(t)
	if st == nil {
		return nil, fmt.Errorf("%s is not a struct or pointer to struct", t)
	}
	sf, err := fieldByIndex(st, b.FieldIndex)
	if err != nil {
		return nil, err
	}
	if sf.Name != b.Target || !sf.IsExported() {
		return nil, fmt.Errorf("field %v of %s is %s, plan expects %s", b.FieldIndex, st, sf.Name, b.Target)
	}
	if err := checkInjection(m.Value, sf.Type); err != nil {
		return nil, err
	}
	arg := l.argument(m.Value, sf.Type)
	index := b.FieldIndex
	return func(obj reflect.Value) error {
		v, err := arg()
		if err != nil {
			return err
		}
		target := obj
		if target.Kind() == reflect.Pointer {
			if target.IsNil() {
				return fmt.Errorf("cannot set field %s on a nil %s", b.Target, target.Type())
			}
			target = target.Elem()
		}
		f, err := target.FieldByIndexErr(index)
		if err != nil {
			return err
		}
		f.Set(v)
		return nil
	}, nil
}

// fieldByIndex is reflect.Type.FieldByIndex without the panics.
func fieldByIndex(st reflect.Type, index []int) (reflect.StructField, error) {
	if len(index) == 0 {
		return reflect.StructField{}, errors.New("empty field index")
	}
	t := st
	var sf reflect.StructField
	for depth, i := range index {
		if depth > 0 && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct || i < 0 || i >= t.NumField() {
			return reflect.StructField{}, fmt.Errorf("field index %v out of range for %s", index, st)
		}
		sf = t.Field(i)
		t = sf.Type
	}
	return sf, nil
}

func (l *linker) methodApplier(t reflect.Type, b artifact.MemberBinding, params []di.Injection) (applier, error) {
	ms := methodSet(t)
	method, ok := ms.MethodByName(b.Target)
	if !ok {
		return nil, fmt.Errorf("method %s not found on %s", b.Target, ms)
	}
	if method.Type.String() != b.Signature {
		return nil, fmt.Errorf("method %s is %s, plan expects %s", b.Target, method.Type, b.Signature)
	}
	offset := receiverOffset(ms)
	if err := matchParameters(method.Type, offset, params); err != nil {
		return nil, err
	}
	args := l.arguments(method.Type, offset, params)
	name := b.Target
	return func(obj reflect.Value) error {
		fn := boundMethod(obj, name)
		if !fn.IsValid() {
			return fmt.Errorf("method %s not found on %s", name, obj.Type())
		}
		in, err := evaluate(args)
		if err != nil {
			return err
		}
		return trailingError(fn.Call(in))
	}, nil
}

func boundMethod(obj reflect.Value, name string) reflect.Value {
	if obj.Kind() != reflect.Pointer && obj.Kind() != reflect.Interface && obj.CanAddr() {
		return obj.Addr().MethodByName(name)
	}
	return obj.MethodByName(name)
}

// addressable unwraps interfaces and copies struct values so that fields
// can be set and pointer methods called.
func addressable(v reflect.Value) (reflect.Value, error) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, errors.New("constructor returned a nil interface")
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("constructor returned a nil %s", v.Type())
		}
		return v, nil
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp, nil
}
