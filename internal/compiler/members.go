package compiler

import (
	"fmt"
	"reflect"

	"github.com/sghaida/speedioc/artifact"
	"github.com/sghaida/speedioc/di"
)

var errorType = reflect.TypeFor[error]()

// bindMember resolves the target of m on instances of t.
func bindMember(t reflect.Type, m di.Member) (artifact.MemberBinding, error) {
	switch m.Kind {
	case di.FieldMember:
		return bindField(t, m)
	case di.PropertyMember:
		b, setterErr := bindMethod(t, m, "Set"+m.Name, []di.Injection{m.Value}, artifact.ViaSetter)
		if setterErr == nil {
			return b, nil
		}
		b, err := bindField(t, m)
		if err != nil {
			return artifact.MemberBinding{}, fmt.Errorf("%v; %v", setterErr, err)
		}
		return b, nil
	case di.MethodMember:
		return bindMethod(t, m, m.Name, m.Parameters, artifact.ViaMethod)
	default:
		return artifact.MemberBinding{}, fmt.Errorf("unknown member kind %s", m.Kind)
	}
}

func bindField(t reflect.Type, m di.Member) (artifact.MemberBinding, error) {
	st := structType(t)
	if st == nil {
		return artifact.MemberBinding{}, fmt.Errorf("field %s: %s is not a struct or pointer to struct", m.Name, t)
	}
	sf, ok := st.FieldByName(m.Name)
	if !ok || !sf.IsExported() {
		return artifact.MemberBinding{}, fmt.Errorf("field %s: no exported field on %s", m.Name, st)
	}
	if err := checkInjection(m.Value, sf.Type); err != nil {
		return artifact.MemberBinding{}, fmt.Errorf("field %s: %w", m.Name, err)
	}
	return artifact.MemberBinding{
		Kind:       m.Kind.String(),
		Name:       m.Name,
		Via:        artifact.ViaField,
		Target:     sf.Name,
		FieldIndex: sf.Index,
	}, nil
}

func bindMethod(t reflect.Type, m di.Member, name string, params []di.Injection, via artifact.Via) (artifact.MemberBinding, error) {
	ms := methodSet(t)
	method, ok := ms.MethodByName(name)
	if !ok {
		return artifact.MemberBinding{}, fmt.Errorf("method %s: not found on %s", name, ms)
	}
	ft := method.Type
	offset := receiverOffset(ms)
	if err := matchParameters(ft, offset, params); err != nil {
		return artifact.MemberBinding{}, fmt.Errorf("method %s: %w", name, err)
	}
	if via == artifact.ViaSetter && !(ft.NumOut() == 0 || (ft.NumOut() == 1 && ft.Out(0) == errorType)) {
		return artifact.MemberBinding{}, fmt.Errorf("method %s: setter must return nothing or an error", name)
	}
	return artifact.MemberBinding{
		Kind:      m.Kind.String(),
		Name:      m.Name,
		Via:       via,
		Target:    name,
		Signature: ft.String(),
	}, nil
}

// structType returns the struct behind t, or nil.
func structType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// methodSet returns the type whose methods are callable on instances of t.
// Struct values are handled through an addressable copy, so their pointer
// methods are included.
func methodSet(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		return t
	default:
		return reflect.PointerTo(t)
	}
}

// receiverOffset is 1 when method types include the receiver.
func receiverOffset(ms reflect.Type) int {
	if ms.Kind() == reflect.Interface {
		return 0
	}
	return 1
}

// resolvedReferences lists every Resolved injection of r.
func resolvedReferences(r *di.Registration) []di.Resolved {
	var out []di.Resolved
	collect := func(ins ...di.Injection) {
		for _, in := range ins {
			if v, ok := in.(di.Resolved); ok {
				out = append(out, v)
			}
		}
	}
	if r.Constructor != nil {
		collect(r.Constructor.Parameters...)
	}
	for _, m := range r.Members {
		if m.Kind == di.MethodMember {
			collect(m.Parameters...)
		} else {
			collect(m.Value)
		}
	}
	return out
}
