package di

import (
	"errors"
	"reflect"
)

// Registry is an ordered unit of configuration.
//
// RegisterTypes is invoked exactly once per build with a fresh Registrar and
// declares zero or more registrations on it.
//
// Expected usage:
//
//	type VehicleRegistry struct{}
//
//	func (VehicleRegistry) RegisterTypes(r *di.Registrar) {
//		r.Register(di.TypeOf[*Car]()).As(di.TypeOf[Vehicle]())
//	}
type Registry interface {
	RegisterTypes(r *Registrar)
}

// RegistryFunc adapts a function to Registry.
type RegistryFunc func(r *Registrar)

// RegisterTypes calls f(r).
func (f RegistryFunc) RegisterTypes(r *Registrar) { f(r) }

// ErrRegistryPanic is returned if a registry panics while registering types.
var ErrRegistryPanic = errors.New("di: panic during RegisterTypes")

// Registrar collects registrations in declaration order.
type Registrar struct {
	registrations []*Registration
	catalog       []any
}

// NewRegistrar returns an empty Registrar.
func NewRegistrar() *Registrar {
	return &Registrar{}
}

// Register appends a Transient registration for t and returns its builder.
//
// The registration is visible in Registrations immediately, before the chain
// completes. A nil t is accepted here and rejected at generation time.
func (r *Registrar) Register(t reflect.Type) *RegistrationBuilder {
	reg := &Registration{ConcreteType: t, Lifetime: Transient}
	r.registrations = append(r.registrations, reg)
	return &RegistrationBuilder{reg: reg}
}

// Register is the generic form of (*Registrar).Register.
func Register[T any](r *Registrar) *RegistrationBuilder {
	return r.Register(TypeOf[T]())
}

// DeclareConstructors adds constructor functions to the catalog.
//
// Each fn must be a func returning T or (T, error). A registration receives
// every catalog entry whose T is assignable to its concrete type, in
// declaration order. DeclareConstructors panics with an ArgumentError on
// anything else; during aggregation the panic surfaces as ErrRegistryPanic.
func (r *Registrar) DeclareConstructors(fns ...any) *Registrar {
	for i, fn := range fns {
		if _, err := ConstructorResult(fn); err != nil {
			panic(ArgumentError{Argument: "constructor", Index: i, Reason: err.Error()})
		}
		r.catalog = append(r.catalog, fn)
	}
	return r
}

// Registrations returns the registrations in declaration order with their
// constructor catalogs attached.
func (r *Registrar) Registrations() []*Registration {
	for _, reg := range r.registrations {
		if reg.ConcreteType == nil || len(r.catalog) == 0 {
			continue
		}
		reg.Constructors = r.catalogFor(reg.ConcreteType)
	}
	out := make([]*Registration, len(r.registrations))
	copy(out, r.registrations)
	return out
}

// Len returns the number of registrations declared so far.
func (r *Registrar) Len() int { return len(r.registrations) }

func (r *Registrar) catalogFor(t reflect.Type) []any {
	var out []any
	for _, fn := range r.catalog {
		res, err := ConstructorResult(fn)
		if err != nil || !res.AssignableTo(t) {
			continue
		}
		out = append(out, fn)
	}
	return out
}

var errorType = reflect.TypeFor[error]()

// ConstructorResult returns the instance type produced by a constructor
// function of the form func(...) T or func(...) (T, error).
func ConstructorResult(fn any) (reflect.Type, error) {
	if fn == nil {
		return nil, errors.New("constructor is nil")
	}
	ft := reflect.TypeOf(fn)
	if ft.Kind() != reflect.Func {
		return nil, errors.New("constructor " + ft.String() + " is not a func")
	}
	if ft.IsVariadic() {
		return nil, errors.New("constructor " + ft.String() + " is variadic")
	}
	switch ft.NumOut() {
	case 1:
		if ft.Out(0) == errorType {
			return nil, errors.New("constructor " + ft.String() + " returns only an error")
		}
		return ft.Out(0), nil
	case 2:
		if ft.Out(1) != errorType {
			return nil, errors.New("constructor " + ft.String() + " second result must be error")
		}
		return ft.Out(0), nil
	default:
		return nil, errors.New("constructor " + ft.String() + " must return T or (T, error)")
	}
}
