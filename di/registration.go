package di

import (
	"fmt"
	"reflect"
)

// MemberKind names the kind of a post-construction injection.
type MemberKind int

const (
	// FieldMember assigns an exported struct field.
	FieldMember MemberKind = iota
	// PropertyMember calls a Set<Name> method, or assigns the field when no setter exists.
	PropertyMember
	// MethodMember calls a method with an ordered parameter list.
	MethodMember
)

func (k MemberKind) String() string {
	switch k {
	case FieldMember:
		return "Field"
	case PropertyMember:
		return "Property"
	case MethodMember:
		return "Method"
	default:
		return fmt.Sprintf("MemberKind(%d)", int(k))
	}
}

// Member is one injection applied after construction, in registration order.
//
// Field and property members carry Value; method members carry Parameters.
type Member struct {
	Kind       MemberKind
	Name       string
	Type       reflect.Type
	Value      Injection
	Parameters []Injection
}

// Constructor describes how the concrete type is constructed.
//
// Parameters must match the target constructor's signature exactly. Func, when
// set, pins the constructor; otherwise the first declared constructor whose
// signature matches Parameters is used.
type Constructor struct {
	Parameters []Injection
	Func       any
}

// Registration describes how to construct and scope one resolvable dependency.
//
// Registrations are mutated by the builders during configuration only and are
// read-only once aggregated.
type Registration struct {
	ConcreteType reflect.Type
	MappedType   reflect.Type
	Name         string
	Lifetime     Lifetime

	// ShouldPreCreateInstance is honored for Container and Process lifetimes.
	ShouldPreCreateInstance bool

	PrimitiveValue    any
	HasPrimitiveValue bool

	// Constructor is nil when no constructor was requested.
	Constructor *Constructor
	Members     []Member

	// Constructors is the declared constructor catalog of ConcreteType.
	Constructors []any

	// Manager is the caching strategy of a Custom registration.
	Manager LifetimeManager
}

// Key is the identity used for override detection.
type Key struct {
	Type reflect.Type
	Name string
}

func (k Key) String() string {
	if k.Name == "" {
		return fmt.Sprintf("(%s)", typeName(k.Type))
	}
	return fmt.Sprintf("(%s, %q)", typeName(k.Type), k.Name)
}

// ServiceType returns MappedType when set, ConcreteType otherwise.
func (r *Registration) ServiceType() reflect.Type {
	if r.MappedType != nil {
		return r.MappedType
	}
	return r.ConcreteType
}

// Key returns (MappedType ?? ConcreteType, Name).
func (r *Registration) Key() Key {
	return Key{Type: r.ServiceType(), Name: r.Name}
}

func (r *Registration) String() string {
	s := typeName(r.ConcreteType)
	if r.MappedType != nil {
		s += " as " + r.MappedType.String()
	}
	if r.Name != "" {
		s += fmt.Sprintf(" named %q", r.Name)
	}
	return s + " [" + r.Lifetime.String() + "]"
}
