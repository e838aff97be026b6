package di

import (
	"fmt"
	"reflect"
)

// InjectionKind names the variant of an Injection.
type InjectionKind int

const (
	// KindValue is a literal value.
	KindValue InjectionKind = iota
	// KindValueFactory is a zero-arg producer invoked at every construction.
	KindValueFactory
	// KindResolved is a value resolved from the container at construction time.
	KindResolved
)

func (k InjectionKind) String() string {
	switch k {
	case KindValue:
		return "Value"
	case KindValueFactory:
		return "ValueFactory"
	case KindResolved:
		return "Resolved"
	default:
		return fmt.Sprintf("InjectionKind(%d)", int(k))
	}
}

// Injection is the value source of one constructor parameter, method
// parameter, field or property.
//
// The set of implementations is closed: Value, ValueFactory and Resolved.
type Injection interface {
	Kind() InjectionKind
	// Type is the declared type of the injected value. It is nil for a nil Value.
	Type() reflect.Type
	isInjection()
}

// Value injects a literal.
//
// Only bool, numeric and string kinds are accepted (nil means the zero value
// of the target). Anything else fails generation with UnsupportedValueTypeError;
// use a ValueFactory for such values.
type Value struct {
	V any
}

func (Value) Kind() InjectionKind { return KindValue }

func (v Value) Type() reflect.Type { return reflect.TypeOf(v.V) }

func (Value) isInjection() {}

// ValueFactory injects the result of Produce, called once per construction.
type ValueFactory struct {
	T       reflect.Type
	Produce func() any
}

func (ValueFactory) Kind() InjectionKind { return KindValueFactory }

func (f ValueFactory) Type() reflect.Type { return f.T }

func (ValueFactory) isInjection() {}

// Resolved injects the instance the container resolves for (T, Name).
//
// The dependency obeys its own lifetime: a Container-scoped dependency is
// shared, a Transient one is built per use.
type Resolved struct {
	T    reflect.Type
	Name string
}

func (Resolved) Kind() InjectionKind { return KindResolved }

func (r Resolved) Type() reflect.Type { return r.T }

func (Resolved) isInjection() {}

// Factory pairs the type of T with a type-erased producer. Its results match
// the parameters of WithValueFactoryParameter:
//
//	b.UsingConstructor().WithValueFactoryParameter(di.Factory(newRedColor))
func Factory[T any](fn func() T) (reflect.Type, func() any) {
	return TypeOf[T](), func() any { return fn() }
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// DescribeInjection renders an injection for diagnostics, e.g. Resolved(di.IColor, "Red").
func DescribeInjection(in Injection) string {
	switch v := in.(type) {
	case Value:
		if v.V == nil {
			return "Value(nil)"
		}
		return fmt.Sprintf("Value(%T=%v)", v.V, v.V)
	case ValueFactory:
		return fmt.Sprintf("ValueFactory(%s)", typeName(v.T))
	case Resolved:
		if v.Name == "" {
			return fmt.Sprintf("Resolved(%s)", typeName(v.T))
		}
		return fmt.Sprintf("Resolved(%s, %q)", typeName(v.T), v.Name)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%T", in)
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
