package di

import (
	"reflect"
)

// Resolver is the query surface of a built container.
//
// Misses are not errors: Get and GetNamed return nil, GetAll returns nil.
type Resolver interface {
	// Get resolves the unnamed registration of t.
	Get(t reflect.Type) any
	// GetNamed resolves the registration of t registered under name.
	GetNamed(t reflect.Type, name string) any
	// GetAll resolves the registration of the collection type t and returns
	// its elements.
	GetAll(t reflect.Type) []any
}

// Get resolves T. It returns the zero value of T on a miss or when the
// resolved value is not a T.
func Get[T any](r Resolver) T {
	v, _ := r.Get(TypeOf[T]()).(T)
	return v
}

// GetNamed resolves T registered under name, with the same miss policy as Get.
func GetNamed[T any](r Resolver, name string) T {
	v, _ := r.GetNamed(TypeOf[T](), name).(T)
	return v
}

// GetAll resolves the unnamed registration of []T.
//
// It is a passthrough: registrations of T itself are not aggregated.
func GetAll[T any](r Resolver) []T {
	raw := r.Get(TypeOf[[]T]())
	if raw == nil {
		return nil
	}
	if ts, ok := raw.([]T); ok {
		return ts
	}
	return nil
}

// Lookup resolves T and reports whether a T was produced.
func Lookup[T any](r Resolver) (T, bool) {
	v, ok := r.Get(TypeOf[T]()).(T)
	return v, ok
}

// LookupNamed resolves T under name and reports whether a T was produced.
func LookupNamed[T any](r Resolver, name string) (T, bool) {
	v, ok := r.GetNamed(TypeOf[T](), name).(T)
	return v, ok
}

// MustGet resolves T or panics.
//
// It panics with MissingRegistrationError when nothing is resolved and with
// WrongTypeError when the resolved value is not a T. Useful in examples and
// tests where a missing registration should fail fast.
func MustGet[T any](r Resolver) T {
	return mustAs[T](r.Get(TypeOf[T]()), "")
}

// MustGetNamed is the named form of MustGet.
func MustGetNamed[T any](r Resolver, name string) T {
	return mustAs[T](r.GetNamed(TypeOf[T](), name), name)
}

func mustAs[T any](raw any, name string) T {
	t := TypeOf[T]()
	if raw == nil {
		panic(MissingRegistrationError{Type: t, Name: name})
	}
	v, ok := raw.(T)
	if !ok {
		panic(WrongTypeError{Type: t, GotType: reflect.TypeOf(raw).String()})
	}
	return v
}
