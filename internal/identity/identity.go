// Package identity derives override keys and collision-free dispatch entry
// names for registrations.
package identity

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/sghaida/speedioc/di"
)

// Dispatch entry prefixes.
const (
	GetInstance               = "GetInstance"
	CreateInstance            = "CreateInstance"
	CreateThreadLocalInstance = "CreateThreadLocalInstance"
)

const builtinModule = "builtin"

// MakeSafeIdentifier turns text into an identifier: '.' and whitespace are
// dropped and every other rune that is not a letter or digit becomes '_'.
func MakeSafeIdentifier(text string) (string, error) {
	if text == "" {
		return "", di.ArgumentError{Argument: "text", Index: -1, Reason: "must not be empty"}
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '.' || unicode.IsSpace(r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String(), nil
}

// Key returns the override key of r.
func Key(r *di.Registration) di.Key { return r.Key() }

// Identifier builds the dispatch name of the registration at index:
//
//	<module>__<type>[__As__<module>__<type>][__WithName__<name>]__RegistrationIndex__<index>
//
// The index always comes last, so two registrations never share a name.
func Identifier(r *di.Registration, index int) (string, error) {
	if r == nil || r.ConcreteType == nil {
		return "", di.ArgumentError{Argument: "ConcreteType", Index: index, Reason: "concrete type is nil"}
	}
	core, err := typePart(r.ConcreteType)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(core)
	if r.MappedType != nil {
		mapped, err := typePart(r.MappedType)
		if err != nil {
			return "", err
		}
		sb.WriteString("__As__")
		sb.WriteString(mapped)
	}
	if r.Name != "" {
		name, err := MakeSafeIdentifier(r.Name)
		if err != nil {
			return "", err
		}
		sb.WriteString("__WithName__")
		sb.WriteString(name)
	}
	sb.WriteString("__RegistrationIndex__")
	sb.WriteString(strconv.Itoa(index))
	return sb.String(), nil
}

// Operation prefixes id with a dispatch operation, e.g. GetInstance__<id>.
func Operation(prefix, id string) string {
	return prefix + "__" + id
}

func typePart(t reflect.Type) (string, error) {
	module, err := MakeSafeIdentifier(Module(t))
	if err != nil {
		return "", err
	}
	name, err := MakeSafeIdentifier(t.String())
	if err != nil {
		return "", err
	}
	return module + "__" + name, nil
}

// Module returns the package path of the named type behind t, looking through
// pointers, slices, arrays, maps and channels. Unnamed and predeclared types
// report "builtin".
func Module(t reflect.Type) string {
	for t != nil && t.Name() == "" {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
			t = t.Elem()
		default:
			return builtinModule
		}
	}
	if t == nil || t.PkgPath() == "" {
		return builtinModule
	}
	return t.PkgPath()
}
