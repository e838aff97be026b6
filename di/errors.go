package di

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrSealed is returned when a built container's maps are mutated.
var ErrSealed = errors.New("di: container is sealed")

// ArgumentError reports a nil or empty argument handed to the build pipeline.
//
// Index is the ordinal of the offending registration or registry, or -1.
type ArgumentError struct {
	Argument string
	Index    int
	Reason   string
}

// Error implements error.
//
// Example: di: invalid argument ConcreteType at index 2: concrete type is nil
func (e ArgumentError) Error() string {
	if e.Index < 0 {
		return "di: invalid argument " + e.Argument + ": " + e.Reason
	}
	return "di: invalid argument " + e.Argument + " at index " + strconv.Itoa(e.Index) + ": " + e.Reason
}

// RegistrationValidationError reports a concrete type that does not satisfy
// its mapped type.
type RegistrationValidationError struct {
	Index        int
	ConcreteType reflect.Type
	MappedType   reflect.Type
	Reason       string
}

// Error implements error.
//
// Example: di: registration 0: *testdomain.Car cannot be used as testdomain.Color: ...
func (e RegistrationValidationError) Error() string {
	return fmt.Sprintf("di: registration %d: %s cannot be used as %s: %s",
		e.Index, typeName(e.ConcreteType), typeName(e.MappedType), e.Reason)
}

// Member kinds reported by UnsupportedValueTypeError besides MemberKind values.
const (
	ConstructorSite    = "Constructor"
	PrimitiveValueSite = "PrimitiveValue"
)

// UnsupportedValueTypeError reports a literal whose kind cannot be injected
// as a Value.
//
// MemberIndex is -1 for constructor parameters and primitive values.
// ParameterIndex is -1 for fields, properties and primitive values.
type UnsupportedValueTypeError struct {
	RegistrationIndex int
	MemberKind        string
	MemberIndex       int
	ParameterIndex    int
	ValueType         string
}

// Error implements error.
//
// Example: di: registration 1: Constructor parameter 0: unsupported value type []string; use a ValueFactory instead
func (e UnsupportedValueTypeError) Error() string {
	var sb strings.Builder
	sb.WriteString("di: registration ")
	sb.WriteString(strconv.Itoa(e.RegistrationIndex))
	sb.WriteString(": ")
	sb.WriteString(e.MemberKind)
	if e.MemberIndex >= 0 {
		sb.WriteString(" member ")
		sb.WriteString(strconv.Itoa(e.MemberIndex))
	}
	if e.ParameterIndex >= 0 {
		sb.WriteString(" parameter ")
		sb.WriteString(strconv.Itoa(e.ParameterIndex))
	}
	sb.WriteString(": unsupported value type ")
	sb.WriteString(e.ValueType)
	sb.WriteString("; use a ValueFactory instead")
	return sb.String()
}

// Diagnostic is one problem found while planning a registration.
type Diagnostic struct {
	Index   int
	Subject string
	Message string
}

// Error implements error.
//
// Example: registration 3 (*testdomain.Car): no constructor matches (string, int)
func (d Diagnostic) Error() string {
	if d.Index < 0 {
		return d.Message
	}
	return fmt.Sprintf("registration %d (%s): %s", d.Index, d.Subject, d.Message)
}

// ArtifactGenerationError aggregates every diagnostic of a failed build
// together with the active build configuration.
type ArtifactGenerationError struct {
	Identity      string
	Diagnostics   []error
	Configuration string
}

// Error implements error.
func (e ArtifactGenerationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "di: artifact %q generation failed with %d error(s):\n", e.Identity, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		fmt.Fprintf(&sb, "  %d. %v\n", i+1, d)
	}
	sb.WriteString("configuration:\n")
	for _, line := range strings.Split(strings.TrimRight(e.Configuration, "\n"), "\n") {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Unwrap returns the diagnostics.
func (e ArtifactGenerationError) Unwrap() []error { return e.Diagnostics }

// ArtifactLoadError reports a persisted artifact that exists but cannot be used.
type ArtifactLoadError struct {
	Identity string
	Path     string
	Err      error
}

// Error implements error.
//
// Example: di: cannot load artifact "app" from /tmp/app.plan.yaml: fingerprint mismatch
func (e ArtifactLoadError) Error() string {
	return fmt.Sprintf("di: cannot load artifact %q from %s: %v", e.Identity, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e ArtifactLoadError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or invalid build option.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Error implements error.
//
// Example: di: invalid configuration CacheLocation: "/nope" does not exist
func (e ConfigurationError) Error() string {
	return "di: invalid configuration " + e.Field + ": " + e.Reason
}

// ConstructionError reports a constructor, factory or method failure while
// building an instance.
type ConstructionError struct {
	Key Key
	Err error
}

// Error implements error.
func (e ConstructionError) Error() string {
	return fmt.Sprintf("di: constructing %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e ConstructionError) Unwrap() error { return e.Err }

// MissingRegistrationError is raised by MustGet when nothing is registered
// for the requested type and name.
type MissingRegistrationError struct {
	Type reflect.Type
	Name string
}

// Error implements error.
//
// Example: di: no registration for (testdomain.Vehicle, "X")
func (e MissingRegistrationError) Error() string {
	return "di: no registration for " + Key{Type: e.Type, Name: e.Name}.String()
}

// WrongTypeError is raised by MustGet when the resolved value is not a T.
type WrongTypeError struct {
	Type    reflect.Type
	GotType string
}

// Error implements error.
//
// Example: di: resolved value for testdomain.Vehicle has type string
func (e WrongTypeError) Error() string {
	return "di: resolved value for " + typeName(e.Type) + " has type " + e.GotType
}
