package di

import (
	"fmt"
	"strings"
)

// Lifetime is the caching policy of a registration.
//
// The zero value is Transient.
type Lifetime int

const (
	// Transient builds a fresh instance on every resolution.
	Transient Lifetime = iota
	// Container keeps one instance per built container.
	Container
	// Process keeps one instance per artifact identity for the whole process,
	// shared by every container built under that identity.
	Process
	// Thread keeps one instance per goroutine.
	Thread
	// Custom delegates caching to a LifetimeManager.
	Custom
)

var lifetimeNames = [...]string{
	Transient: "Transient",
	Container: "Container",
	Process:   "Process",
	Thread:    "Thread",
	Custom:    "Custom",
}

// String returns the lifetime name, or Lifetime(n) for unknown values.
func (l Lifetime) String() string {
	if l >= 0 && int(l) < len(lifetimeNames) {
		return lifetimeNames[l]
	}
	return fmt.Sprintf("Lifetime(%d)", int(l))
}

// Valid reports whether l is one of the declared lifetimes.
func (l Lifetime) Valid() bool {
	return l >= Transient && l <= Custom
}

// ParseLifetime parses a lifetime name case-insensitively.
func ParseLifetime(s string) (Lifetime, error) {
	for i, name := range lifetimeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Lifetime(i), nil
		}
	}
	return Transient, fmt.Errorf("di: unknown lifetime %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("di: invalid lifetime %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(b []byte) error {
	v, err := ParseLifetime(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// LifetimeManager supplies the caching policy of a Custom registration.
//
// produce builds a new, fully injected instance. Implementations decide when
// to call it and what to hand back.
type LifetimeManager interface {
	Instance(produce func() (any, error)) (any, error)
}

// LifetimeManagerFunc adapts a function to LifetimeManager.
type LifetimeManagerFunc func(produce func() (any, error)) (any, error)

// Instance calls f(produce).
func (f LifetimeManagerFunc) Instance(produce func() (any, error)) (any, error) {
	return f(produce)
}
