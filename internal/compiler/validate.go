package compiler

import (
	"fmt"
	"reflect"

	"github.com/sghaida/speedioc/di"
)

// checkArguments rejects an empty list, nil entries and nil concrete types.
func checkArguments(regs []*di.Registration) error {
	if len(regs) == 0 {
		return di.ArgumentError{Argument: "registrations", Index: -1, Reason: "must not be empty"}
	}
	for i, r := range regs {
		if r == nil {
			return di.ArgumentError{Argument: "registrations", Index: i, Reason: "registration is nil"}
		}
		if r.ConcreteType == nil {
			return di.ArgumentError{Argument: "ConcreteType", Index: i, Reason: "concrete type is nil"}
		}
	}
	return nil
}

// validate checks type pairings, lifetimes and literal kinds, returning the
// first failure in registration order.
func validate(regs []*di.Registration) error {
	for i, r := range regs {
		if err := validatePairing(i, r); err != nil {
			return err
		}
		if err := validateLiterals(i, r); err != nil {
			return err
		}
	}
	return nil
}

func validatePairing(i int, r *di.Registration) error {
	if !r.Lifetime.Valid() {
		return di.RegistrationValidationError{
			Index:        i,
			ConcreteType: r.ConcreteType,
			MappedType:   r.MappedType,
			Reason:       fmt.Sprintf("unknown lifetime %s", r.Lifetime),
		}
	}
	if r.MappedType == nil || satisfies(r.ConcreteType, r.MappedType) {
		return nil
	}
	reason := "not assignable"
	if r.MappedType.Kind() == reflect.Interface {
		reason = "does not implement the interface"
	}
	return di.RegistrationValidationError{
		Index:        i,
		ConcreteType: r.ConcreteType,
		MappedType:   r.MappedType,
		Reason:       reason,
	}
}

// satisfies reports whether concrete can be handed out as mapped.
func satisfies(concrete, mapped reflect.Type) bool {
	if mapped.Kind() == reflect.Interface {
		return concrete.Implements(mapped)
	}
	return concrete.AssignableTo(mapped)
}

func validateLiterals(i int, r *di.Registration) error {
	unsupported := func(site string, member, param int, v any) error {
		return di.UnsupportedValueTypeError{
			RegistrationIndex: i,
			MemberKind:        site,
			MemberIndex:       member,
			ParameterIndex:    param,
			ValueType:         fmt.Sprintf("%T", v),
		}
	}

	if r.HasPrimitiveValue && !supportedLiteral(r.PrimitiveValue) {
		return unsupported(di.PrimitiveValueSite, -1, -1, r.PrimitiveValue)
	}
	if r.Constructor != nil {
		for j, p := range r.Constructor.Parameters {
			if v, ok := p.(di.Value); ok && !supportedLiteral(v.V) {
				return unsupported(di.ConstructorSite, -1, j, v.V)
			}
		}
	}
	for k, m := range r.Members {
		if m.Kind == di.MethodMember {
			for j, p := range m.Parameters {
				if v, ok := p.(di.Value); ok && !supportedLiteral(v.V) {
					return unsupported(m.Kind.String(), k, j, v.V)
				}
			}
			continue
		}
		if v, ok := m.Value.(di.Value); ok && !supportedLiteral(v.V) {
			return unsupported(m.Kind.String(), k, -1, v.V)
		}
	}
	return nil
}
