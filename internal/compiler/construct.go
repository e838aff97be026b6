package compiler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/sghaida/speedioc/artifact"
	"github.com/sghaida/speedioc/di"
)

// selectConstruction picks how instances of r are built:
//
//   - a primitive value wins over everything else;
//   - a pinned constructor func must accept the requested parameters;
//   - otherwise the first catalog constructor accepting them is used;
//   - with no constructor requested, the first zero-argument catalog
//     constructor is used, else the zero value of the concrete type.
func selectConstruction(r *di.Registration) (artifact.Construction, error) {
	t := r.ConcreteType
	if r.HasPrimitiveValue {
		if err := checkLiteral(r.PrimitiveValue, t); err != nil {
			return artifact.Construction{}, fmt.Errorf("primitive value: %w", err)
		}
		return artifact.Construction{Kind: artifact.ConstructPrimitive}, nil
	}

	if c := r.Constructor; c != nil && c.Func != nil {
		ft, err := constructorType(c.Func, t)
		if err != nil {
			return artifact.Construction{}, err
		}
		if err := matchParameters(ft, 0, c.Parameters); err != nil {
			return artifact.Construction{}, fmt.Errorf("constructor %s: %w", ft, err)
		}
		return artifact.Construction{Kind: artifact.ConstructExplicit, Signature: ft.String()}, nil
	}

	if c := r.Constructor; c != nil {
		if len(r.Constructors) == 0 {
			return artifact.Construction{}, fmt.Errorf(
				"no constructor declared for %s; use DeclareConstructors or UsingConstructorFunc", t)
		}
		for i, fn := range r.Constructors {
			ft, err := constructorType(fn, t)
			if err != nil {
				continue
			}
			if matchParameters(ft, 0, c.Parameters) == nil {
				return artifact.Construction{Kind: artifact.ConstructDeclared, Index: i, Signature: ft.String()}, nil
			}
		}
		return artifact.Construction{}, fmt.Errorf("no declared constructor of %s accepts %s", t, describeParameters(c.Parameters))
	}

	for i, fn := range r.Constructors {
		ft, err := constructorType(fn, t)
		if err == nil && ft.NumIn() == 0 {
			return artifact.Construction{Kind: artifact.ConstructDeclared, Index: i, Signature: ft.String()}, nil
		}
	}
	if t.Kind() == reflect.Interface {
		return artifact.Construction{}, fmt.Errorf("interface type %s needs a constructor", t)
	}
	return artifact.Construction{Kind: artifact.ConstructZero}, nil
}

// constructorType validates fn as a constructor of t.
func constructorType(fn any, t reflect.Type) (reflect.Type, error) {
	res, err := di.ConstructorResult(fn)
	if err != nil {
		return nil, err
	}
	if !res.AssignableTo(t) {
		return nil, fmt.Errorf("constructor %T returns %s, not assignable to %s", fn, res, t)
	}
	return reflect.TypeOf(fn), nil
}

// matchParameters checks params against the inputs of ft starting at offset
// (1 skips a method receiver).
func matchParameters(ft reflect.Type, offset int, params []di.Injection) error {
	if got, want := len(params), ft.NumIn()-offset; got != want {
		return fmt.Errorf("takes %d parameter(s), %d given", want, got)
	}
	for i, p := range params {
		if err := checkInjection(p, ft.In(i+offset)); err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
	}
	return nil
}

// checkInjection reports whether in can be injected into target.
func checkInjection(in di.Injection, target reflect.Type) error {
	switch v := in.(type) {
	case di.Value:
		return checkLiteral(v.V, target)
	case di.ValueFactory:
		if v.Produce == nil {
			return errors.New("value factory is nil")
		}
		if v.T == nil || !v.T.AssignableTo(target) {
			return fmt.Errorf("value factory of %s is not assignable to %s", typeString(v.T), target)
		}
		return nil
	case di.Resolved:
		if v.T == nil {
			return errors.New("resolved type is nil")
		}
		if !v.T.AssignableTo(target) {
			return fmt.Errorf("resolved %s is not assignable to %s", v.T, target)
		}
		return nil
	case nil:
		return errors.New("injection is nil")
	default:
		return fmt.Errorf("unknown injection %T", in)
	}
}

func describeParameters(params []di.Injection) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = di.DescribeInjection(p)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
