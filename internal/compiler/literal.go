package compiler

import (
	"fmt"
	"math"
	"reflect"
)

type category int

const (
	catNone category = iota
	catBool
	catInt
	catUint
	catFloat
	catComplex
	catString
)

func categoryOf(k reflect.Kind) category {
	switch k {
	case reflect.Bool:
		return catBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return catInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return catUint
	case reflect.Float32, reflect.Float64:
		return catFloat
	case reflect.Complex64, reflect.Complex128:
		return catComplex
	case reflect.String:
		return catString
	default:
		return catNone
	}
}

// supportedLiteral reports whether v may be injected as a Value. Named types
// with a supported underlying kind count.
func supportedLiteral(v any) bool {
	if v == nil {
		return true
	}
	return categoryOf(reflect.TypeOf(v).Kind()) != catNone
}

// checkLiteral reports whether v can be injected into target. nil means the
// zero value of target. Otherwise v must be assignable, or convertible within
// its category without overflow; integers also convert to floats.
func checkLiteral(v any, target reflect.Type) error {
	if v == nil {
		return nil
	}
	vt := reflect.TypeOf(v)
	if vt.AssignableTo(target) {
		return nil
	}
	from, to := categoryOf(vt.Kind()), categoryOf(target.Kind())
	if to == catNone || !compatible(from, to) {
		return fmt.Errorf("literal %s is not assignable to %s", vt, target)
	}
	rv := reflect.ValueOf(v)
	switch to {
	case catInt:
		n, ok := asInt64(rv)
		if !ok || reflect.Zero(target).OverflowInt(n) {
			return fmt.Errorf("literal %v overflows %s", v, target)
		}
	case catUint:
		n, ok := asUint64(rv)
		if !ok || reflect.Zero(target).OverflowUint(n) {
			return fmt.Errorf("literal %v overflows %s", v, target)
		}
	case catFloat:
		if from == catFloat && reflect.Zero(target).OverflowFloat(rv.Float()) {
			return fmt.Errorf("literal %v overflows %s", v, target)
		}
	}
	return nil
}

func compatible(from, to category) bool {
	switch {
	case from == to:
		return true
	case to == catInt || to == catUint:
		return from == catInt || from == catUint
	case to == catFloat:
		return from == catInt || from == catUint
	}
	return false
}

func asInt64(v reflect.Value) (int64, bool) {
	switch categoryOf(v.Kind()) {
	case catInt:
		return v.Int(), true
	case catUint:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func asUint64(v reflect.Value) (uint64, bool) {
	switch categoryOf(v.Kind()) {
	case catUint:
		return v.Uint(), true
	case catInt:
		n := v.Int()
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}

// literalValue converts a literal accepted by checkLiteral to target.
func literalValue(v any, target reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(target)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		return rv
	}
	return rv.Convert(target)
}
