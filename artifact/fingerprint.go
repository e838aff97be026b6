package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/internal/identity"
)

// Fingerprint hashes a canonical description of regs. Two registration lists
// with the same types, names, lifetimes, signatures, literals and catalogs
// share a fingerprint; factory closures contribute only their declared type.
func Fingerprint(regs []*di.Registration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "v%d\n", FormatVersion)
	for i, r := range regs {
		fmt.Fprintf(&sb, "#%d\n", i)
		if r == nil {
			sb.WriteString("nil\n")
			continue
		}
		fmt.Fprintf(&sb, "concrete=%s\n", qualified(r.ConcreteType))
		fmt.Fprintf(&sb, "mapped=%s\n", qualified(r.MappedType))
		fmt.Fprintf(&sb, "name=%q\n", r.Name)
		fmt.Fprintf(&sb, "lifetime=%s precreate=%t\n", r.Lifetime, r.ShouldPreCreateInstance)
		if r.HasPrimitiveValue {
			fmt.Fprintf(&sb, "primitive=%T:%#v\n", r.PrimitiveValue, r.PrimitiveValue)
		}
		if r.Manager != nil {
			fmt.Fprintf(&sb, "manager=%T\n", r.Manager)
		}
		if c := r.Constructor; c != nil {
			sb.WriteString("ctor")
			if c.Func != nil {
				fmt.Fprintf(&sb, " func=%s", qualified(reflect.TypeOf(c.Func)))
			}
			sb.WriteString("\n")
			writeInjections(&sb, c.Parameters)
		}
		for _, fn := range r.Constructors {
			fmt.Fprintf(&sb, "catalog=%s\n", qualified(reflect.TypeOf(fn)))
		}
		for _, m := range r.Members {
			fmt.Fprintf(&sb, "member=%s %q %s\n", m.Kind, m.Name, qualified(m.Type))
			if m.Kind == di.MethodMember {
				writeInjections(&sb, m.Parameters)
			} else {
				writeInjections(&sb, []di.Injection{m.Value})
			}
		}
	}
	return SHA256Hex([]byte(sb.String()))
}

func writeInjections(sb *strings.Builder, ins []di.Injection) {
	for _, in := range ins {
		switch v := in.(type) {
		case di.Value:
			fmt.Fprintf(sb, "  value=%T:%#v\n", v.V, v.V)
		case di.ValueFactory:
			fmt.Fprintf(sb, "  factory=%s\n", qualified(v.T))
		case di.Resolved:
			fmt.Fprintf(sb, "  resolved=%s %q\n", qualified(v.T), v.Name)
		default:
			fmt.Fprintf(sb, "  other=%T\n", in)
		}
	}
}

// qualified names t with its package path so same-named types differ.
func qualified(t reflect.Type) string {
	if t == nil {
		return "-"
	}
	return identity.Module(t) + ":" + t.String()
}

// SHA256Hex returns the hex SHA-256 of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
