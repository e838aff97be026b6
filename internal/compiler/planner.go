package compiler

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sghaida/speedioc/artifact"
	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/internal/identity"
)

// planner turns validated registrations into a plan, collecting every
// diagnostic instead of stopping at the first one.
type planner struct {
	log      *zap.Logger
	regs     []*di.Registration
	comments bool
	errs     error

	// unresolved holds, per entry index, the dependencies with no active
	// registration. They resolve to the zero value at construction.
	unresolved map[int][]string
}

func (p *planner) diagnose(index int, subject, format string, args ...any) {
	p.errs = multierr.Append(p.errs, di.Diagnostic{
		Index:   index,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	})
}

// entries plans every registration in ordinal order.
func (p *planner) entries() []artifact.Entry {
	winners := make(map[di.Key]int, len(p.regs))
	for i, r := range p.regs {
		winners[r.Key()] = i
	}

	out := make([]artifact.Entry, len(p.regs))
	for i, r := range p.regs {
		e := p.entry(i, r)
		switch {
		case winners[r.Key()] != i:
			e.Status = artifact.StatusOverridden
			e.OverriddenBy = winners[r.Key()]
			p.log.Debug("registration overridden",
				zap.Int("index", i),
				zap.Int("overridden_by", e.OverriddenBy),
				zap.String("key", e.Key),
			)
		case r.Lifetime == di.Custom && r.Manager == nil:
			e.Status = artifact.StatusSkipped
			e.SkipReason = artifact.SkipNoCodeGenerator
			p.log.Debug("registration skipped",
				zap.Int("index", i),
				zap.String("reason", e.SkipReason),
			)
		default:
			e.Status = artifact.StatusActive
		}
		out[i] = e
	}

	active := make(map[di.Key]bool, len(out))
	for _, e := range out {
		if e.Status == artifact.StatusActive {
			active[p.regs[e.Index].Key()] = true
		}
	}
	for i := range out {
		if out[i].Status != artifact.StatusActive {
			continue
		}
		p.bind(&out[i], active)
	}
	if p.comments {
		for i := range out {
			out[i].Comment = comment(p.regs[i], out[i], p.unresolved[i])
		}
	}
	return out
}

func (p *planner) entry(i int, r *di.Registration) artifact.Entry {
	id, err := identity.Identifier(r, i)
	if err != nil {
		p.diagnose(i, r.String(), "identifier: %v", err)
	}
	e := artifact.Entry{
		Index:        i,
		Identifier:   id,
		Key:          r.Key().String(),
		ConcreteType: r.ConcreteType.String(),
		Name:         r.Name,
		Lifetime:     r.Lifetime,
		PreCreate:    r.ShouldPreCreateInstance,
	}
	if r.MappedType != nil {
		e.MappedType = r.MappedType.String()
	}
	return e
}

// bind selects the construction and member targets of an active entry and
// records its dependencies.
func (p *planner) bind(e *artifact.Entry, active map[di.Key]bool) {
	r := p.regs[e.Index]
	subject := r.String()

	c, err := selectConstruction(r)
	if err != nil {
		p.diagnose(e.Index, subject, "%v", err)
	}
	e.Construction = c

	for k, m := range r.Members {
		b, err := bindMember(r.ConcreteType, m)
		if err != nil {
			p.diagnose(e.Index, subject, "%s member %d: %v", m.Kind, k, err)
			continue
		}
		e.Members = append(e.Members, b)
	}

	seen := make(map[string]bool)
	for _, ref := range resolvedReferences(r) {
		if ref.T == nil {
			continue
		}
		key := di.Key{Type: ref.T, Name: ref.Name}
		s := key.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		e.Dependencies = append(e.Dependencies, s)
		if !active[key] {
			p.log.Debug("resolved dependency not registered",
				zap.Int("index", e.Index),
				zap.String("registration", subject),
				zap.String("dependency", s),
			)
			if p.unresolved == nil {
				p.unresolved = make(map[int][]string)
			}
			p.unresolved[e.Index] = append(p.unresolved[e.Index], s)
		}
	}
}

// comment renders the diagnostic block of an entry.
func comment(r *di.Registration, e artifact.Entry, unresolved []string) string {
	var sb strings.Builder
	sb.WriteString(r.String())
	sb.WriteString("\nkey: " + e.Key)
	switch e.Status {
	case artifact.StatusOverridden:
		fmt.Fprintf(&sb, "\noverridden by registration %d", e.OverriddenBy)
		return sb.String()
	case artifact.StatusSkipped:
		sb.WriteString("\nskipped: " + e.SkipReason)
		return sb.String()
	}
	if e.PreCreate {
		sb.WriteString("\npre-created")
	}
	sb.WriteString("\nconstruction: " + string(e.Construction.Kind))
	if e.Construction.Signature != "" {
		sb.WriteString(" " + e.Construction.Signature)
	}
	for _, m := range e.Members {
		fmt.Fprintf(&sb, "\n%s %s via %s %s", m.Kind, m.Name, m.Via, m.Target)
	}
	for _, d := range e.Dependencies {
		sb.WriteString("\ndepends on " + d)
	}
	for _, d := range unresolved {
		sb.WriteString("\nunregistered " + d + " resolves to the zero value")
	}
	return sb.String()
}
