// Package artifact defines the persisted form of a generated container: the
// plan that records, per registration, its dispatch name, override status,
// selected constructor and member bindings.
//
// Closures (value factories, constructors) cannot be persisted, so a plan is
// linked back against the registrations it was generated from. The plan's
// fingerprint guards that pairing.
package artifact

import (
	"time"

	"github.com/sghaida/speedioc/di"
)

// FormatVersion is the plan format written by this package.
const FormatVersion = 1

// Status of a registration in a plan.
type Status string

const (
	StatusActive     Status = "active"
	StatusOverridden Status = "overridden"
	StatusSkipped    Status = "skipped"
)

// SkipNoCodeGenerator marks registrations whose lifetime has no strategy.
const SkipNoCodeGenerator = "no-code-generator"

// ConstructionKind says how instances are constructed.
type ConstructionKind string

const (
	// ConstructPrimitive returns the registration's primitive value.
	ConstructPrimitive ConstructionKind = "primitive"
	// ConstructExplicit calls the constructor pinned by UsingConstructorFunc.
	ConstructExplicit ConstructionKind = "explicit"
	// ConstructDeclared calls a constructor from the registration's catalog.
	ConstructDeclared ConstructionKind = "declared"
	// ConstructZero allocates a zero value (new(T) for pointer-to-struct).
	ConstructZero ConstructionKind = "zero"
)

// Construction is the selected construction strategy.
type Construction struct {
	Kind ConstructionKind `yaml:"kind" json:"kind"`
	// Index is the catalog position for ConstructDeclared.
	Index     int    `yaml:"index,omitempty" json:"index,omitempty"`
	Signature string `yaml:"signature,omitempty" json:"signature,omitempty"`
}

// Via says how a member is applied.
type Via string

const (
	ViaField  Via = "field"
	ViaSetter Via = "setter"
	ViaMethod Via = "method"
)

// MemberBinding is the resolved target of one member injection.
type MemberBinding struct {
	Kind       string `yaml:"kind" json:"kind"`
	Name       string `yaml:"name" json:"name"`
	Via        Via    `yaml:"via" json:"via"`
	Target     string `yaml:"target" json:"target"`
	FieldIndex []int  `yaml:"fieldIndex,omitempty,flow" json:"fieldIndex,omitempty"`
	Signature  string `yaml:"signature,omitempty" json:"signature,omitempty"`
}

// Entry is the plan of one registration, in ordinal order.
type Entry struct {
	Index        int             `yaml:"index" json:"index"`
	Identifier   string          `yaml:"identifier" json:"identifier"`
	Key          string          `yaml:"key" json:"key"`
	ConcreteType string          `yaml:"concreteType" json:"concreteType"`
	MappedType   string          `yaml:"mappedType,omitempty" json:"mappedType,omitempty"`
	Name         string          `yaml:"name,omitempty" json:"name,omitempty"`
	Lifetime     di.Lifetime     `yaml:"lifetime" json:"lifetime"`
	PreCreate    bool            `yaml:"preCreate,omitempty" json:"preCreate,omitempty"`
	Status       Status          `yaml:"status" json:"status"`
	OverriddenBy int             `yaml:"overriddenBy,omitempty" json:"overriddenBy,omitempty"`
	SkipReason   string          `yaml:"skipReason,omitempty" json:"skipReason,omitempty"`
	Construction Construction    `yaml:"construction" json:"construction"`
	Members      []MemberBinding `yaml:"members,omitempty" json:"members,omitempty"`
	Dependencies []string        `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Comment      string          `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// Plan is the persisted artifact.
type Plan struct {
	Version     int       `yaml:"version" json:"version"`
	Identity    string    `yaml:"identity" json:"identity"`
	Fingerprint string    `yaml:"fingerprint" json:"fingerprint"`
	GeneratedAt time.Time `yaml:"generatedAt" json:"generatedAt"`
	Entries     []Entry   `yaml:"entries" json:"entries"`
}

// Entry returns the entry at index.
func (p *Plan) Entry(index int) (Entry, bool) {
	if index < 0 || index >= len(p.Entries) {
		return Entry{}, false
	}
	return p.Entries[index], true
}

// Active returns the entries bound into the container.
func (p *Plan) Active() []Entry { return p.filter(StatusActive) }

// Overridden returns the entries replaced by a later registration.
func (p *Plan) Overridden() []Entry { return p.filter(StatusOverridden) }

// Skipped returns the entries with no lifetime strategy.
func (p *Plan) Skipped() []Entry { return p.filter(StatusSkipped) }

func (p *Plan) filter(s Status) []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Status == s {
			out = append(out, e)
		}
	}
	return out
}
