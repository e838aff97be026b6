package speedioc

import (
	"reflect"

	"github.com/sghaida/speedioc/artifact"
	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/internal/compiler"
	"github.com/sghaida/speedioc/internal/runtime"
)

// Plan sources reported by Container.Source.
const (
	SourceGenerated = string(compiler.SourceGenerated)
	SourceMemory    = string(compiler.SourceMemory)
	SourceArtifact  = string(compiler.SourceArtifact)
)

// Container is a built, sealed container. It is safe for concurrent use.
type Container struct {
	rt     *runtime.Resolver
	plan   *artifact.Plan
	source compiler.Source
}

var _ di.Resolver = (*Container)(nil)

// Get returns the instance of the unnamed registration of t, or nil.
func (c *Container) Get(t reflect.Type) any { return c.rt.Get(t) }

// GetNamed returns the instance registered for t under name, or nil.
func (c *Container) GetNamed(t reflect.Type, name string) any { return c.rt.GetNamed(t, name) }

// GetAll returns the elements of the collection registered as t, or nil.
func (c *Container) GetAll(t reflect.Type) []any { return c.rt.GetAll(t) }

// Resolve is Get with construction errors returned instead of logged. A miss
// is (nil, nil).
func (c *Container) Resolve(t reflect.Type) (any, error) { return c.rt.Resolve(t) }

// ResolveNamed is GetNamed with construction errors returned.
func (c *Container) ResolveNamed(t reflect.Type, name string) (any, error) {
	return c.rt.ResolveNamed(t, name)
}

// Identity returns the artifact identity.
func (c *Container) Identity() string { return c.rt.Identity() }

// Plan returns the plan the container was linked from. It must not be modified.
func (c *Container) Plan() *artifact.Plan { return c.plan }

// Source reports whether the plan was generated, reused from memory or loaded
// from the cache location.
func (c *Container) Source() string { return string(c.source) }

// ReleaseThread drops the calling goroutine's Thread-lifetime instances.
func (c *Container) ReleaseThread() { c.rt.ReleaseThread() }
