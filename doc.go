// Package speedioc is an inversion-of-control container built from a
// declarative rule set.
//
// Registries declare registrations through the fluent DSL in package di. A
// Builder aggregates them, the generator validates the rules, resolves
// overrides and plans every construction once, and the result is a sealed
// Container answering type and name lookups:
//
//	c, err := speedioc.New(di.DefaultOptions()).
//		AddRegistry(VehicleRegistry{}).
//		Build()
//	if err != nil {
//		return err
//	}
//	car := di.Get[Vehicle](c)
//
// Lookups never fail: a miss returns nil (or the zero value for the generic
// helpers). Construction errors are logged and surface through Resolve.
//
// With a cache location set, the generated plan is persisted under the
// artifact identity and reused by later builds whose registrations are
// unchanged.
package speedioc
