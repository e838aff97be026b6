// Package di is the configuration surface of speedioc: registries, the fluent
// registration DSL, lifetimes, injections, build options and the error types
// reported by a build.
//
// A registry declares registrations on a Registrar:
//
//	type VehicleRegistry struct{}
//
//	func (VehicleRegistry) RegisterTypes(r *di.Registrar) {
//		r.DeclareConstructors(NewCar, NewCarWithMakeModel)
//
//		di.Register[*Car](r).As(di.TypeOf[Vehicle]())
//		di.Register[*Car](r).As(di.TypeOf[Vehicle]()).WithName("Mustang").
//			WithLifetime(di.Container).
//			UsingConstructor().
//			WithValueParameter("Ford").
//			WithValueParameter("Mustang").
//			AsLastParameter().
//			CallingMethod("InstallEngine").WithValueParameter(289).AsLastParameter()
//	}
//
// Go has no constructor overloading, so constructors are declared with
// DeclareConstructors and selected by parameter list, or pinned with
// UsingConstructorFunc.
//
// A registration is keyed by (MappedType or ConcreteType, Name). When two
// registrations share a key, the later one wins.
//
// Resolution goes through the Resolver interface and the generic helpers
// Get, GetNamed, GetAll, Lookup and MustGet. Misses return zero values.
//
// Import
//
//	"github.com/sghaida/speedioc/di"
package di
