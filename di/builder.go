package di

import "reflect"

// RegistrationBuilder configures the registration created by Register.
//
// Every setter mutates the same registration and may be called in any order.
type RegistrationBuilder struct {
	reg *Registration
}

// Registration returns the registration under construction.
func (b *RegistrationBuilder) Registration() *Registration { return b.reg }

// As sets the abstraction the concrete type is resolved as.
func (b *RegistrationBuilder) As(t reflect.Type) *RegistrationBuilder {
	b.reg.MappedType = t
	return b
}

// WithName sets the lookup name.
func (b *RegistrationBuilder) WithName(name string) *RegistrationBuilder {
	b.reg.Name = name
	return b
}

// WithLifetime sets the caching policy.
func (b *RegistrationBuilder) WithLifetime(l Lifetime) *RegistrationBuilder {
	b.reg.Lifetime = l
	return b
}

// WithCustomLifetime sets the Custom lifetime with m as its strategy.
func (b *RegistrationBuilder) WithCustomLifetime(m LifetimeManager) *RegistrationBuilder {
	b.reg.Lifetime = Custom
	b.reg.Manager = m
	return b
}

// PreCreateInstance requests eager construction when the container is built.
// It only affects Container and Process lifetimes.
func (b *RegistrationBuilder) PreCreateInstance() *RegistrationBuilder {
	b.reg.ShouldPreCreateInstance = true
	return b
}

// WithPrimitiveValue makes the registration resolve to the literal v.
func (b *RegistrationBuilder) WithPrimitiveValue(v any) *RegistrationBuilder {
	b.reg.PrimitiveValue = v
	b.reg.HasPrimitiveValue = true
	return b
}

// UsingConstructor starts the constructor parameter list.
func (b *RegistrationBuilder) UsingConstructor() *SignatureBuilder {
	return b.signature(func(params []Injection) {
		b.reg.Constructor = &Constructor{Parameters: params}
	})
}

// UsingConstructorFunc pins fn as the constructor and starts its parameter list.
func (b *RegistrationBuilder) UsingConstructorFunc(fn any) *SignatureBuilder {
	return b.signature(func(params []Injection) {
		b.reg.Constructor = &Constructor{Parameters: params, Func: fn}
	})
}

// CallingMethod starts the parameter list of a method called after construction.
func (b *RegistrationBuilder) CallingMethod(name string) *SignatureBuilder {
	return b.signature(func(params []Injection) {
		b.reg.Members = append(b.reg.Members, Member{Kind: MethodMember, Name: name, Parameters: params})
	})
}

// WithField starts a field injection. t is the declared field type.
func (b *RegistrationBuilder) WithField(name string, t reflect.Type) *MemberBuilder {
	return &MemberBuilder{owner: b, kind: FieldMember, name: name, typ: t}
}

// WithProperty starts a property injection. t is the declared property type.
func (b *RegistrationBuilder) WithProperty(name string, t reflect.Type) *MemberBuilder {
	return &MemberBuilder{owner: b, kind: PropertyMember, name: name, typ: t}
}

func (b *RegistrationBuilder) signature(commit func([]Injection)) *SignatureBuilder {
	return &SignatureBuilder{sig: &signature{owner: b, commit: commit}}
}

// signature accumulates parameters until the list is finalized.
type signature struct {
	owner  *RegistrationBuilder
	params []Injection
	commit func([]Injection)
	done   bool
}

func (s *signature) add(in Injection) *ParameterBuilder {
	s.params = append(s.params, in)
	return &ParameterBuilder{sig: s}
}

func (s *signature) finish() *RegistrationBuilder {
	if s.done {
		return s.owner
	}
	s.done = true
	params := make([]Injection, len(s.params))
	copy(params, s.params)
	s.commit(params)
	return s.owner
}

// SignatureBuilder is an empty parameter list: add the first parameter or
// declare that there are none.
type SignatureBuilder struct {
	sig *signature
}

// WithValueParameter appends a literal parameter.
func (b *SignatureBuilder) WithValueParameter(v any) *ParameterBuilder {
	return b.sig.add(Value{V: v})
}

// WithResolvedParameter appends a parameter resolved as t.
func (b *SignatureBuilder) WithResolvedParameter(t reflect.Type) *ParameterBuilder {
	return b.sig.add(Resolved{T: t})
}

// WithNamedResolvedParameter appends a parameter resolved as (t, name).
func (b *SignatureBuilder) WithNamedResolvedParameter(t reflect.Type, name string) *ParameterBuilder {
	return b.sig.add(Resolved{T: t, Name: name})
}

// WithValueFactoryParameter appends a parameter produced by fn at every construction.
func (b *SignatureBuilder) WithValueFactoryParameter(t reflect.Type, fn func() any) *ParameterBuilder {
	return b.sig.add(ValueFactory{T: t, Produce: fn})
}

// WithNoParameters finalizes an empty parameter list.
func (b *SignatureBuilder) WithNoParameters() *RegistrationBuilder {
	return b.sig.finish()
}

// ParameterBuilder is a non-empty parameter list.
type ParameterBuilder struct {
	sig *signature
}

// WithValueParameter appends a literal parameter.
func (b *ParameterBuilder) WithValueParameter(v any) *ParameterBuilder {
	return b.sig.add(Value{V: v})
}

// WithResolvedParameter appends a parameter resolved as t.
func (b *ParameterBuilder) WithResolvedParameter(t reflect.Type) *ParameterBuilder {
	return b.sig.add(Resolved{T: t})
}

// WithNamedResolvedParameter appends a parameter resolved as (t, name).
func (b *ParameterBuilder) WithNamedResolvedParameter(t reflect.Type, name string) *ParameterBuilder {
	return b.sig.add(Resolved{T: t, Name: name})
}

// WithValueFactoryParameter appends a parameter produced by fn at every construction.
func (b *ParameterBuilder) WithValueFactoryParameter(t reflect.Type, fn func() any) *ParameterBuilder {
	return b.sig.add(ValueFactory{T: t, Produce: fn})
}

// AsLastParameter finalizes the parameter list.
func (b *ParameterBuilder) AsLastParameter() *RegistrationBuilder {
	return b.sig.finish()
}

// MemberBuilder selects the value source of a field or property.
type MemberBuilder struct {
	owner *RegistrationBuilder
	kind  MemberKind
	name  string
	typ   reflect.Type
}

// SetTo injects the literal v.
func (b *MemberBuilder) SetTo(v any) *RegistrationBuilder {
	return b.set(Value{V: v})
}

// SetToValueFactory injects the result of fn, called at every construction.
func (b *MemberBuilder) SetToValueFactory(fn func() any) *RegistrationBuilder {
	return b.set(ValueFactory{T: b.typ, Produce: fn})
}

// SetToResolvedValue injects the instance resolved for the member type.
func (b *MemberBuilder) SetToResolvedValue() *RegistrationBuilder {
	return b.set(Resolved{T: b.typ})
}

// SetToNamedResolvedValue injects the instance resolved for (member type, name).
func (b *MemberBuilder) SetToNamedResolvedValue(name string) *RegistrationBuilder {
	return b.set(Resolved{T: b.typ, Name: name})
}

func (b *MemberBuilder) set(in Injection) *RegistrationBuilder {
	reg := b.owner.reg
	reg.Members = append(reg.Members, Member{Kind: b.kind, Name: b.name, Type: b.typ, Value: in})
	return b.owner
}
