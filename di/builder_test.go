package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/speedioc/internal/testdomain"
)

var (
	colorT  = TypeOf[testdomain.Color]()
	stringT = TypeOf[string]()
)

// TestBuilder_Options verifies the fluent setters land on the registration in
// any order.
func TestBuilder_Options(t *testing.T) {
	t.Parallel()

	r := NewRegistrar()
	a := Register[*testdomain.Car](r).WithName("a").WithLifetime(Container).PreCreateInstance().Registration()
	b := Register[*testdomain.Car](r).PreCreateInstance().WithLifetime(Container).WithName("a").Registration()
	assert.Equal(t, a, b)

	m := LifetimeManagerFunc(func(produce func() (any, error)) (any, error) { return produce() })
	c := Register[*testdomain.Car](r).WithCustomLifetime(m).Registration()
	assert.Equal(t, Custom, c.Lifetime)
	assert.NotNil(t, c.Manager)

	p := Register[int](r).WithPrimitiveValue(0).Registration()
	assert.True(t, p.HasPrimitiveValue)
	assert.Equal(t, 0, p.PrimitiveValue)
}

// TestBuilder_Constructor verifies parameter lists are committed in order.
func TestBuilder_Constructor(t *testing.T) {
	t.Parallel()

	r := NewRegistrar()
	typ, produce := Factory(testdomain.NewRedColor)
	reg := Register[*testdomain.Car](r).
		UsingConstructor().
		WithValueParameter("Ford").
		WithResolvedParameter(colorT).
		WithNamedResolvedParameter(colorT, "Red").
		WithValueFactoryParameter(typ, produce).
		AsLastParameter().
		Registration()

	require.NotNil(t, reg.Constructor)
	assert.Nil(t, reg.Constructor.Func)
	params := reg.Constructor.Parameters
	require.Len(t, params, 4)
	assert.Equal(t, Value{V: "Ford"}, params[0])
	assert.Equal(t, Resolved{T: colorT}, params[1])
	assert.Equal(t, Resolved{T: colorT, Name: "Red"}, params[2])
	assert.Equal(t, KindValueFactory, params[3].Kind())
	assert.Equal(t, TypeOf[*testdomain.RedColor](), params[3].Type())
	assert.IsType(t, &testdomain.RedColor{}, params[3].(ValueFactory).Produce())
}

// TestBuilder_ConstructorFunc verifies the pinned constructor and an empty
// parameter list.
func TestBuilder_ConstructorFunc(t *testing.T) {
	t.Parallel()

	r := NewRegistrar()
	reg := Register[*testdomain.Car](r).UsingConstructorFunc(testdomain.NewCar).WithNoParameters().Registration()
	require.NotNil(t, reg.Constructor)
	assert.NotNil(t, reg.Constructor.Func)
	assert.Empty(t, reg.Constructor.Parameters)
}

// TestBuilder_Unfinished verifies a parameter list that is never finalized
// leaves the registration untouched.
func TestBuilder_Unfinished(t *testing.T) {
	t.Parallel()

	r := NewRegistrar()
	rb := Register[*testdomain.Car](r)
	rb.UsingConstructor().WithValueParameter("Ford")
	rb.CallingMethod("InstallEngine").WithValueParameter(426)

	assert.Nil(t, rb.Registration().Constructor)
	assert.Empty(t, rb.Registration().Members)
}

// TestBuilder_FinishOnce verifies a finalized list is not committed twice.
func TestBuilder_FinishOnce(t *testing.T) {
	t.Parallel()

	r := NewRegistrar()
	pb := Register[*testdomain.Car](r).CallingMethod("InstallEngine").WithValueParameter(426)
	owner := pb.AsLastParameter()
	assert.Same(t, owner, pb.AsLastParameter())
	assert.Len(t, owner.Registration().Members, 1)
}

// TestBuilder_Members verifies fields, properties and methods are appended in
// declaration order with their sources.
func TestBuilder_Members(t *testing.T) {
	t.Parallel()

	r := NewRegistrar()
	reg := Register[*testdomain.Car](r).
		WithField("Make", stringT).SetTo("Ford").
		WithProperty("Model", stringT).SetToValueFactory(func() any { return "GT" }).
		CallingMethod("Register").WithValueParameter("sam").AsLastParameter().
		WithField("ColorScheme", TypeOf[testdomain.ColorScheme]()).SetToResolvedValue().
		WithProperty("Model", stringT).SetToNamedResolvedValue("model").
		Registration()

	require.Len(t, reg.Members, 5)

	assert.Equal(t, Member{Kind: FieldMember, Name: "Make", Type: stringT, Value: Value{V: "Ford"}}, reg.Members[0])

	assert.Equal(t, PropertyMember, reg.Members[1].Kind)
	vf, ok := reg.Members[1].Value.(ValueFactory)
	require.True(t, ok)
	assert.Equal(t, stringT, vf.T)
	assert.Equal(t, "GT", vf.Produce())

	assert.Equal(t, MethodMember, reg.Members[2].Kind)
	assert.Equal(t, []Injection{Value{V: "sam"}}, reg.Members[2].Parameters)

	assert.Equal(t, Resolved{T: TypeOf[testdomain.ColorScheme]()}, reg.Members[3].Value)
	assert.Equal(t, Resolved{T: stringT, Name: "model"}, reg.Members[4].Value)
}

// TestMemberKind_String verifies kind names.
func TestMemberKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Field", FieldMember.String())
	assert.Equal(t, "Property", PropertyMember.String())
	assert.Equal(t, "Method", MethodMember.String())
	assert.Equal(t, "MemberKind(9)", MemberKind(9).String())
}

// TestDescribeInjection verifies the diagnostic rendering of injections.
func TestDescribeInjection(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Value(nil)", DescribeInjection(Value{}))
	assert.Equal(t, "Value(int=3)", DescribeInjection(Value{V: 3}))
	assert.Equal(t, "ValueFactory(string)", DescribeInjection(ValueFactory{T: stringT}))
	assert.Equal(t, "Resolved(testdomain.Color)", DescribeInjection(Resolved{T: colorT}))
	assert.Equal(t, `Resolved(testdomain.Color, "Red")`, DescribeInjection(Resolved{T: colorT, Name: "Red"}))
	assert.Equal(t, "<nil>", DescribeInjection(nil))

	assert.Equal(t, "Value", KindValue.String())
	assert.Equal(t, "Resolved", KindResolved.String())
	assert.Equal(t, "InjectionKind(7)", InjectionKind(7).String())
	assert.Nil(t, Value{}.Type())
}
