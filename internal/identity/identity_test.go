package identity

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/internal/testdomain"
)

// -----------------------------------------------------------------------------
// MakeSafeIdentifier
// -----------------------------------------------------------------------------

// TestMakeSafeIdentifier verifies dots and whitespace are dropped and other symbols become '_'.
func TestMakeSafeIdentifier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "Car", want: "Car"},
		{in: "testdomain.Car", want: "testdomainCar"},
		{in: "*testdomain.Car", want: "_testdomainCar"},
		{in: "Viper Red And Black", want: "ViperRedAndBlack"},
		{in: "github.com/sghaida/speedioc", want: "githubcom_sghaida_speedioc"},
		{in: "map[string]int", want: "map_string_int"},
		{in: "héllo", want: "héllo"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := MakeSafeIdentifier(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// TestMakeSafeIdentifier_Empty verifies empty input is an ArgumentError.
func TestMakeSafeIdentifier_Empty(t *testing.T) {
	t.Parallel()

	_, err := MakeSafeIdentifier("")
	var argErr di.ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "text", argErr.Argument)
}

// -----------------------------------------------------------------------------
// Identifier
// -----------------------------------------------------------------------------

// TestIdentifier_Layout verifies the identifier is built from module, type, mapping, name and index.
func TestIdentifier_Layout(t *testing.T) {
	t.Parallel()

	r := &di.Registration{
		ConcreteType: reflect.TypeFor[*testdomain.Car](),
		MappedType:   reflect.TypeFor[testdomain.Vehicle](),
		Name:         "Viper Red",
	}
	got, err := Identifier(r, 7)
	require.NoError(t, err)
	assert.Equal(t,
		"githubcom_sghaida_speedioc_internal_testdomain___testdomainCar"+
			"__As__githubcom_sghaida_speedioc_internal_testdomain__testdomainVehicle"+
			"__WithName__ViperRed__RegistrationIndex__7",
		got)
}

// TestIdentifier_IndexDisambiguates verifies identical registrations differ only by index.
func TestIdentifier_IndexDisambiguates(t *testing.T) {
	t.Parallel()

	r := &di.Registration{ConcreteType: reflect.TypeFor[*testdomain.Car]()}
	a, err := Identifier(r, 0)
	require.NoError(t, err)
	b, err := Identifier(r, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a[:len(a)-1], b[:len(b)-1])
}

// TestIdentifier_BuiltinType verifies predeclared types use the builtin module.
func TestIdentifier_BuiltinType(t *testing.T) {
	t.Parallel()

	r := &di.Registration{ConcreteType: reflect.TypeFor[string]()}
	got, err := Identifier(r, 0)
	require.NoError(t, err)
	assert.Equal(t, "builtin__string__RegistrationIndex__0", got)
}

// TestIdentifier_NilConcrete verifies a nil concrete type is an ArgumentError naming the index.
func TestIdentifier_NilConcrete(t *testing.T) {
	t.Parallel()

	_, err := Identifier(&di.Registration{}, 3)
	var argErr di.ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, 3, argErr.Index)
}

// -----------------------------------------------------------------------------
// Key / Module / Operation
// -----------------------------------------------------------------------------

// TestKey_PrefersMappedType verifies the key type is MappedType when set.
func TestKey_PrefersMappedType(t *testing.T) {
	t.Parallel()

	car := reflect.TypeFor[*testdomain.Car]()
	vehicle := reflect.TypeFor[testdomain.Vehicle]()

	assert.Equal(t, di.Key{Type: car}, Key(&di.Registration{ConcreteType: car}))
	assert.Equal(t, di.Key{Type: vehicle, Name: "X"}, Key(&di.Registration{ConcreteType: car, MappedType: vehicle, Name: "X"}))
}

// TestModule verifies package paths are found through composite types.
func TestModule(t *testing.T) {
	t.Parallel()

	const pkg = "github.com/sghaida/speedioc/internal/testdomain"
	assert.Equal(t, pkg, Module(reflect.TypeFor[*testdomain.Car]()))
	assert.Equal(t, pkg, Module(reflect.TypeFor[[]testdomain.Vehicle]()))
	assert.Equal(t, pkg, Module(reflect.TypeFor[testdomain.Fleet]()))
	assert.Equal(t, "builtin", Module(reflect.TypeFor[int]()))
	assert.Equal(t, "builtin", Module(reflect.TypeFor[func()]()))
}

// TestOperation verifies dispatch entry prefixes.
func TestOperation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "GetInstance__x", Operation(GetInstance, "x"))
	assert.Equal(t, "CreateThreadLocalInstance__x", Operation(CreateThreadLocalInstance, "x"))
}
