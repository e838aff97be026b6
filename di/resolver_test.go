package di

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/speedioc/internal/testdomain"
)

// mapResolver resolves from a fixed map of keys.
type mapResolver map[Key]any

func (m mapResolver) Get(t reflect.Type) any                   { return m[Key{Type: t}] }
func (m mapResolver) GetNamed(t reflect.Type, name string) any { return m[Key{Type: t, Name: name}] }

func (m mapResolver) GetAll(t reflect.Type) []any {
	v := reflect.ValueOf(m.Get(t))
	if !v.IsValid() || v.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

func fixture() mapResolver {
	car := testdomain.NewCar()
	return mapResolver{
		{Type: TypeOf[testdomain.Vehicle]()}:                 car,
		{Type: TypeOf[testdomain.Vehicle](), Name: "truck"}:  testdomain.NewTruck(),
		{Type: TypeOf[testdomain.Color](), Name: "wrong"}:    "not a color",
		{Type: TypeOf[[]testdomain.Vehicle]()}:               []testdomain.Vehicle{car},
		{Type: TypeOf[[]testdomain.Color]()}:                 "not a slice",
		{Type: TypeOf[string](), Name: "DefaultMake"}:        "Ford",
		{Type: TypeOf[*testdomain.Car](), Name: "singleton"}: car,
	}
}

// TestGet verifies typed lookups and their zero-value misses.
func TestGet(t *testing.T) {
	t.Parallel()

	r := fixture()
	assert.IsType(t, &testdomain.Car{}, Get[testdomain.Vehicle](r))
	assert.IsType(t, &testdomain.Truck{}, GetNamed[testdomain.Vehicle](r, "truck"))
	assert.Equal(t, "Ford", GetNamed[string](r, "DefaultMake"))
	assert.Same(t, Get[testdomain.Vehicle](r), GetNamed[*testdomain.Car](r, "singleton"))

	assert.Nil(t, Get[testdomain.Color](r))
	assert.Nil(t, GetNamed[testdomain.Color](r, "wrong"))
	assert.Equal(t, "", Get[string](r))
}

// TestGetAll verifies the collection passthrough.
func TestGetAll(t *testing.T) {
	t.Parallel()

	r := fixture()
	assert.Len(t, GetAll[testdomain.Vehicle](r), 1)
	assert.Nil(t, GetAll[testdomain.Color](r))
	assert.Nil(t, GetAll[int](r))
}

// TestLookup verifies the comma-ok forms.
func TestLookup(t *testing.T) {
	t.Parallel()

	r := fixture()
	_, ok := Lookup[testdomain.Vehicle](r)
	assert.True(t, ok)
	_, ok = Lookup[testdomain.Color](r)
	assert.False(t, ok)
	_, ok = LookupNamed[testdomain.Color](r, "wrong")
	assert.False(t, ok)
	v, ok := LookupNamed[testdomain.Vehicle](r, "truck")
	assert.True(t, ok)
	assert.NotNil(t, v)
}

// TestMustGet verifies the panics of the Must forms.
func TestMustGet(t *testing.T) {
	t.Parallel()

	r := fixture()
	assert.NotNil(t, MustGet[testdomain.Vehicle](r))
	assert.NotNil(t, MustGetNamed[testdomain.Vehicle](r, "truck"))

	assert.PanicsWithError(t, `di: no registration for (testdomain.Color)`, func() { MustGet[testdomain.Color](r) })
	assert.PanicsWithError(t, "di: resolved value for testdomain.Color has type string", func() {
		MustGetNamed[testdomain.Color](r, "wrong")
	})

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		mre, ok := rec.(MissingRegistrationError)
		require.True(t, ok)
		assert.Equal(t, "nope", mre.Name)
	}()
	MustGetNamed[testdomain.Vehicle](r, "nope")
}
