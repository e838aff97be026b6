package runtime

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/metrics"
	"github.com/sghaida/speedioc/store"
)

type widget struct{ id int }

var (
	widgetType  = reflect.TypeFor[*widget]()
	widgetsType = reflect.TypeFor[[]*widget]()
)

func counter() (Producer, *int) {
	n := 0
	return func() (any, error) {
		n++
		return &widget{id: n}, nil
	}, &n
}

// -----------------------------------------------------------------------------
// Bind / lookup
// -----------------------------------------------------------------------------

// TestResolver_UnnamedAndNamed verifies unnamed and named handlers live in separate maps.
func TestResolver_UnnamedAndNamed(t *testing.T) {
	t.Parallel()

	r := New("app")
	require.NoError(t, r.Bind(&Handler{Key: di.Key{Type: widgetType}, Instance: &widget{id: 1}}))
	require.NoError(t, r.Bind(&Handler{Key: di.Key{Type: widgetType, Name: "x"}, Instance: &widget{id: 2}}))
	r.Seal()

	assert.Equal(t, 1, r.Get(widgetType).(*widget).id)
	assert.Equal(t, 2, r.GetNamed(widgetType, "x").(*widget).id)
	assert.Nil(t, r.GetNamed(widgetType, "y"))
	assert.Nil(t, r.Get(reflect.TypeFor[string]()))
	assert.Equal(t, 2, r.Len())
}

// TestResolver_InstanceWinsOverProducer verifies a precomputed instance governs every call.
func TestResolver_InstanceWinsOverProducer(t *testing.T) {
	t.Parallel()

	produce, calls := counter()
	r := New("app")
	inst := &widget{id: 42}
	require.NoError(t, r.Bind(&Handler{Key: di.Key{Type: widgetType}, Instance: inst, Produce: produce}))

	assert.Same(t, inst, r.Get(widgetType))
	assert.Equal(t, 0, *calls)
}

// TestResolver_SealedRejectsBind verifies maps are immutable after Seal.
func TestResolver_SealedRejectsBind(t *testing.T) {
	t.Parallel()

	r := New("app")
	r.Seal()
	assert.True(t, r.Sealed())
	assert.ErrorIs(t, r.Bind(&Handler{Key: di.Key{Type: widgetType}}), di.ErrSealed)
}

// TestResolver_ErrorIsSwallowedByGet verifies Get logs and returns nil while Resolve returns the error.
func TestResolver_ErrorIsSwallowedByGet(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	boom := errors.New("boom")
	r := New("app", WithLogger(zap.New(core)))
	require.NoError(t, r.Bind(&Handler{Key: di.Key{Type: widgetType}, Produce: func() (any, error) { return nil, boom }}))

	assert.Nil(t, r.Get(widgetType))
	assert.Equal(t, 1, logs.FilterMessage("resolution failed").Len())

	_, err := r.Resolve(widgetType)
	assert.ErrorIs(t, err, boom)
}

// TestResolver_GetAll verifies collection registrations are flattened into elements.
func TestResolver_GetAll(t *testing.T) {
	t.Parallel()

	r := New("app")
	require.NoError(t, r.Bind(&Handler{Key: di.Key{Type: widgetsType}, Instance: []*widget{{id: 1}, {id: 2}}}))
	require.NoError(t, r.Bind(&Handler{Key: di.Key{Type: widgetType}, Instance: &widget{id: 3}}))

	all := r.GetAll(widgetsType)
	require.Len(t, all, 2)
	assert.Equal(t, 2, all[1].(*widget).id)

	assert.Nil(t, r.GetAll(widgetType), "non-collection registrations yield nil")
	assert.Nil(t, r.GetAll(reflect.TypeFor[[]string]()), "misses yield nil")
}

// TestResolver_Metrics verifies hits, misses and errors are counted.
func TestResolver_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	r := New("app", WithMetrics(c))
	require.NoError(t, r.Bind(&Handler{Key: di.Key{Type: widgetType}, Instance: &widget{}}))
	r.Get(widgetType)
	r.Get(reflect.TypeFor[string]())

	n, err := testutil.GatherAndCount(reg, "speedioc_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// -----------------------------------------------------------------------------
// Lifetime slots
// -----------------------------------------------------------------------------

// TestTransient verifies every call constructs.
func TestTransient(t *testing.T) {
	t.Parallel()

	produce, calls := counter()
	p := Transient(produce)
	a, _ := p()
	b, _ := p()
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, *calls)
}

// TestContainerSlot verifies the first instance is cached and errors are not.
func TestContainerSlot(t *testing.T) {
	t.Parallel()

	fail := true
	n := 0
	p := ContainerSlot(func() (any, error) {
		if fail {
			fail = false
			return nil, errors.New("first attempt fails")
		}
		n++
		return &widget{id: n}, nil
	})

	_, err := p()
	require.Error(t, err)

	a, err := p()
	require.NoError(t, err)
	b, err := p()
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, n)
}

// TestContainerSlot_ConcurrentFirstAccess verifies every caller ends up with one shared instance.
func TestContainerSlot_ConcurrentFirstAccess(t *testing.T) {
	t.Parallel()

	p := ContainerSlot(func() (any, error) { return &widget{}, nil })

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p()
		}()
	}
	wg.Wait()

	a, _ := p()
	b, _ := p()
	assert.Same(t, a, b)
}

// TestProcessSlot verifies two slots over one store and identity share the instance.
func TestProcessSlot(t *testing.T) {
	t.Parallel()

	ps := store.NewProcessStore()
	produce, calls := counter()

	first := ProcessSlot(ps, "app", "k", produce)
	second := ProcessSlot(ps, "app", "k", produce)
	other := ProcessSlot(ps, "other", "k", produce)

	a, err := first()
	require.NoError(t, err)
	b, err := second()
	require.NoError(t, err)
	c, err := other()
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, *calls)
}

// TestThreadSlot verifies instances are per goroutine.
func TestThreadSlot(t *testing.T) {
	t.Parallel()

	produce, _ := counter()
	p := ThreadSlot(store.NewThreadStore(), 0, produce)

	a, _ := p()
	b, _ := p()
	assert.Same(t, a, b)

	var c any
	done := make(chan struct{})
	go func() {
		defer close(done)
		c, _ = p()
	}()
	<-done
	assert.NotSame(t, a, c)
}

// TestCustomSlot verifies the manager decides when to produce.
func TestCustomSlot(t *testing.T) {
	t.Parallel()

	produce, calls := counter()
	var kept any
	m := di.LifetimeManagerFunc(func(produce func() (any, error)) (any, error) {
		if kept != nil {
			return kept, nil
		}
		v, err := produce()
		kept = v
		return v, err
	})

	p := CustomSlot(m, produce)
	a, _ := p()
	b, _ := p()
	assert.Same(t, a, b)
	assert.Equal(t, 1, *calls)
}
