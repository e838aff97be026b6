package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCollector_Counts verifies each recorder increments its labelled series.
func TestCollector_Counts(t *testing.T) {
	t.Parallel()

	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	c.Resolution(OutcomeHit)
	c.Resolution(OutcomeHit)
	c.Resolution(OutcomeMiss)
	c.Construction("Container")
	c.Build("generated", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.resolutions.WithLabelValues(OutcomeHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.resolutions.WithLabelValues(OutcomeMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.constructions.WithLabelValues("Container")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.builds.WithLabelValues("generated")))
}

// TestNew_ReusesRegisteredCollectors verifies two collectors on one registry share series.
func TestNew_ReusesRegisteredCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	b, err := New(reg)
	require.NoError(t, err)

	a.Resolution(OutcomeHit)
	b.Resolution(OutcomeHit)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.resolutions.WithLabelValues(OutcomeHit)))
}

// TestNew_NilRegisterer verifies collectors work unregistered.
func TestNew_NilRegisterer(t *testing.T) {
	t.Parallel()

	c, err := New(nil)
	require.NoError(t, err)
	c.Resolution(OutcomeError)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.resolutions.WithLabelValues(OutcomeError)))
}

// TestCollector_Nil verifies a nil collector is a no-op.
func TestCollector_Nil(t *testing.T) {
	t.Parallel()

	var c *Collector
	assert.NotPanics(t, func() {
		c.Resolution(OutcomeHit)
		c.Construction("Transient")
		c.Build("memory", time.Second)
	})
}
