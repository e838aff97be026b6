// Package metrics exposes Prometheus collectors for container builds and
// resolutions. A nil *Collector is valid and records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

const namespace = "speedioc"

// Collector records resolution, construction and build activity.
type Collector struct {
	resolutions   *prometheus.CounterVec
	constructions *prometheus.CounterVec
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg. Collectors that are
// already registered (by an earlier New on the same registerer) are reused.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Container lookups by outcome.",
		}, []string{"outcome"}),
		constructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "constructions_total",
			Help:      "Instances constructed by lifetime.",
		}, []string{"lifetime"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Container builds by artifact source.",
		}, []string{"source"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building containers.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		return c, nil
	}

	var err error
	c.resolutions, err = register(reg, c.resolutions)
	if err != nil {
		return nil, err
	}
	c.constructions, err = register(reg, c.constructions)
	if err != nil {
		return nil, err
	}
	c.builds, err = register(reg, c.builds)
	if err != nil {
		return nil, err
	}
	c.buildDuration, err = register(reg, c.buildDuration)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}

// Resolution counts one lookup.
func (c *Collector) Resolution(outcome string) {
	if c == nil {
		return
	}
	c.resolutions.WithLabelValues(outcome).Inc()
}

// Construction counts one constructed instance.
func (c *Collector) Construction(lifetime string) {
	if c == nil {
		return
	}
	c.constructions.WithLabelValues(lifetime).Inc()
}

// Build counts one completed build and observes its duration.
func (c *Collector) Build(source string, d time.Duration) {
	if c == nil {
		return
	}
	c.builds.WithLabelValues(source).Inc()
	c.buildDuration.Observe(d.Seconds())
}
