package speedioc

import (
	"time"

	"go.uber.org/zap"

	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/internal/aggregate"
	"github.com/sghaida/speedioc/internal/compiler"
	"github.com/sghaida/speedioc/metrics"
	"github.com/sghaida/speedioc/store"
)

// Builder collects registries and builds a Container from them.
//
// A Builder is not safe for concurrent use. Build may be called more than
// once; each call invokes every registry again.
type Builder struct {
	opts       di.BuildOptions
	registries []di.Registry

	log     *zap.Logger
	process *store.ProcessStore
	metrics *metrics.Collector
	plans   *compiler.PlanCache
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used during builds and by the built container.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithProcessStore sets the store backing Process lifetimes. Containers built
// with the same store and artifact identity share Process instances. The
// default is store.Shared().
func WithProcessStore(ps *store.ProcessStore) Option {
	return func(b *Builder) {
		if ps != nil {
			b.process = ps
		}
	}
}

// WithMetrics records build and resolution activity on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(b *Builder) { b.metrics = c }
}

// WithPlanCacheSize gives the builder a private in-process plan cache of n
// plans instead of the one shared by every builder. Non-positive sizes are
// ignored.
func WithPlanCacheSize(n int) Option {
	return func(b *Builder) {
		if c, err := compiler.NewPlanCache(n); err == nil {
			b.plans = c
		}
	}
}

// WithRegistries appends registries, as AddRegistry does.
func WithRegistries(registries ...di.Registry) Option {
	return func(b *Builder) { b.registries = append(b.registries, registries...) }
}

// New returns a Builder for opts.
func New(opts di.BuildOptions, options ...Option) *Builder {
	b := &Builder{
		opts:    opts,
		log:     zap.NewNop(),
		process: store.Shared(),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// AddRegistry appends registries in order. A nil registry is reported by Build.
func (b *Builder) AddRegistry(registries ...di.Registry) *Builder {
	b.registries = append(b.registries, registries...)
	return b
}

// Options returns the build options.
func (b *Builder) Options() di.BuildOptions { return b.opts }

// Build aggregates the registries and generates the container.
func (b *Builder) Build() (*Container, error) {
	start := time.Now()
	if len(b.registries) == 0 {
		return nil, di.ArgumentError{Argument: "registries", Index: -1, Reason: "at least one registry is required"}
	}
	for i, r := range b.registries {
		if r == nil {
			return nil, di.ArgumentError{Argument: "registries", Index: i, Reason: "registry is nil"}
		}
	}

	regs, err := aggregate.New(b.log).Aggregate(b.registries)
	if err != nil {
		return nil, err
	}

	gen := compiler.New(
		compiler.WithLogger(b.log),
		compiler.WithProcessStore(b.process),
		compiler.WithMetrics(b.metrics),
		compiler.WithPlanCache(b.plans),
	)
	res, err := gen.Generate(regs, b.opts)
	if err != nil {
		return nil, err
	}

	b.log.Info("container built",
		zap.String("identity", b.opts.ArtifactIdentity),
		zap.String("source", string(res.Source)),
		zap.Int("registrations", len(regs)),
		zap.Int("handlers", res.Resolver.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Container{rt: res.Resolver, plan: res.Plan, source: res.Source}, nil
}
