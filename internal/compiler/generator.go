// Package compiler is the resolver generator. It validates registrations,
// plans overrides, constructions and member bindings, persists the plan, and
// links it into a sealed runtime.
package compiler

import (
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sghaida/speedioc/artifact"
	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/internal/runtime"
	"github.com/sghaida/speedioc/metrics"
	"github.com/sghaida/speedioc/store"
)

// Source says where the plan of a build came from.
type Source string

const (
	// SourceGenerated is a plan produced by this build.
	SourceGenerated Source = "generated"
	// SourceMemory is a plan reused from the in-process cache.
	SourceMemory Source = "memory"
	// SourceArtifact is a plan loaded from the cache location.
	SourceArtifact Source = "artifact"
)

// DefaultPlanCacheSize bounds the shared in-process plan cache.
const DefaultPlanCacheSize = 64

// ErrFingerprintMismatch is the cause of an ArtifactLoadError for a persisted
// plan generated from different registrations.
var ErrFingerprintMismatch = errors.New("fingerprint mismatch; rebuild with ForceRegenerate")

// PlanCache holds plans keyed by identity and fingerprint.
type PlanCache = lru.Cache[string, *artifact.Plan]

// NewPlanCache returns a plan cache holding up to size plans.
func NewPlanCache(size int) (*PlanCache, error) {
	return lru.New[string, *artifact.Plan](size)
}

var sharedPlans = func() *PlanCache {
	c, err := NewPlanCache(DefaultPlanCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}()

// Result is a linked runtime together with the plan it was linked from.
type Result struct {
	Resolver *runtime.Resolver
	Plan     *artifact.Plan
	Source   Source
}

// Generator builds runtimes from registrations.
type Generator struct {
	log     *zap.Logger
	process *store.ProcessStore
	metrics *metrics.Collector
	plans   *PlanCache
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithProcessStore sets the store backing Process lifetimes.
func WithProcessStore(ps *store.ProcessStore) Option {
	return func(g *Generator) {
		if ps != nil {
			g.process = ps
		}
	}
}

// WithMetrics records constructions and builds on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Generator) { g.metrics = c }
}

// WithPlanCache replaces the shared in-process plan cache.
func WithPlanCache(c *PlanCache) Option {
	return func(g *Generator) {
		if c != nil {
			g.plans = c
		}
	}
}

// New returns a Generator using the shared process store and plan cache
// unless overridden.
func New(opts ...Option) *Generator {
	g := &Generator{
		log:     zap.NewNop(),
		process: store.Shared(),
		plans:   sharedPlans,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate validates regs, obtains a plan (cached, persisted or freshly
// generated) and links it into a sealed runtime.
func (g *Generator) Generate(regs []*di.Registration, opts di.BuildOptions) (*Result, error) {
	start := g.now()
	if err := checkArguments(regs); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := validate(regs); err != nil {
		return nil, err
	}

	fingerprint := artifact.Fingerprint(regs)
	plan, source, err := g.obtain(regs, opts, fingerprint)
	if err != nil {
		return nil, err
	}

	rt := runtime.New(opts.ArtifactIdentity,
		runtime.WithLogger(g.log),
		runtime.WithMetrics(g.metrics),
	)
	l := &linker{g: g, regs: regs, plan: plan, opts: opts, rt: rt}
	if err := l.link(); err != nil {
		if source == SourceArtifact {
			return nil, di.ArtifactLoadError{
				Identity: opts.ArtifactIdentity,
				Path:     artifact.PlanPath(opts.CacheLocation, opts.ArtifactIdentity),
				Err:      err,
			}
		}
		return nil, generationError(opts, err)
	}

	if source != SourceMemory {
		g.plans.Add(cacheKey(opts.ArtifactIdentity, fingerprint), plan)
	}
	g.metrics.Build(string(source), g.now().Sub(start))
	g.log.Debug("runtime linked",
		zap.String("identity", opts.ArtifactIdentity),
		zap.String("source", string(source)),
		zap.Int("handlers", rt.Len()),
	)
	return &Result{Resolver: rt, Plan: plan, Source: source}, nil
}

// obtain returns a reusable plan, or generates and persists a new one.
func (g *Generator) obtain(regs []*di.Registration, opts di.BuildOptions, fingerprint string) (*artifact.Plan, Source, error) {
	identity := opts.ArtifactIdentity
	if !opts.ForceRegenerate {
		if p, ok := g.plans.Get(cacheKey(identity, fingerprint)); ok {
			g.log.Debug("plan cache hit", zap.String("identity", identity))
			return p, SourceMemory, nil
		}
		if opts.CacheLocation != "" {
			p, err := artifact.Load(opts.CacheLocation, identity)
			switch {
			case err == nil:
				if p.Fingerprint != fingerprint || p.Identity != identity {
					return nil, "", g.loadError(opts, ErrFingerprintMismatch)
				}
				g.log.Debug("artifact loaded",
					zap.String("identity", identity),
					zap.String("path", artifact.PlanPath(opts.CacheLocation, identity)),
				)
				return p, SourceArtifact, nil
			case errors.Is(err, artifact.ErrNotFound):
			default:
				return nil, "", g.loadError(opts, err)
			}
		}
	}

	pl := &planner{log: g.log, regs: regs, comments: opts.IncludeDiagnosticComments}
	plan := &artifact.Plan{
		Version:     artifact.FormatVersion,
		Identity:    identity,
		Fingerprint: fingerprint,
		GeneratedAt: g.now().UTC(),
		Entries:     pl.entries(),
	}
	if pl.errs != nil {
		return nil, "", generationError(opts, pl.errs)
	}
	if err := g.persist(plan, opts); err != nil {
		return nil, "", generationError(opts, err)
	}
	return plan, SourceGenerated, nil
}

// persist writes the plan and, when retained, its Go rendition.
func (g *Generator) persist(plan *artifact.Plan, opts di.BuildOptions) error {
	if opts.CacheLocation == "" {
		return nil
	}
	var errs error
	path, err := artifact.Save(opts.CacheLocation, plan)
	if err != nil {
		errs = multierr.Append(errs, di.Diagnostic{Index: -1, Message: fmt.Sprintf("writing plan: %v", err)})
	} else {
		g.log.Debug("plan written", zap.String("path", path))
	}
	if opts.RetainGeneratedArtifact {
		path, err := artifact.WriteRendition(opts.CacheLocation, plan, opts.PackageName(), opts.IncludeDiagnosticComments)
		if err != nil {
			errs = multierr.Append(errs, di.Diagnostic{Index: -1, Message: fmt.Sprintf("writing rendition: %v", err)})
		} else {
			g.log.Debug("rendition written", zap.String("path", path))
		}
	}
	return errs
}

func (g *Generator) loadError(opts di.BuildOptions, err error) error {
	return di.ArtifactLoadError{
		Identity: opts.ArtifactIdentity,
		Path:     artifact.PlanPath(opts.CacheLocation, opts.ArtifactIdentity),
		Err:      err,
	}
}

func generationError(opts di.BuildOptions, err error) error {
	return di.ArtifactGenerationError{
		Identity:      opts.ArtifactIdentity,
		Diagnostics:   multierr.Errors(err),
		Configuration: opts.String(),
	}
}

func cacheKey(identity, fingerprint string) string {
	return identity + "|" + fingerprint
}
