// Package runtime is the built container: immutable handler maps answering
// type and name lookups.
package runtime

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/metrics"
	"github.com/sghaida/speedioc/store"
)

// Producer builds or fetches an instance.
type Producer func() (any, error)

// Handler is the invocable realization of one registration. Instance, when
// set, governs every call; otherwise Produce does.
type Handler struct {
	Key        di.Key
	Identifier string
	Lifetime   di.Lifetime
	Instance   any
	Produce    Producer
}

func (h *Handler) resolve() (any, error) {
	if h.Instance != nil {
		return h.Instance, nil
	}
	return h.Produce()
}

// Resolver answers lookups against a HandlerMap and a NamedHandlerMap.
//
// Bind populates the maps during linking; Seal freezes them. Lookups are safe
// for concurrent use once sealed.
type Resolver struct {
	identity string
	handlers map[reflect.Type]*Handler
	named    map[reflect.Type]map[string]*Handler
	threads  *store.ThreadStore
	sealed   bool

	log     *zap.Logger
	metrics *metrics.Collector
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for swallowed construction errors.
func WithLogger(log *zap.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics records lookups on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Resolver) { r.metrics = c }
}

// New returns an empty, unsealed Resolver for identity.
func New(identity string, opts ...Option) *Resolver {
	r := &Resolver{
		identity: identity,
		handlers: make(map[reflect.Type]*Handler),
		named:    make(map[reflect.Type]map[string]*Handler),
		threads:  store.NewThreadStore(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Identity returns the artifact identity the resolver was built under.
func (r *Resolver) Identity() string { return r.identity }

// Threads returns the goroutine-local store owned by this resolver.
func (r *Resolver) Threads() *store.ThreadStore { return r.threads }

// Bind maps h under its key: unnamed keys go to the HandlerMap, named keys to
// the NamedHandlerMap. A later Bind for the same key replaces the earlier one.
// Bind returns di.ErrSealed after Seal.
func (r *Resolver) Bind(h *Handler) error {
	if r.sealed {
		return di.ErrSealed
	}
	t := h.Key.Type
	if h.Key.Name == "" {
		r.handlers[t] = h
		return nil
	}
	sub, ok := r.named[t]
	if !ok {
		sub = make(map[string]*Handler)
		r.named[t] = sub
	}
	sub[h.Key.Name] = h
	return nil
}

// Seal freezes the maps.
func (r *Resolver) Seal() { r.sealed = true }

// Sealed reports whether Seal was called.
func (r *Resolver) Sealed() bool { return r.sealed }

// Handler returns the handler bound under (t, name).
func (r *Resolver) Handler(t reflect.Type, name string) (*Handler, bool) {
	if name == "" {
		h, ok := r.handlers[t]
		return h, ok
	}
	sub, ok := r.named[t]
	if !ok {
		return nil, false
	}
	h, ok := sub[name]
	return h, ok
}

// Len returns the number of bound handlers.
func (r *Resolver) Len() int {
	n := len(r.handlers)
	for _, sub := range r.named {
		n += len(sub)
	}
	return n
}

// Resolve returns the instance for the unnamed registration of t.
//
// A miss returns (nil, nil). Construction failures are returned as errors.
func (r *Resolver) Resolve(t reflect.Type) (any, error) {
	return r.ResolveNamed(t, "")
}

// ResolveNamed returns the instance for (t, name); an empty name means the
// unnamed registration.
func (r *Resolver) ResolveNamed(t reflect.Type, name string) (any, error) {
	h, ok := r.Handler(t, name)
	if !ok {
		r.metrics.Resolution(metrics.OutcomeMiss)
		return nil, nil
	}
	v, err := h.resolve()
	if err != nil {
		r.metrics.Resolution(metrics.OutcomeError)
		return nil, err
	}
	r.metrics.Resolution(metrics.OutcomeHit)
	return v, nil
}

// Get implements di.Resolver.
func (r *Resolver) Get(t reflect.Type) any {
	return r.get(t, "")
}

// GetNamed implements di.Resolver.
func (r *Resolver) GetNamed(t reflect.Type, name string) any {
	return r.get(t, name)
}

// GetAll implements di.Resolver. t is the collection type itself; the result
// holds its elements, or nil when t resolves to nothing or to a non-collection.
func (r *Resolver) GetAll(t reflect.Type) []any {
	raw := r.get(t, "")
	if raw == nil {
		return nil
	}
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

func (r *Resolver) get(t reflect.Type, name string) any {
	v, err := r.ResolveNamed(t, name)
	if err != nil {
		r.log.Error("resolution failed",
			zap.String("identity", r.identity),
			zap.String("key", di.Key{Type: t, Name: name}.String()),
			zap.Error(err),
		)
		return nil
	}
	return v
}

// ReleaseThread drops the calling goroutine's Thread-lifetime instances.
func (r *Resolver) ReleaseThread() { r.threads.Release() }

var _ di.Resolver = (*Resolver)(nil)
