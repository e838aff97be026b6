// Package diagnostics serves a read-only JSON view of a container plan over
// HTTP.
//
//	GET /                 identity, fingerprint and entry counts
//	GET /plan             the whole plan
//	GET /entries          every entry; ?status= filters by status
//	GET /entries/{index}  one entry
//	GET /overridden       entries replaced by a later registration
//	GET /skipped          entries with no lifetime strategy
package diagnostics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/sghaida/speedioc/artifact"
)

// Source is anything that exposes a plan. *speedioc.Container implements it.
type Source interface {
	Plan() *artifact.Plan
	Identity() string
}

// PlanSource adapts a plan loaded from disk to Source.
func PlanSource(p *artifact.Plan) Source { return planSource{p} }

type planSource struct{ p *artifact.Plan }

func (s planSource) Plan() *artifact.Plan { return s.p }
func (s planSource) Identity() string     { return s.p.Identity }

// Summary is the body of GET /.
type Summary struct {
	Identity    string    `json:"identity"`
	Fingerprint string    `json:"fingerprint"`
	GeneratedAt time.Time `json:"generatedAt"`
	Entries     int       `json:"entries"`
	Active      int       `json:"active"`
	Overridden  int       `json:"overridden"`
	Skipped     int       `json:"skipped"`
}

// Option configures the router.
type Option func(*handlers)

// WithLogger logs every request at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(h *handlers) {
		if log != nil {
			h.log = log
		}
	}
}

type handlers struct {
	src Source
	log *zap.Logger
}

// NewRouter returns the diagnostics routes over src.
func NewRouter(src Source, opts ...Option) http.Handler {
	h := &handlers{src: src, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/", h.summary)
	r.Get("/plan", h.plan)
	r.Get("/entries", h.entries)
	r.Get("/entries/{index}", h.entry)
	r.Get("/overridden", h.list(func(p *artifact.Plan) []artifact.Entry { return p.Overridden() }))
	r.Get("/skipped", h.list(func(p *artifact.Plan) []artifact.Entry { return p.Skipped() }))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	return r
}

func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("diagnostics request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (h *handlers) summary(w http.ResponseWriter, _ *http.Request) {
	p := h.src.Plan()
	writeJSON(w, http.StatusOK, Summary{
		Identity:    h.src.Identity(),
		Fingerprint: p.Fingerprint,
		GeneratedAt: p.GeneratedAt,
		Entries:     len(p.Entries),
		Active:      len(p.Active()),
		Overridden:  len(p.Overridden()),
		Skipped:     len(p.Skipped()),
	})
}

func (h *handlers) plan(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.src.Plan())
}

func (h *handlers) entries(w http.ResponseWriter, r *http.Request) {
	p := h.src.Plan()
	status := r.URL.Query().Get("status")
	if status == "" {
		writeJSON(w, http.StatusOK, nonNil(p.Entries))
		return
	}
	var out []artifact.Entry
	for _, e := range p.Entries {
		if string(e.Status) == status {
			out = append(out, e)
		}
	}
	writeJSON(w, http.StatusOK, nonNil(out))
}

func (h *handlers) entry(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, "entry index "+strconv.Quote(raw)+" is not a number")
		return
	}
	e, ok := h.src.Plan().Entry(i)
	if !ok {
		writeError(w, http.StatusNotFound, "no entry at index "+raw)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handlers) list(pick func(*artifact.Plan) []artifact.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, nonNil(pick(h.src.Plan())))
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil(es []artifact.Entry) []artifact.Entry {
	if es == nil {
		return []artifact.Entry{}
	}
	return es
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
