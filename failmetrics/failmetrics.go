// Package failmetrics counts decode failures with Prometheus.
//
//	m := failmetrics.New(prometheus.DefaultRegisterer)
//	r := gracedec.NewRegistry(introspect.New(), gracedec.WithReporter(m))
package failmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reoring/gracedec"
)

// Reporter is a gracedec.Reporter backed by Prometheus counters. It is safe
// for concurrent use.
type Reporter struct {
	// AbsorbedTotal counts absorbed failures by model, policy, reason and
	// whether a container element or entry was dropped.
	AbsorbedTotal *prometheus.CounterVec
	// EscalatedTotal counts failed top-level decodes by model and reason.
	EscalatedTotal *prometheus.CounterVec

	next gracedec.Reporter
}

var _ gracedec.Reporter = (*Reporter)(nil)

// Option configures a Reporter.
type Option func(*config)

type config struct {
	namespace string
	next      gracedec.Reporter
}

// WithNamespace sets the metric namespace (default "gracedec").
func WithNamespace(ns string) Option { return func(c *config) { c.namespace = ns } }

// WithNext forwards every event to r after counting it.
func WithNext(r gracedec.Reporter) Option { return func(c *config) { c.next = r } }

// New registers the counters on reg and returns the Reporter.
func New(reg prometheus.Registerer, opts ...Option) *Reporter {
	cfg := config{namespace: "gracedec"}
	for _, o := range opts {
		o(&cfg)
	}
	factory := promauto.With(reg)
	return &Reporter{
		AbsorbedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "absorbed_failures_total",
				Help:      "Field and element failures absorbed by a tolerant policy",
			},
			[]string{"model", "policy", "reason", "element"},
		),
		EscalatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "escalated_failures_total",
				Help:      "Top-level decodes that failed",
			},
			[]string{"model", "reason"},
		),
		next: cfg.next,
	}
}

// Absorbed implements gracedec.Reporter.
func (r *Reporter) Absorbed(e gracedec.Event) {
	policy := e.Policy.String()
	element := "false"
	if e.Element {
		policy, element = "element", "true"
	}
	r.AbsorbedTotal.WithLabelValues(e.Model, policy, string(e.Reason), element).Inc()
	if r.next != nil {
		r.next.Absorbed(e)
	}
}

// Escalated implements gracedec.Reporter.
func (r *Reporter) Escalated(gf *gracedec.GracefulFailure) {
	r.EscalatedTotal.WithLabelValues(gf.Model, string(gf.Reason)).Inc()
	if r.next != nil {
		r.next.Escalated(gf)
	}
}
