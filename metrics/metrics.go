package metrics

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	SurveyLoads    *prometheus.CounterVec
	Submissions    *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	Requests       *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SurveyLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "survey_flow",
			Name:      "survey_loads_total",
			Help:      "Survey snapshot fetches by result.",
		}, []string{"result"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "survey_flow",
			Name:      "submissions_total",
			Help:      "Submission attempts by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "survey_flow",
			Name:      "active_sessions",
			Help:      "Respondent sessions held in memory.",
		}),
		Requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "survey_flow",
			Name:      "http_request_duration_seconds",
			Help:      "Widget API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SurveyLoads,
		m.Submissions,
		m.ActiveSessions,
		m.Requests,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request latency labelled by the chi route pattern, so
// per-slug paths collapse into one series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snoop := httpsnoop.CaptureMetrics(next, w, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.Requests.
			WithLabelValues(r.Method, route, strconv.Itoa(snoop.Code)).
			Observe(snoop.Duration.Seconds())
	})
}
