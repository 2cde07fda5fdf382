// Package metrics exposes Prometheus collectors for store mutations, lookup
// misses and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/straye-as/jobsite-crm/internal/domain"
)

// Collector owns a private registry and the application metrics
type Collector struct {
	registry *prometheus.Registry

	MutationCounter          *prometheus.CounterVec
	LookupMissCounter        *prometheus.CounterVec
	RequestDurationHistogram *prometheus.HistogramVec
	APIErrorCounter          *prometheus.CounterVec
}

// NewCollector registers the metrics under namespace. changeLogSize, when
// not nil, backs a gauge reporting the number of change-log entries.
func NewCollector(namespace string, changeLogSize func() int) *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		MutationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Total number of recorded store mutations",
			},
			[]string{"action", "category"},
		),
		LookupMissCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookup_misses_total",
				Help:      "Total number of mutations ignored because their target did not exist",
			},
			[]string{"operation"},
		),
		RequestDurationHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		APIErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API responses with status >= 400",
			},
			[]string{"method", "route", "status"},
		),
	}

	if changeLogSize != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "changelog_entries",
			Help:      "Number of entries in the change log",
		}, func() float64 { return float64(changeLogSize()) })
	}

	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordMutation counts one change-log entry. It matches the recorder's
// subscriber signature.
func (c *Collector) RecordMutation(entry domain.ChangeLogEntry) {
	c.MutationCounter.With(prometheus.Labels{
		"action":   string(entry.Action),
		"category": string(entry.Category),
	}).Inc()
}

// RecordLookupMiss counts one ignored mutation. It matches the store's
// lookup-miss hook signature.
func (c *Collector) RecordLookupMiss(operation string) {
	c.LookupMissCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// unmatchedRoute labels requests no route pattern matched, keeping the
// label set bounded
const unmatchedRoute = "unmatched"

// Middleware tracks request duration and error responses by route pattern
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}

		c.RequestDurationHistogram.With(labels).Observe(time.Since(start).Seconds())
		if status >= 400 {
			c.APIErrorCounter.With(labels).Inc()
		}
	})
}
