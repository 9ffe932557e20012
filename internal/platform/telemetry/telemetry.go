// Package telemetry exposes Prometheus metrics for the score API: HTTP
// request counters and latencies, per-score calculation outcomes, and the
// audit store pool.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "examscore"

// Collector owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge

	CalculationsTotal  *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	CDSCardsTotal      *prometheus.CounterVec

	AuditWritesTotal *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"method", "route"}),

		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		CalculationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "calculations_total",
			Help:      "Score calculations by kind, status, and risk level.",
		}, []string{"kind", "status", "risk_level"}),

		EvaluationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "evaluation_duration_seconds",
			Help:      "Time to evaluate one exam section or single score.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"specialty"}),

		CDSCardsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cds",
			Name:      "cards_total",
			Help:      "CDS Hooks cards returned by indicator.",
		}, []string{"indicator"}),

		AuditWritesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "writes_total",
			Help:      "Calculation audit records written, by result. Alert on result=\"error\".",
		}, []string{"result"}),
	}
}

// Registry returns the collector's registry, for registering extra
// collectors such as the database pool.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveCalculation counts one computed score. Nil-safe.
func (c *Collector) ObserveCalculation(kind, status, riskLevel string) {
	if c == nil {
		return
	}
	c.CalculationsTotal.WithLabelValues(kind, status, riskLevel).Inc()
}

// ObserveEvaluation records how long one evaluation took. Nil-safe.
func (c *Collector) ObserveEvaluation(specialty string, d time.Duration) {
	if c == nil {
		return
	}
	c.EvaluationDuration.WithLabelValues(specialty).Observe(d.Seconds())
}

func (c *Collector) ObserveCard(indicator string) {
	if c == nil {
		return
	}
	c.CDSCardsTotal.WithLabelValues(indicator).Inc()
}

func (c *Collector) ObserveAuditWrite(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.AuditWritesTotal.WithLabelValues(result).Inc()
}

// MetricsMiddleware records request counts and latency by matched route, so
// path parameters do not explode label cardinality.
func (c *Collector) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			if ec.Request().URL.Path == "/metrics" {
				return next(ec)
			}
			start := time.Now()
			c.InFlight.Inc()
			defer c.InFlight.Dec()

			err := next(ec)

			status := ec.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := ec.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ec.Request().Method
			c.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			c.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
