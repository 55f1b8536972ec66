package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsSubsystem = "taskflow"

// Metrics holds the Prometheus registry served on /metrics and the domain counters.
type Metrics struct {
	registry    *prometheus.Registry
	extractions *prometheus.CounterVec
	tasksStored prometheus.Counter
}

// NewMetrics creates a registry with the Go and process collectors and the task counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		registry: reg,
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "extractions_total",
			Help:      "Task extraction attempts by outcome.",
		}, []string{"outcome"}),
		tasksStored: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "tasks_created_total",
			Help:      "Tasks successfully created.",
		}),
	}
	reg.MustRegister(m.extractions, m.tasksStored)
	return m
}

func (m *Metrics) install(e *echo.Echo) {
	if m == nil {
		return
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: m.registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: m.registry}))
}

func (m *Metrics) extraction(outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) taskCreated() {
	if m == nil {
		return
	}
	m.tasksStored.Inc()
}
