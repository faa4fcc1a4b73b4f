package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ideamap/application/ports"
	querybus "ideamap/application/queries/bus"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry  *prometheus.Registry
	namespace string

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Generation metrics
	ModelCalls        *prometheus.CounterVec
	ModelCallDuration *prometheus.HistogramVec
	TasksInFlight     prometheus.Gauge
	Generations       *prometheus.CounterVec

	// Layout metrics
	LayoutDuration prometheus.Histogram
	LayoutNodes    prometheus.Histogram

	// Query bus metrics
	QueryDuration *prometheus.HistogramVec
	QueryOps      *prometheus.CounterVec
}

var (
	_ ports.GenerationMetrics = (*Collector)(nil)
	_ ports.LayoutMetrics     = (*Collector)(nil)
	_ querybus.Metrics        = (*Collector)(nil)
)

// NewCollector creates a metrics collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry:  registry,
		namespace: namespace,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ModelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Model calls by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		ModelCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Model call duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
			},
			[]string{"stage"},
		),
		TasksInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "task_requests_in_flight",
				Help:      "Task breakdown requests currently outstanding",
			},
		),
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Finished generations by final status",
			},
			[]string{"status"},
		),
		LayoutDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "layout_duration_seconds",
				Help:      "Layout computation duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
		),
		LayoutNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "layout_nodes",
				Help:      "Number of nodes placed per layout",
				Buckets:   []float64{5, 10, 20, 40, 80, 160},
			},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		QueryOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_operations_total",
				Help:      "Query bus counters by metric and query type",
			},
			[]string{"metric", "query"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ModelCalls,
		c.ModelCallDuration,
		c.TasksInFlight,
		c.Generations,
		c.LayoutDuration,
		c.LayoutNodes,
		c.QueryDuration,
		c.QueryOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the Prometheus registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RegisterGaugeFunc exposes a value computed at scrape time
func (c *Collector) RegisterGaugeFunc(name, help string, fn func() float64) error {
	return c.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: c.namespace, Name: name, Help: help}, fn))
}

// ObserveHTTPRequest records one served request
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) ObserveModelCall(stage, outcome string, duration time.Duration) {
	c.ModelCalls.WithLabelValues(stage, outcome).Inc()
	c.ModelCallDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func (c *Collector) AddInFlightTasks(delta int) {
	c.TasksInFlight.Add(float64(delta))
}

func (c *Collector) IncGeneration(status string) {
	c.Generations.WithLabelValues(status).Inc()
}

func (c *Collector) ObserveLayout(nodes int, duration time.Duration) {
	c.LayoutNodes.Observe(float64(nodes))
	c.LayoutDuration.Observe(duration.Seconds())
}

// StartTimer starts a query timer; only query_duration is timed
func (c *Collector) StartTimer(metric, label string) querybus.Timer {
	return &timer{start: time.Now(), observe: func(d time.Duration) {
		if metric == "query_duration" {
			c.QueryDuration.WithLabelValues(label).Observe(d.Seconds())
		}
	}}
}

func (c *Collector) Increment(metric, label string) {
	c.QueryOps.WithLabelValues(metric, label).Inc()
}

type timer struct {
	start   time.Time
	observe func(time.Duration)
}

func (t *timer) Stop() {
	t.observe(time.Since(t.start))
}
