package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nomis52/activityboard/buildinfo"
)

const metricBuildInfo = "activityboard_build_info"

// ScrapeRegistry implements Registry for scrape-based metrics collection.
// Metrics are registered with a Prometheus registry and exposed via HTTP.
type ScrapeRegistry struct {
	prom *prometheus.Registry
}

// NewScrapeRegistry creates a new ScrapeRegistry with the Go runtime, process
// and build info collectors registered.
func NewScrapeRegistry() (*ScrapeRegistry, error) {
	reg := prometheus.NewRegistry()

	props := buildinfo.Get()
	build := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: metricBuildInfo,
		Help: "Build properties of the running binary, always 1",
	}, []string{"git_commit", "build_time"})
	build.With(prometheus.Labels{"git_commit": props.GitCommit, "build_time": props.BuildTime}).Set(1)

	for name, c := range map[string]prometheus.Collector{
		"go":        collectors.NewGoCollector(),
		"process":   collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		"buildinfo": build,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering %s collector: %w", name, err)
		}
	}

	return &ScrapeRegistry{prom: reg}, nil
}

// Handler returns an http.Handler for the /metrics endpoint.
func (r *ScrapeRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Gatherer exposes the registry for tests and custom handlers.
func (r *ScrapeRegistry) Gatherer() prometheus.Gatherer {
	return r.prom
}

// NewGauge creates and registers a new Gauge.
func (r *ScrapeRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	g, err := register(r, "gauge", opts.Name, prometheus.NewGauge(opts))
	if err != nil {
		return nil, err
	}
	return g, nil
}

// NewGaugeVec creates and registers a new GaugeVec.
func (r *ScrapeRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	g, err := register(r, "gauge vec", opts.Name, prometheus.NewGaugeVec(opts, labels))
	if err != nil {
		return nil, err
	}
	return scrapeGaugeVec{g}, nil
}

// NewCounter creates and registers a new Counter.
func (r *ScrapeRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	c, err := register(r, "counter", opts.Name, prometheus.NewCounter(opts))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewCounterVec creates and registers a new CounterVec.
func (r *ScrapeRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	c, err := register(r, "counter vec", opts.Name, prometheus.NewCounterVec(opts, labels))
	if err != nil {
		return nil, err
	}
	return scrapeCounterVec{c}, nil
}

func register[C prometheus.Collector](r *ScrapeRegistry, kind, name string, c C) (C, error) {
	if err := r.prom.Register(c); err != nil {
		var zero C
		return zero, fmt.Errorf("registering %s %q: %w", kind, name, err)
	}
	return c, nil
}

// scrapeGaugeVec adapts *prometheus.GaugeVec, whose With returns the wider
// prometheus.Gauge.
type scrapeGaugeVec struct {
	*prometheus.GaugeVec
}

func (g scrapeGaugeVec) With(labels prometheus.Labels) Gauge {
	return g.GaugeVec.With(labels)
}

// scrapeCounterVec adapts *prometheus.CounterVec in the same way.
type scrapeCounterVec struct {
	*prometheus.CounterVec
}

func (c scrapeCounterVec) With(labels prometheus.Labels) Counter {
	return c.CounterVec.With(labels)
}
