// Package metrics records the activity board's outcome counters and snapshot
// gauges behind a small Registry, so the board controller does not care how
// the numbers leave the process.
//
// The board server builds a ScrapeRegistry and serves fetch, signup and
// unregister outcomes, stale fetches, discarded optimistic patches, the
// snapshot version and the activity count on /metrics. The one-shot CLI has
// nothing to scrape it, so it builds a PushRegistry instead and sends the same
// series to a Prometheus remote write endpoint once the command has finished.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gauge holds a value that is replaced on every update, such as the committed
// snapshot version.
type Gauge interface {
	Set(float64)
}

// Counter only goes up. Add panics on a negative delta.
type Counter interface {
	Inc()
	Add(float64)
}

// GaugeVec is a Gauge partitioned by label values.
type GaugeVec interface {
	With(prometheus.Labels) Gauge
}

// CounterVec is a Counter partitioned by label values, for example a signup
// counter split by outcome.
type CounterVec interface {
	With(prometheus.Labels) Counter
}

// Registry creates board metrics. A ScrapeRegistry rejects a name registered
// twice; a PushRegistry hands back the existing series.
type Registry interface {
	NewGauge(opts prometheus.GaugeOpts) (Gauge, error)
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounter(opts prometheus.CounterOpts) (Counter, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}
