package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	remoteWritePath = "/api/v1/write"
)

// PushConfig configures a PushRegistry.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint (e.g., "http://localhost:8428").
	URL string
	// Prefix is the metric name prefix. All metric names will be prefixed with this value
	// followed by an underscore.
	Prefix string
	// Job is the job label for all metrics.
	Job string
	// Instance is the instance label for all metrics.
	Instance string
	// Timeout is the HTTP client timeout. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// PushRegistry implements Registry for short-lived processes such as the CLI.
// Metrics accumulate in memory and are sent to a VictoriaMetrics/Prometheus
// remote write endpoint in a single request by Push.
type PushRegistry struct {
	url        string
	httpClient *http.Client
	prefix     string
	job        string
	instance   string

	mu     sync.Mutex
	series map[string]*series
	keys   []string
}

// series is one named, labelled value.
type series struct {
	name   string
	labels map[string]string
	value  float64
}

// NewPushRegistry creates a new PushRegistry that pushes metrics to the given URL.
func NewPushRegistry(cfg PushConfig) *PushRegistry {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &PushRegistry{
		url:        strings.TrimRight(cfg.URL, "/") + remoteWritePath,
		httpClient: &http.Client{Timeout: timeout},
		prefix:     cfg.Prefix,
		job:        cfg.Job,
		instance:   cfg.Instance,
		series:     make(map[string]*series),
	}
}

// NewGauge creates a new push-based Gauge.
func (r *PushRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	return &pushGauge{registry: r, key: r.register(opts.Name, nil)}, nil
}

// NewGaugeVec creates a new push-based GaugeVec.
func (r *PushRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	return &pushGaugeVec{registry: r, name: opts.Name, labels: labels}, nil
}

// NewCounter creates a new push-based Counter.
func (r *PushRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	return &pushCounter{registry: r, key: r.register(opts.Name, nil)}, nil
}

// NewCounterVec creates a new push-based CounterVec.
func (r *PushRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	return &pushCounterVec{registry: r, name: opts.Name, labels: labels}, nil
}

// Push sends the current value of every series. Series that were never set
// or incremented are sent with value 0.
func (r *PushRegistry) Push(ctx context.Context) error {
	req := &prompb.WriteRequest{Timeseries: r.timeSeries(time.Now())}
	if len(req.Timeseries) == 0 {
		return nil
	}

	data, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}

	compressed := snappy.Encode(nil, data)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// register returns the key of the series for name and labels, creating it on
// first use.
func (r *PushRegistry) register(name string, labels map[string]string) string {
	key := seriesKey(name, labels)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.series[key]; !ok {
		copied := make(map[string]string, len(labels))
		for k, v := range labels {
			copied[k] = v
		}
		r.series[key] = &series{name: name, labels: copied}
		r.keys = append(r.keys, key)
	}
	return key
}

func (r *PushRegistry) set(key string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series[key].value = v
}

func (r *PushRegistry) add(key string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series[key].value += v
}

// timeSeries converts every series to remote write format, in registration
// order, with label names sorted as the protocol requires.
func (r *PushRegistry) timeSeries(now time.Time) []prompb.TimeSeries {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]prompb.TimeSeries, 0, len(r.keys))
	for _, key := range r.keys {
		s := r.series[key]

		metricName := s.name
		if r.prefix != "" {
			metricName = r.prefix + "_" + s.name
		}

		labels := map[string]string{"__name__": metricName}
		if r.job != "" {
			labels["job"] = r.job
		}
		if r.instance != "" {
			labels["instance"] = r.instance
		}
		for k, v := range s.labels {
			labels[k] = v
		}

		names := make([]string, 0, len(labels))
		for k := range labels {
			names = append(names, k)
		}
		sort.Strings(names)

		promLabels := make([]prompb.Label, 0, len(names))
		for _, n := range names {
			promLabels = append(promLabels, prompb.Label{Name: n, Value: labels[n]})
		}

		result = append(result, prompb.TimeSeries{
			Labels:  promLabels,
			Samples: []prompb.Sample{{Value: s.value, Timestamp: now.UnixMilli()}},
		})
	}
	return result
}

// seriesKey creates a stable key from a metric name and its labels.
func seriesKey(name string, labels map[string]string) string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range names {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	return b.String()
}

// pushGauge implements Gauge for push mode.
type pushGauge struct {
	registry *PushRegistry
	key      string
}

func (g *pushGauge) Set(v float64) {
	g.registry.set(g.key, v)
}

// pushGaugeVec implements GaugeVec for push mode.
type pushGaugeVec struct {
	registry *PushRegistry
	name     string
	labels   []string
}

func (g *pushGaugeVec) With(labels prometheus.Labels) Gauge {
	return &pushGauge{registry: g.registry, key: g.registry.register(g.name, labels)}
}

// pushCounter implements Counter for push mode.
type pushCounter struct {
	registry *PushRegistry
	key      string
}

func (c *pushCounter) Inc() {
	c.Add(1)
}

func (c *pushCounter) Add(v float64) {
	if v < 0 {
		panic("counter cannot decrease in value")
	}
	c.registry.add(c.key, v)
}

// pushCounterVec implements CounterVec for push mode.
type pushCounterVec struct {
	registry *PushRegistry
	name     string
	labels   []string
}

func (c *pushCounterVec) With(labels prometheus.Labels) Counter {
	return &pushCounter{registry: c.registry, key: c.registry.register(c.name, labels)}
}
