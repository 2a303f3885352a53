package board

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/activityboard/metrics"
)

const (
	metricFetches          = "board_fetches_total"
	metricStaleFetches     = "board_stale_fetches_total"
	metricSignups          = "board_signups_total"
	metricUnregisters      = "board_unregisters_total"
	metricDiscardedPatches = "board_discarded_patches_total"
	metricSnapshotVersion  = "board_snapshot_version"
	metricActivities       = "board_activities"
)

// Outcome label values.
const (
	outcomeOK        = "ok"
	outcomeInvalid   = "invalid"
	outcomeCancelled = "cancelled"
	outcomeAPIError  = "api_error"
	outcomeTransport = "transport_error"
)

type boardMetrics struct {
	fetches          metrics.CounterVec
	staleFetches     metrics.Counter
	signups          metrics.CounterVec
	unregisters      metrics.CounterVec
	discardedPatches metrics.Counter
	snapshotVersion  metrics.Gauge
	activities       metrics.Gauge
}

func newBoardMetrics(reg metrics.Registry) (*boardMetrics, error) {
	m := &boardMetrics{}
	var err error

	m.fetches, err = reg.NewCounterVec(prometheus.CounterOpts{
		Name: metricFetches,
		Help: "Count of directory fetches by outcome",
	}, []string{"outcome"})
	if err != nil {
		return nil, fmt.Errorf("creating %s metric: %w", metricFetches, err)
	}

	m.staleFetches, err = reg.NewCounter(prometheus.CounterOpts{
		Name: metricStaleFetches,
		Help: "Count of fetch results discarded because a newer fetch was issued",
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s metric: %w", metricStaleFetches, err)
	}

	m.signups, err = reg.NewCounterVec(prometheus.CounterOpts{
		Name: metricSignups,
		Help: "Count of signup attempts by outcome",
	}, []string{"outcome"})
	if err != nil {
		return nil, fmt.Errorf("creating %s metric: %w", metricSignups, err)
	}

	m.unregisters, err = reg.NewCounterVec(prometheus.CounterOpts{
		Name: metricUnregisters,
		Help: "Count of unregister attempts by outcome",
	}, []string{"outcome"})
	if err != nil {
		return nil, fmt.Errorf("creating %s metric: %w", metricUnregisters, err)
	}

	m.discardedPatches, err = reg.NewCounter(prometheus.CounterOpts{
		Name: metricDiscardedPatches,
		Help: "Count of optimistic patches superseded by a committed fetch",
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s metric: %w", metricDiscardedPatches, err)
	}

	m.snapshotVersion, err = reg.NewGauge(prometheus.GaugeOpts{
		Name: metricSnapshotVersion,
		Help: "Version of the committed directory snapshot",
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s metric: %w", metricSnapshotVersion, err)
	}

	m.activities, err = reg.NewGauge(prometheus.GaugeOpts{
		Name: metricActivities,
		Help: "Number of activities in the committed snapshot",
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s metric: %w", metricActivities, err)
	}

	return m, nil
}

func outcomeLabels(outcome string) prometheus.Labels {
	return prometheus.Labels{"outcome": outcome}
}
