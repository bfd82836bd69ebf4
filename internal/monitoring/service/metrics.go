package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the aggregation engine's per-replica throughput and
// alerting outcomes.
type Metrics struct {
	samplesStored    prometheus.Counter
	duplicateSamples prometheus.Counter
	unknownDevices   prometheus.Counter
	windowsClosed    prometheus.Counter
	alertsEmitted    prometheus.Counter
	alertsSuppressed prometheus.Counter
}

var defaultMetrics *Metrics

// newMetrics registers the engine metrics once; repeated service
// construction in tests reuses the same collectors.
func newMetrics() *Metrics {
	if defaultMetrics != nil {
		return defaultMetrics
	}
	defaultMetrics = &Metrics{
		samplesStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_monitoring_samples_stored_total",
			Help: "Sensor measurements persisted",
		}),
		duplicateSamples: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_monitoring_samples_duplicate_total",
			Help: "Redelivered measurements dropped by the dedup check",
		}),
		unknownDevices: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_monitoring_samples_unknown_device_total",
			Help: "Measurements dropped because the device is not cached",
		}),
		windowsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_monitoring_windows_closed_total",
			Help: "Hourly windows rolled up",
		}),
		alertsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_monitoring_alerts_emitted_total",
			Help: "Overconsumption alerts published",
		}),
		alertsSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_monitoring_alerts_suppressed_total",
			Help: "Overconsumption alerts suppressed for unassigned devices",
		}),
	}
	return defaultMetrics
}
