package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registry operations and projection maintenance.
type Metrics struct {
	devicesCreated    prometheus.Counter
	devicesDeleted    prometheus.Counter
	assignments       prometheus.Counter
	unassignments     prometheus.Counter
	cacheEntriesAdded prometheus.Counter
	cacheEntriesGone  prometheus.Counter
}

var defaultMetrics *Metrics

// newMetrics registers the registry metrics once; repeated service
// construction in tests reuses the same collectors.
func newMetrics() *Metrics {
	if defaultMetrics != nil {
		return defaultMetrics
	}
	defaultMetrics = &Metrics{
		devicesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_devices_created_total",
			Help: "Devices created in the registry",
		}),
		devicesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_devices_deleted_total",
			Help: "Devices deleted from the registry",
		}),
		assignments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_devices_assignments_total",
			Help: "Device-to-user assignments performed",
		}),
		unassignments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_devices_unassignments_total",
			Help: "Device unassignments performed",
		}),
		cacheEntriesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_devices_user_cache_added_total",
			Help: "User-cache entries added from sync events",
		}),
		cacheEntriesGone: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_devices_user_cache_removed_total",
			Help: "User-cache entries removed from sync events",
		}),
	}
	return defaultMetrics
}
