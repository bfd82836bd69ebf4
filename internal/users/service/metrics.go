package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks provisioning outcomes in the user registry.
type Metrics struct {
	profilesCreated  prometheus.Counter
	profilesRejected prometheus.Counter
	profilesDeleted  prometheus.Counter
}

var defaultMetrics *Metrics

// newMetrics registers the registry metrics once; repeated service
// construction in tests reuses the same collectors.
func newMetrics() *Metrics {
	if defaultMetrics != nil {
		return defaultMetrics
	}
	defaultMetrics = &Metrics{
		profilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_users_profiles_created_total",
			Help: "Profiles created from USER_CREATED events",
		}),
		profilesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_users_profiles_rejected_total",
			Help: "USER_CREATED events rejected (USER_CREATE_FAILED published)",
		}),
		profilesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_users_profiles_deleted_total",
			Help: "Profiles deleted (deletion saga started)",
		}),
	}
	return defaultMetrics
}
