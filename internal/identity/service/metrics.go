package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks saga outcomes in the identity domain.
type Metrics struct {
	registrationsStarted   prometheus.Counter
	registrationsActivated prometheus.Counter
	registrationsFailed    prometheus.Counter
	credentialsDeleted     prometheus.Counter
}

var defaultMetrics *Metrics

// newMetrics registers the identity metrics once; repeated service
// construction in tests reuses the same collectors.
func newMetrics() *Metrics {
	if defaultMetrics != nil {
		return defaultMetrics
	}
	defaultMetrics = &Metrics{
		registrationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_identity_registrations_started_total",
			Help: "Provisioning sagas started (USER_CREATED published)",
		}),
		registrationsActivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_identity_registrations_activated_total",
			Help: "Credentials activated by USER_ID_ASSIGNED",
		}),
		registrationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_identity_registrations_failed_total",
			Help: "Provisioning sagas that failed or were compensated",
		}),
		credentialsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wattgrid_identity_credentials_deleted_total",
			Help: "Credentials removed by the deletion saga",
		}),
	}
	return defaultMetrics
}
