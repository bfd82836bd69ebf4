// Package service implements the windowed aggregation and alerting engine.
// One instance runs per replica; it consumes its measurement partition plus
// the shared sync stream and owns all telemetry state for the devices that
// hash to it.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"wattgrid/internal/monitoring/models"
	"wattgrid/internal/monitoring/store/devicecache"
	"wattgrid/internal/monitoring/store/hourly"
	"wattgrid/internal/monitoring/store/measurement"
	"wattgrid/internal/platform/bus"
	"wattgrid/pkg/domain"
	dErrors "wattgrid/pkg/domain-errors"
)

// Service is the per-replica aggregation engine.
type Service struct {
	measurements measurement.Store
	hourly       hourly.Store
	cache        devicecache.Store
	publisher    bus.Publisher
	logger       *slog.Logger
	metrics      *Metrics

	// Dedup and rollup are read-then-write sequences, so deliveries for
	// the same device must not interleave within a replica.
	locksMu sync.Mutex
	locks   map[domain.DeviceID]*sync.Mutex
}

// New wires the aggregation engine.
func New(measurements measurement.Store, hourlyStore hourly.Store, cache devicecache.Store, publisher bus.Publisher, logger *slog.Logger) *Service {
	return &Service{
		measurements: measurements,
		hourly:       hourlyStore,
		cache:        cache,
		publisher:    publisher,
		logger:       logger,
		metrics:      newMetrics(),
		locks:        make(map[domain.DeviceID]*sync.Mutex),
	}
}

// lockDevice serializes processing per device and returns the unlock func.
func (s *Service) lockDevice(deviceID domain.DeviceID) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[deviceID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[deviceID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// Consumption returns the hourly series for a device on a given UTC day.
func (s *Service) Consumption(ctx context.Context, deviceID domain.DeviceID, day time.Time) ([]*models.HourlyConsumption, error) {
	rows, err := s.hourly.ListForDay(ctx, deviceID, day)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list hourly consumption")
	}
	return rows, nil
}
