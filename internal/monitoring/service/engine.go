package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wattgrid/internal/monitoring/models"
	"wattgrid/internal/platform/bus"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/events"
	"wattgrid/pkg/platform/sentinel"
)

// HandleMeasurement processes one sample from the replica's partition:
// validate against the device cache, dedup, persist, and close the previous
// hour's window when the sample sits on an hour boundary. Unparseable and
// unknown-device samples are dropped with a log; store and publish errors
// propagate so the partition redelivers.
func (s *Service) HandleMeasurement(ctx context.Context, msg *bus.Message) error {
	m, err := events.DecodeMeasurement(msg.Value)
	if err != nil {
		s.logger.Error("dropping malformed measurement", "error", err)
		return nil
	}
	deviceID, err := domain.ParseDeviceID(m.DeviceID)
	if err != nil {
		s.logger.Error("dropping measurement with invalid deviceId", "device_id", m.DeviceID, "error", err)
		return nil
	}

	unlock := s.lockDevice(deviceID)
	defer unlock()

	entry, err := s.cache.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.unknownDevices.Inc()
			s.logger.Warn("dropping measurement for unknown device", "device_id", deviceID)
			return nil
		}
		return err
	}

	ts := m.Timestamp.UTC()
	duplicate, err := s.measurements.Exists(ctx, deviceID, ts)
	if err != nil {
		return err
	}
	if duplicate {
		s.metrics.duplicateSamples.Inc()
		s.logger.Debug("duplicate measurement", "device_id", deviceID, "timestamp", ts)
	} else {
		sample := &models.SensorMeasurement{
			ID:        domain.NewMeasurementID(),
			DeviceID:  deviceID,
			Timestamp: ts,
			Value:     m.MeasurementValue,
		}
		if err := s.measurements.Insert(ctx, sample); err != nil {
			// A concurrent replica restart may have raced the Exists check.
			if !errors.Is(err, sentinel.ErrConflict) {
				return err
			}
			s.metrics.duplicateSamples.Inc()
		} else {
			s.metrics.samplesStored.Inc()
		}
	}

	// The first sample of an hour signals that the previous hour is
	// complete. Redelivered boundary samples re-run the rollup, which is
	// idempotent and re-emits the current state for dashboards.
	if ts.Minute() == 0 && ts.Second() == 0 {
		return s.closeWindow(ctx, entry, ts.Add(-time.Hour).Truncate(time.Hour))
	}
	return nil
}

// closeWindow recomputes the hour's total from stored samples, upserts the
// rollup row, evaluates the threshold, and publishes the dashboard update.
// The window is inclusive of the boundary sample that closed it. Deriving
// the total from raw samples at window close means out-of-order and
// redelivered samples before the boundary cannot corrupt it, and crash
// recovery is a plain replay.
func (s *Service) closeWindow(ctx context.Context, entry *models.DeviceCacheEntry, hour time.Time) error {
	total, count, err := s.measurements.SumForWindow(ctx, entry.DeviceID, hour, hour.Add(time.Hour))
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	row := &models.HourlyConsumption{
		ID:        uuid.New(),
		DeviceID:  entry.DeviceID,
		Hour:      hour,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.hourly.Upsert(ctx, row); err != nil {
		return err
	}
	s.metrics.windowsClosed.Inc()
	s.logger.Info("hourly window closed",
		"device_id", entry.DeviceID, "hour", hour, "total", total, "samples", count)

	if entry.MaxConsumption > 0 && total > entry.MaxConsumption {
		if err := s.publishAlert(ctx, entry, hour, total); err != nil {
			return err
		}
	}

	// Dashboards always get the fresh aggregate, alert or not.
	push := events.NewMeasurementPush(entry.DeviceID.String(), map[string]any{
		"deviceId":         entry.DeviceID.String(),
		"hour":             hour.Format(time.RFC3339),
		"totalConsumption": total,
	})
	return s.publishPush(ctx, events.RouteMeasurement, push)
}

func (s *Service) publishAlert(ctx context.Context, entry *models.DeviceCacheEntry, hour time.Time, total float64) error {
	if entry.UserID == nil {
		s.metrics.alertsSuppressed.Inc()
		s.logger.Warn("overconsumption with no assigned user, alert suppressed",
			"device_id", entry.DeviceID, "total", total, "max_consumption", entry.MaxConsumption)
		return nil
	}

	push := events.NewAlertPush(entry.UserID.String(), entry.DeviceID.String(), map[string]any{
		"deviceId":       entry.DeviceID.String(),
		"deviceName":     entry.Name,
		"currentValue":   total,
		"maxConsumption": entry.MaxConsumption,
		"hour":           hour.Format(time.RFC3339),
		"message": fmt.Sprintf("device %q consumed %.2f kWh in an hour, above the %.2f kWh limit",
			entry.Name, total, entry.MaxConsumption),
	})
	if err := s.publishPush(ctx, events.RouteAlert, push); err != nil {
		return err
	}
	s.metrics.alertsEmitted.Inc()
	s.logger.Info("overconsumption alert published",
		"device_id", entry.DeviceID, "user_id", entry.UserID, "total", total)
	return nil
}

func (s *Service) publishPush(ctx context.Context, route string, push events.Push) error {
	payload, err := push.Encode()
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, bus.TopicPush, []byte(route), payload)
}
