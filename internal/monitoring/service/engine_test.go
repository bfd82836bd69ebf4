package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"wattgrid/internal/monitoring/store/devicecache"
	"wattgrid/internal/monitoring/store/hourly"
	"wattgrid/internal/monitoring/store/measurement"
	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/memory"
	"wattgrid/internal/platform/logger"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/events"
)

type EngineSuite struct {
	suite.Suite
	measurements *measurement.InMemoryStore
	hourlyStore  *hourly.InMemoryStore
	cache        *devicecache.InMemoryStore
	mbus         *memory.Bus
	svc          *Service
}

func (s *EngineSuite) SetupTest() {
	s.measurements = measurement.NewMemory()
	s.hourlyStore = hourly.NewMemory()
	s.cache = devicecache.NewMemory()
	s.mbus = memory.New()
	s.svc = New(s.measurements, s.hourlyStore, s.cache, s.mbus, logger.New("monitoring-test"))
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// cacheDevice seeds the projection the way the sync stream would.
func (s *EngineSuite) cacheDevice(maxConsumption float64, userID *domain.UserID) domain.DeviceID {
	deviceID := domain.NewDeviceID()
	ev := events.NewDeviceCreated(deviceID, "smart meter", maxConsumption)
	payload, err := ev.Encode()
	s.Require().NoError(err)
	s.Require().NoError(s.svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: payload}))
	if userID != nil {
		payload, err = events.NewDeviceAssigned(deviceID, *userID).Encode()
		s.Require().NoError(err)
		s.Require().NoError(s.svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: payload}))
	}
	return deviceID
}

func (s *EngineSuite) deliver(deviceID domain.DeviceID, ts time.Time, value float64) error {
	payload, err := events.Measurement{
		DeviceID:         deviceID.String(),
		Timestamp:        ts,
		MeasurementValue: value,
	}.Encode()
	s.Require().NoError(err)
	return s.svc.HandleMeasurement(context.Background(), &bus.Message{Topic: bus.TopicMeasurements, Value: payload})
}

func (s *EngineSuite) pushes() []events.Push {
	published := s.mbus.Published(bus.TopicPush)
	out := make([]events.Push, 0, len(published))
	for _, msg := range published {
		p, err := events.DecodePush(msg.Value)
		s.Require().NoError(err)
		out = append(out, p)
	}
	return out
}

func at(hour, min, sec int) time.Time {
	return time.Date(2026, time.March, 14, hour, min, sec, 0, time.UTC)
}

func (s *EngineSuite) TestUnknownDeviceDropped() {
	err := s.deliver(domain.NewDeviceID(), at(10, 15, 0), 2.5)
	s.Require().NoError(err, "unknown devices are dropped, not redelivered")

	_, count, err := s.measurements.SumForWindow(context.Background(), domain.NewDeviceID(), at(0, 0, 0), at(23, 0, 0))
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *EngineSuite) TestIdempotentIngestion() {
	deviceID := s.cacheDevice(100, nil)
	ts := at(10, 15, 0)

	s.Require().NoError(s.deliver(deviceID, ts, 2.5))
	s.Require().NoError(s.deliver(deviceID, ts, 2.5))

	total, count, err := s.measurements.SumForWindow(context.Background(), deviceID, at(10, 0, 0), at(11, 0, 0))
	s.Require().NoError(err)
	s.Equal(1, count, "redelivery must not duplicate the sample")
	s.InDelta(2.5, total, 1e-9)
}

func (s *EngineSuite) TestOverconsumptionScenario() {
	// maxConsumption 10.0, five samples of 3.0 across the boundary: one
	// hourly row with 15.0 and one alert addressed to the assigned user.
	userID := domain.NewUserID()
	deviceID := s.cacheDevice(10.0, &userID)

	for _, ts := range []time.Time{at(10, 12, 0), at(10, 24, 0), at(10, 36, 0), at(10, 48, 0), at(11, 0, 0)} {
		s.Require().NoError(s.deliver(deviceID, ts, 3.0))
	}

	rows, err := s.hourlyStore.ListForDay(context.Background(), deviceID, at(0, 0, 0))
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(at(10, 0, 0), rows[0].Hour)
	s.InDelta(15.0, rows[0].Total, 1e-9)

	var alerts, updates []events.Push
	for _, p := range s.pushes() {
		switch p.Type {
		case events.PushAlert:
			alerts = append(alerts, p)
		case events.PushMeasurement:
			updates = append(updates, p)
		}
	}
	s.Require().Len(alerts, 1)
	s.Equal(userID.String(), alerts[0].UserID)
	s.Equal(deviceID.String(), alerts[0].DeviceID)
	s.Require().Len(updates, 1)
	s.Equal(deviceID.String(), updates[0].DeviceID)
	s.InDelta(15.0, updates[0].Data["totalConsumption"].(float64), 1e-9)
}

func (s *EngineSuite) TestAlertSuppressedWithoutAssignment() {
	deviceID := s.cacheDevice(1.0, nil)

	s.Require().NoError(s.deliver(deviceID, at(10, 30, 0), 5.0))
	s.Require().NoError(s.deliver(deviceID, at(11, 0, 0), 5.0))

	for _, p := range s.pushes() {
		s.NotEqual(events.PushAlert, p.Type, "no assigned user means no one to alert")
	}
}

func (s *EngineSuite) TestWindowIdempotence() {
	deviceID := s.cacheDevice(100, nil)

	s.Require().NoError(s.deliver(deviceID, at(10, 30, 0), 4.0))
	boundary := at(11, 0, 0)
	s.Require().NoError(s.deliver(deviceID, boundary, 1.0))

	// The redelivered boundary sample recomputes the same total and
	// re-emits the dashboard update.
	s.Require().NoError(s.deliver(deviceID, boundary, 1.0))

	rows, err := s.hourlyStore.ListForDay(context.Background(), deviceID, at(0, 0, 0))
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.InDelta(5.0, rows[0].Total, 1e-9)

	updates := 0
	for _, p := range s.pushes() {
		if p.Type == events.PushMeasurement {
			updates++
		}
	}
	s.Equal(2, updates)
}

func (s *EngineSuite) TestBoundarySampleCountsTowardClosedHour() {
	deviceID := s.cacheDevice(100, nil)

	s.Require().NoError(s.deliver(deviceID, at(10, 0, 0), 2.0))

	rows, err := s.hourlyStore.ListForDay(context.Background(), deviceID, at(0, 0, 0))
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(at(9, 0, 0), rows[0].Hour)
	s.InDelta(2.0, rows[0].Total, 1e-9, "the closing sample belongs to the window it closes")
}

func (s *EngineSuite) TestDeviceDeletedCascades() {
	deviceID := s.cacheDevice(100, nil)
	s.Require().NoError(s.deliver(deviceID, at(10, 30, 0), 4.0))
	s.Require().NoError(s.deliver(deviceID, at(11, 0, 0), 1.0))

	payload, err := events.NewDeviceDeleted(deviceID).Encode()
	s.Require().NoError(err)
	s.Require().NoError(s.svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: payload}))

	_, count, err := s.measurements.SumForWindow(context.Background(), deviceID, at(0, 0, 0), at(23, 0, 0))
	s.Require().NoError(err)
	s.Zero(count)
	rows, err := s.hourlyStore.ListForDay(context.Background(), deviceID, at(0, 0, 0))
	s.Require().NoError(err)
	s.Empty(rows)

	s.Run("measurements after deletion are dropped", func() {
		s.Require().NoError(s.deliver(deviceID, at(12, 0, 0), 1.0))
		_, count, err := s.measurements.SumForWindow(context.Background(), deviceID, at(0, 0, 0), at(23, 0, 0))
		s.Require().NoError(err)
		s.Zero(count)
	})
}

func (s *EngineSuite) TestThresholdRefreshOnDeviceUpdate() {
	userID := domain.NewUserID()
	deviceID := s.cacheDevice(100, &userID)

	// Update rides DEVICE_CREATED; the assignment must survive it.
	payload, err := events.NewDeviceCreated(deviceID, "smart meter", 1.0).Encode()
	s.Require().NoError(err)
	s.Require().NoError(s.svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: payload}))

	s.Require().NoError(s.deliver(deviceID, at(10, 30, 0), 5.0))
	s.Require().NoError(s.deliver(deviceID, at(11, 0, 0), 5.0))

	var alerts []events.Push
	for _, p := range s.pushes() {
		if p.Type == events.PushAlert {
			alerts = append(alerts, p)
		}
	}
	s.Require().Len(alerts, 1, "lowered threshold must apply")
	s.Equal(userID.String(), alerts[0].UserID)
}
