package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"wattgrid/internal/devices/store/assignment"
	"wattgrid/internal/devices/store/device"
	"wattgrid/internal/devices/store/usercache"
	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/memory"
	"wattgrid/internal/platform/logger"
	"wattgrid/pkg/domain"
	dErrors "wattgrid/pkg/domain-errors"
	"wattgrid/pkg/events"
	"wattgrid/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	devices     *device.InMemoryStore
	assignments *assignment.InMemoryStore
	users       *usercache.InMemoryStore
	mbus        *memory.Bus
	svc         *Service
}

func (s *ServiceSuite) SetupTest() {
	s.devices = device.NewMemory()
	s.assignments = assignment.NewMemory()
	s.users = usercache.NewMemory()
	s.mbus = memory.New()
	s.svc = New(s.devices, s.assignments, s.users, s.mbus, logger.New("devices-test"))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) lastSyncEvent() events.Sync {
	published := s.mbus.Published(bus.TopicSync)
	s.Require().NotEmpty(published)
	ev, err := events.DecodeSync(published[len(published)-1].Value)
	s.Require().NoError(err)
	return ev
}

func (s *ServiceSuite) knownUser() domain.UserID {
	userID := domain.NewUserID()
	s.Require().NoError(s.users.Put(context.Background(), userID))
	return userID
}

func (s *ServiceSuite) TestCreatePublishesLifecycleEvent() {
	d, err := s.svc.Create(context.Background(), CreateRequest{
		Name:           "smart meter 7",
		Description:    "basement",
		MaxConsumption: 10.0,
	})
	s.Require().NoError(err)

	ev := s.lastSyncEvent()
	s.Equal(events.DeviceCreated, ev.EventType)
	s.Equal(d.ID.String(), ev.DeviceID)
	s.Equal("smart meter 7", ev.DeviceName)
	s.InDelta(10.0, ev.MaxConsumption, 1e-9)
}

func (s *ServiceSuite) TestCreateValidation() {
	ctx := context.Background()

	_, err := s.svc.Create(ctx, CreateRequest{Name: "", MaxConsumption: 5})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.svc.Create(ctx, CreateRequest{Name: "meter", MaxConsumption: 0})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	s.Empty(s.mbus.Published(bus.TopicSync))
}

func (s *ServiceSuite) TestUpdateRepublishesDeviceCreated() {
	ctx := context.Background()
	d, err := s.svc.Create(ctx, CreateRequest{Name: "meter", MaxConsumption: 10})
	s.Require().NoError(err)

	updated, err := s.svc.Update(ctx, d.ID, UpdateRequest{Name: "meter", MaxConsumption: 20})
	s.Require().NoError(err)
	s.InDelta(20.0, updated.MaxConsumption, 1e-9)

	ev := s.lastSyncEvent()
	s.Equal(events.DeviceCreated, ev.EventType, "updates ride the same event so caches refresh thresholds")
	s.InDelta(20.0, ev.MaxConsumption, 1e-9)
}

func (s *ServiceSuite) TestAssignReplacesOwner() {
	ctx := context.Background()
	d, err := s.svc.Create(ctx, CreateRequest{Name: "meter", MaxConsumption: 10})
	s.Require().NoError(err)

	first := s.knownUser()
	second := s.knownUser()

	s.Require().NoError(s.svc.Assign(ctx, d.ID, first))
	s.Require().NoError(s.svc.Assign(ctx, d.ID, second))

	a, err := s.assignments.FindByDeviceID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(second, a.UserID, "last writer wins")

	ev := s.lastSyncEvent()
	s.Equal(events.DeviceAssigned, ev.EventType)
	s.Equal(second.String(), ev.UserID)
}

func (s *ServiceSuite) TestAssignRequiresKnownDeviceAndUser() {
	ctx := context.Background()
	d, err := s.svc.Create(ctx, CreateRequest{Name: "meter", MaxConsumption: 10})
	s.Require().NoError(err)

	s.Run("unknown device", func() {
		err := s.svc.Assign(ctx, domain.NewDeviceID(), s.knownUser())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("user absent from cache projection", func() {
		err := s.svc.Assign(ctx, d.ID, domain.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestUnassign() {
	ctx := context.Background()
	d, err := s.svc.Create(ctx, CreateRequest{Name: "meter", MaxConsumption: 10})
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Assign(ctx, d.ID, s.knownUser()))

	s.Require().NoError(s.svc.Unassign(ctx, d.ID))

	_, err = s.assignments.FindByDeviceID(ctx, d.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Equal(events.DeviceUnassigned, s.lastSyncEvent().EventType)

	s.Run("unassigning an unassigned device succeeds", func() {
		s.NoError(s.svc.Unassign(ctx, d.ID))
	})

	s.Run("unknown device", func() {
		err := s.svc.Unassign(ctx, domain.NewDeviceID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDeleteCascades() {
	ctx := context.Background()
	d, err := s.svc.Create(ctx, CreateRequest{Name: "meter", MaxConsumption: 10})
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Assign(ctx, d.ID, s.knownUser()))

	s.Require().NoError(s.svc.Delete(ctx, d.ID))

	_, err = s.svc.Get(ctx, d.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.assignments.FindByDeviceID(ctx, d.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	ev := s.lastSyncEvent()
	s.Equal(events.DeviceDeleted, ev.EventType)
	s.Equal(d.ID.String(), ev.DeviceID)

	s.Run("deleting again is not found", func() {
		err := s.svc.Delete(ctx, d.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListByUser() {
	ctx := context.Background()
	userID := s.knownUser()

	d1, err := s.svc.Create(ctx, CreateRequest{Name: "meter a", MaxConsumption: 10})
	s.Require().NoError(err)
	d2, err := s.svc.Create(ctx, CreateRequest{Name: "meter b", MaxConsumption: 10})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Assign(ctx, d1.ID, userID))
	s.Require().NoError(s.svc.Assign(ctx, d2.ID, userID))

	devices, err := s.svc.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Len(devices, 2)
}
