package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/busmock"
	"wattgrid/internal/platform/bus/memory"
	"wattgrid/internal/platform/logger"
	"wattgrid/internal/users/store/profile"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/events"
)

type SyncSuite struct {
	suite.Suite
	store *profile.InMemoryStore
	mbus  *memory.Bus
	svc   *Service
}

func (s *SyncSuite) SetupTest() {
	s.store = profile.NewMemory()
	s.mbus = memory.New()
	s.svc = New(s.store, s.mbus, logger.New("users-test"))
}

func TestSyncSuite(t *testing.T) {
	suite.Run(t, new(SyncSuite))
}

func (s *SyncSuite) deliver(ev events.Sync) error {
	payload, err := ev.Encode()
	s.Require().NoError(err)
	return s.svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: payload})
}

func (s *SyncSuite) userCreated(credID domain.CredentialID, username string) events.Sync {
	return events.NewUserCreated(credID, username, "$2a$10$hash", username+"@example.com", "Test User", "CLIENT")
}

func (s *SyncSuite) lastSyncEvent() events.Sync {
	published := s.mbus.Published(bus.TopicSync)
	s.Require().NotEmpty(published)
	ev, err := events.DecodeSync(published[len(published)-1].Value)
	s.Require().NoError(err)
	return ev
}

func (s *SyncSuite) TestUserCreatedProvisionsProfile() {
	credID := domain.NewCredentialID()
	s.Require().NoError(s.deliver(s.userCreated(credID, "alice")))

	reply := s.lastSyncEvent()
	s.Equal(events.UserIDAssigned, reply.EventType)
	s.Equal(credID.String(), reply.CredentialsID)
	s.Equal("alice", reply.Username)

	userID, err := domain.ParseUserID(reply.UserID)
	s.Require().NoError(err)

	p, err := s.store.FindByID(context.Background(), userID)
	s.Require().NoError(err)
	s.Equal("alice", p.Username)
	s.Equal(credID, p.CredentialsID)
	s.Equal("CLIENT", p.Role)
}

func (s *SyncSuite) TestDuplicateUsernameRepliesFailed() {
	s.Require().NoError(s.deliver(s.userCreated(domain.NewCredentialID(), "alice")))

	credID := domain.NewCredentialID()
	s.Require().NoError(s.deliver(s.userCreated(credID, "alice")))

	reply := s.lastSyncEvent()
	s.Equal(events.UserCreateFailed, reply.EventType)
	s.Equal(credID.String(), reply.CredentialsID)
	s.NotEmpty(reply.ErrorMessage)

	profiles, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Len(profiles, 1, "the duplicate must not create a second profile")
}

func (s *SyncSuite) TestRedeliveryRepublishesAssignment() {
	credID := domain.NewCredentialID()
	ev := s.userCreated(credID, "bob")

	s.Require().NoError(s.deliver(ev))
	first := s.lastSyncEvent()

	s.Require().NoError(s.deliver(ev))
	second := s.lastSyncEvent()

	s.Equal(events.UserIDAssigned, second.EventType)
	s.Equal(first.UserID, second.UserID, "redelivery must reuse the assigned user id")

	profiles, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Len(profiles, 1)
}

func (s *SyncSuite) TestReplyPublishFailureTriggersRedelivery() {
	ctrl := gomock.NewController(s.T())
	pub := busmock.NewMockPublisher(ctrl)
	pub.EXPECT().
		Publish(gomock.Any(), bus.TopicSync, gomock.Any(), gomock.Any()).
		Return(errors.New("broker down"))

	svc := New(s.store, pub, logger.New("users-test"))

	credID := domain.NewCredentialID()
	payload, err := s.userCreated(credID, "carol").Encode()
	s.Require().NoError(err)

	err = svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: payload})
	s.Require().Error(err, "lost reply must leave the event uncommitted")

	// The profile exists; the next delivery takes the redelivery fast path.
	_, err = s.store.FindByCredentialsID(context.Background(), credID)
	s.NoError(err)
}

func (s *SyncSuite) TestIgnoredEvents() {
	s.Run("own reply echoes", func() {
		s.NoError(s.deliver(events.Sync{EventType: events.UserIDAssigned}))
		s.NoError(s.deliver(events.Sync{EventType: events.UserCreateFailed}))
		s.NoError(s.deliver(events.Sync{EventType: events.UserDeleted}))
	})

	s.Run("foreign event kind", func() {
		s.NoError(s.deliver(events.NewDeviceDeleted(domain.NewDeviceID())))
	})

	s.Run("malformed payload", func() {
		err := s.svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: []byte("nope")})
		s.NoError(err)
	})

	s.Run("missing credentialsId", func() {
		s.NoError(s.deliver(events.Sync{EventType: events.UserCreated, Username: "dave"}))
	})
}
