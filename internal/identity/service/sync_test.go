package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"wattgrid/internal/identity/models"
	"wattgrid/internal/identity/store/credential"
	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/memory"
	"wattgrid/internal/platform/logger"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/events"
	"wattgrid/pkg/platform/sentinel"
)

// activate drives the USER_ID_ASSIGNED leg of the saga through the sync
// handler and returns the assigned user id.
func activate(t *testing.T, svc *Service, credID domain.CredentialID) domain.UserID {
	t.Helper()
	userID := domain.NewUserID()
	payload, err := events.NewUserIDAssigned(credID, userID, "").Encode()
	require.NoError(t, err)
	require.NoError(t, svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: payload}))
	return userID
}

type SyncSuite struct {
	suite.Suite
	store *credential.InMemoryStore
	svc   *Service
}

func (s *SyncSuite) SetupTest() {
	s.store = credential.NewMemory()
	s.svc = New(s.store, memory.New(), logger.New("identity-test"), "test-signing-key", time.Hour)
}

func TestSyncSuite(t *testing.T) {
	suite.Run(t, new(SyncSuite))
}

func (s *SyncSuite) deliver(ev events.Sync) error {
	payload, err := ev.Encode()
	s.Require().NoError(err)
	return s.svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: payload})
}

func (s *SyncSuite) pending(username string) domain.CredentialID {
	credID, err := s.svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Password: "hunter22",
		Role:     models.RoleClient,
	})
	s.Require().NoError(err)
	return credID
}

func (s *SyncSuite) TestUserIDAssignedActivatesCredential() {
	credID := s.pending("alice")
	userID := activate(s.T(), s.svc, credID)

	cred, err := s.store.FindByID(context.Background(), credID)
	s.Require().NoError(err)
	s.True(cred.Active())
	s.Equal(userID, cred.UserID)

	s.Run("redelivery is a no-op", func() {
		s.Require().NoError(s.deliver(events.NewUserIDAssigned(credID, userID, "")))
		cred, err := s.store.FindByID(context.Background(), credID)
		s.Require().NoError(err)
		s.Equal(userID, cred.UserID)
	})
}

func (s *SyncSuite) TestUserIDAssignedForUnknownCredentialIsAcked() {
	err := s.deliver(events.NewUserIDAssigned(domain.NewCredentialID(), domain.NewUserID(), ""))
	s.NoError(err, "a stale assignment cannot succeed on redelivery either")
}

func (s *SyncSuite) TestUserCreateFailedRollsBackCredential() {
	credID := s.pending("bob")

	ev := events.NewUserCreateFailed(credID, domain.UserID{}, "duplicate username")
	s.Require().NoError(s.deliver(ev))

	_, err := s.store.FindByID(context.Background(), credID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Run("redelivery after compensation is acked", func() {
		s.NoError(s.deliver(ev))
	})
}

func (s *SyncSuite) TestUserCreateFailedWithoutCredentialIsIgnored() {
	credID := s.pending("carol")

	// A cache rollback raised downstream names only the user; identity has
	// nothing to compensate.
	err := s.deliver(events.Sync{EventType: events.UserCreateFailed, UserID: domain.NewUserID().String()})
	s.Require().NoError(err)

	_, err = s.store.FindByID(context.Background(), credID)
	s.NoError(err, "unrelated failure must not touch other credentials")
}

func (s *SyncSuite) TestUserDeletedRemovesCredential() {
	credID := s.pending("dave")
	userID := activate(s.T(), s.svc, credID)

	ev := events.Sync{EventType: events.UserDeleted, UserID: userID.String()}
	s.Require().NoError(s.deliver(ev))

	_, err := s.store.FindByID(context.Background(), credID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Run("redelivery is acked", func() {
		s.NoError(s.deliver(ev))
	})
}

func (s *SyncSuite) TestIgnoredEvents() {
	s.Run("own USER_CREATED echo", func() {
		s.NoError(s.deliver(events.Sync{EventType: events.UserCreated, CredentialsID: domain.NewCredentialID().String()}))
	})

	s.Run("foreign event kind", func() {
		s.NoError(s.deliver(events.Sync{EventType: events.DeviceCreated, DeviceID: domain.NewDeviceID().String()}))
	})

	s.Run("malformed payload", func() {
		err := s.svc.HandleSync(context.Background(), &bus.Message{Topic: bus.TopicSync, Value: []byte("{not json")})
		s.NoError(err, "malformed payloads are dropped, not redelivered")
	})
}
