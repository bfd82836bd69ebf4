package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/memory"
	"wattgrid/internal/platform/logger"
	"wattgrid/internal/users/models"
	"wattgrid/internal/users/store/profile"
	"wattgrid/pkg/domain"
	dErrors "wattgrid/pkg/domain-errors"
	"wattgrid/pkg/events"
)

type ServiceSuite struct {
	suite.Suite
	store *profile.InMemoryStore
	mbus  *memory.Bus
	svc   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.store = profile.NewMemory()
	s.mbus = memory.New()
	s.svc = New(s.store, s.mbus, logger.New("users-test"))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) seed(username string) *models.UserProfile {
	p := &models.UserProfile{
		ID:            domain.NewUserID(),
		CredentialsID: domain.NewCredentialID(),
		Username:      username,
		Email:         username + "@example.com",
		FullName:      "Test User",
		Role:          "CLIENT",
		CreatedAt:     time.Now().UTC(),
	}
	s.Require().NoError(s.store.CreateIfUsernameAvailable(context.Background(), p))
	return p
}

func (s *ServiceSuite) TestGetAndList() {
	ctx := context.Background()
	alice := s.seed("alice")
	s.seed("bob")

	got, err := s.svc.Get(ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal("alice", got.Username)

	all, err := s.svc.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	_, err = s.svc.Get(ctx, domain.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdate() {
	ctx := context.Background()
	alice := s.seed("alice")

	updated, err := s.svc.Update(ctx, alice.ID, UpdateRequest{
		Email:    "alice@corp.example.com",
		FullName: "Alice Andrews",
	})
	s.Require().NoError(err)
	s.Equal("alice@corp.example.com", updated.Email)
	s.Equal("alice", updated.Username, "username is fixed at provisioning time")

	_, err = s.svc.Update(ctx, domain.NewUserID(), UpdateRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDeleteStartsDeletionSaga() {
	ctx := context.Background()
	alice := s.seed("alice")

	s.Require().NoError(s.svc.Delete(ctx, alice.ID))

	_, err := s.svc.Get(ctx, alice.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	published := s.mbus.Published(bus.TopicSync)
	s.Require().Len(published, 1)
	ev, err := events.DecodeSync(published[0].Value)
	s.Require().NoError(err)
	s.Equal(events.UserDeleted, ev.EventType)
	s.Equal(alice.ID.String(), ev.UserID)

	s.Run("deleting again is not found", func() {
		err := s.svc.Delete(ctx, alice.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
