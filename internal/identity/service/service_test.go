package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"wattgrid/internal/identity/models"
	"wattgrid/internal/identity/store/credential"
	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/busmock"
	"wattgrid/internal/platform/bus/memory"
	"wattgrid/internal/platform/logger"
	dErrors "wattgrid/pkg/domain-errors"
	"wattgrid/pkg/events"
	"wattgrid/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	store *credential.InMemoryStore
	mbus  *memory.Bus
	svc   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.store = credential.NewMemory()
	s.mbus = memory.New()
	s.svc = New(s.store, s.mbus, logger.New("identity-test"), "test-signing-key", time.Hour)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) register(username string) RegisterRequest {
	return RegisterRequest{
		Username: username,
		Password: "hunter22",
		Email:    username + "@example.com",
		FullName: "Test User",
		Role:     models.RoleClient,
	}
}

func (s *ServiceSuite) TestRegisterStartsSaga() {
	ctx := context.Background()

	credID, err := s.svc.Register(ctx, s.register("alice"))
	s.Require().NoError(err)
	s.Require().False(credID.IsNil())

	cred, err := s.store.FindByID(ctx, credID)
	s.Require().NoError(err)
	s.False(cred.Active(), "credential must stay PENDING until USER_ID_ASSIGNED")
	s.NotEqual("hunter22", cred.PasswordHash, "password must be stored hashed")

	published := s.mbus.Published(bus.TopicSync)
	s.Require().Len(published, 1)
	ev, err := events.DecodeSync(published[0].Value)
	s.Require().NoError(err)
	s.Equal(events.UserCreated, ev.EventType)
	s.Equal(credID.String(), ev.CredentialsID)
	s.Equal("alice", ev.Username)
	s.NotEqual("hunter22", ev.PasswordHash, "plaintext must not cross the broker")
}

func (s *ServiceSuite) TestRegisterValidation() {
	ctx := context.Background()

	s.Run("missing username rejected", func() {
		_, err := s.svc.Register(ctx, RegisterRequest{Password: "x", Role: models.RoleClient})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown role rejected", func() {
		req := s.register("bob")
		req.Role = "SUPERUSER"
		_, err := s.svc.Register(ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("duplicate username rejected without publishing", func() {
		_, err := s.svc.Register(ctx, s.register("carol"))
		s.Require().NoError(err)
		before := len(s.mbus.Published(bus.TopicSync))

		_, err = s.svc.Register(ctx, s.register("carol"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Len(s.mbus.Published(bus.TopicSync), before, "failed precondition must not publish")
	})
}

func (s *ServiceSuite) TestRegisterRollsBackWhenPublishFails() {
	ctx := context.Background()
	ctrl := gomock.NewController(s.T())
	pub := busmock.NewMockPublisher(ctrl)
	pub.EXPECT().
		Publish(gomock.Any(), bus.TopicSync, gomock.Any(), gomock.Any()).
		Return(errors.New("broker down"))

	svc := New(s.store, pub, logger.New("identity-test"), "test-signing-key", time.Hour)

	_, err := svc.Register(ctx, s.register("dave"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	// The local write must have been compensated: the username is free.
	_, err = s.store.FindByUsername(ctx, "dave")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestLoginLifecycle() {
	ctx := context.Background()

	credID, err := s.svc.Register(ctx, s.register("erin"))
	s.Require().NoError(err)

	s.Run("login while PENDING is refused", func() {
		_, err := s.svc.Login(ctx, LoginRequest{Username: "erin", Password: "hunter22"})
		s.True(dErrors.HasCode(err, dErrors.CodePending))
	})

	userID := activate(s.T(), s.svc, credID)

	s.Run("wrong password is unauthorized", func() {
		_, err := s.svc.Login(ctx, LoginRequest{Username: "erin", Password: "nope"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown username is unauthorized", func() {
		_, err := s.svc.Login(ctx, LoginRequest{Username: "ghost", Password: "hunter22"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("login issues a verifiable token", func() {
		result, err := s.svc.Login(ctx, LoginRequest{
			Username:  "erin",
			Password:  "hunter22",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		})
		s.Require().NoError(err)
		s.Equal(userID, result.UserID)
		s.Contains(result.Client, "Firefox")

		claims, err := s.svc.ValidateToken(ctx, result.Token)
		s.Require().NoError(err)
		s.Equal(userID, claims.UserID)
		s.Equal(models.RoleClient, claims.Role)
	})

	s.Run("garbage token is rejected", func() {
		_, err := s.svc.ValidateToken(ctx, "not.a.token")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
