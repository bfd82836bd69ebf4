package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"wattgrid/internal/identity/clientinfo"
	"wattgrid/internal/identity/models"
	"wattgrid/internal/identity/store/credential"
	"wattgrid/internal/platform/bus"
	"wattgrid/pkg/domain"
	dErrors "wattgrid/pkg/domain-errors"
	"wattgrid/pkg/events"
	"wattgrid/pkg/platform/sentinel"
)

// Service owns the identity side of the provisioning and deletion sagas
// plus the synchronous login/token surface.
type Service struct {
	creds      credential.Store
	publisher  bus.Publisher
	logger     *slog.Logger
	signingKey []byte
	tokenTTL   time.Duration
	metrics    *Metrics
}

// New wires the identity service.
func New(creds credential.Store, publisher bus.Publisher, logger *slog.Logger, signingKey string, tokenTTL time.Duration) *Service {
	return &Service{
		creds:      creds,
		publisher:  publisher,
		logger:     logger,
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
		metrics:    newMetrics(),
	}
}

// RegisterRequest is the inbound registration payload.
type RegisterRequest struct {
	Username string
	Password string
	Email    string
	FullName string
	Role     models.Role
}

// Register starts the provisioning saga: create a PENDING credential, then
// publish USER_CREATED. If the publish fails the local write is rolled back
// and the request fails synchronously, leaving no partial state visible.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (domain.CredentialID, error) {
	if req.Username == "" || req.Password == "" {
		return domain.CredentialID{}, dErrors.New(dErrors.CodeInvalidInput, "username and password are required")
	}
	if !req.Role.Valid() {
		return domain.CredentialID{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.CredentialID{}, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	cred := &models.Credential{
		ID:           domain.NewCredentialID(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.creds.CreateIfUsernameAvailable(ctx, cred); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domain.CredentialID{}, dErrors.Newf(dErrors.CodeConflict, "username %q already exists", req.Username)
		}
		return domain.CredentialID{}, dErrors.Wrap(err, dErrors.CodeInternal, "create credential")
	}
	s.logger.Info("credential created pending", "credentials_id", cred.ID, "username", cred.Username)

	ev := events.NewUserCreated(cred.ID, req.Username, string(hash), req.Email, req.FullName, string(req.Role))
	payload, err := ev.Encode()
	if err == nil {
		err = s.publisher.Publish(ctx, bus.TopicSync, []byte(cred.ID.String()), payload)
	}
	if err != nil {
		// Compensate the local write so no PENDING credential lingers for a
		// saga that never started.
		if delErr := s.creds.Delete(ctx, cred.ID); delErr != nil && !errors.Is(delErr, sentinel.ErrNotFound) {
			s.logger.Error("rollback of credential failed after publish error",
				"credentials_id", cred.ID, "error", delErr)
		}
		s.metrics.registrationsFailed.Inc()
		return domain.CredentialID{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "publish USER_CREATED")
	}

	s.metrics.registrationsStarted.Inc()
	s.logger.Info("published USER_CREATED", "credentials_id", cred.ID)
	return cred.ID, nil
}

// LoginRequest is the inbound login payload. UserAgent feeds the client
// description recorded with the session.
type LoginRequest struct {
	Username  string
	Password  string
	UserAgent string
}

// LoginResult carries the issued token and identity claims.
type LoginResult struct {
	Token  string
	UserID domain.UserID
	Role   models.Role
	Client string
}

// Login authenticates a credential and issues a signed token. A credential
// still waiting for USER_ID_ASSIGNED is refused: the saga may be in flight
// and there is no user id to put in the token yet.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	cred, err := s.creds.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
		}
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "lookup credential")
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)) != nil {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
	}
	if !cred.Active() {
		return LoginResult{}, dErrors.New(dErrors.CodePending, "registration not yet complete, please try again later")
	}

	token, err := s.issueToken(cred.UserID, cred.Role)
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}

	client := clientinfo.Describe(req.UserAgent)
	s.logger.Info("login successful", "username", cred.Username, "user_id", cred.UserID, "client", client)
	return LoginResult{Token: token, UserID: cred.UserID, Role: cred.Role, Client: client}, nil
}

// TokenClaims is the validated content of an access token.
type TokenClaims struct {
	UserID domain.UserID
	Role   models.Role
}

// ValidateToken verifies a token's signature and expiry and returns its
// claims. Other services call this through the introspection endpoint.
func (s *Service) ValidateToken(_ context.Context, raw string) (TokenClaims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return TokenClaims{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return TokenClaims{}, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	userID, err := domain.ParseUserID(sub)
	if err != nil {
		return TokenClaims{}, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a user id")
	}
	role, _ := claims["role"].(string)
	return TokenClaims{UserID: userID, Role: models.Role(role)}, nil
}

func (s *Service) issueToken(userID domain.UserID, role models.Role) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
		"jti":  uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}
