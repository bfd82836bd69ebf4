package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wattgrid/internal/identity/models"
	"wattgrid/internal/identity/service"
	"wattgrid/internal/platform/httpjson"
	dErrors "wattgrid/pkg/domain-errors"
)

// Handler exposes the identity domain's synchronous surface: registration
// (which starts the provisioning saga), login, and token introspection for
// the other services.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates the identity HTTP handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the identity routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/validate", h.handleValidate)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type registerResponse struct {
	CredentialsID string `json:"credentialsId"`
	Status        string `json:"status"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	credID, err := h.svc.Register(r.Context(), service.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	// Provisioning continues asynchronously; the caller polls login until
	// the saga completes.
	httpjson.Write(w, http.StatusAccepted, registerResponse{
		CredentialsID: credID.String(),
		Status:        "PENDING",
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Client string `json:"client,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginRequest{
		Username:  req.Username,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	httpjson.Write(w, http.StatusOK, loginResponse{
		Token:  result.Token,
		UserID: result.UserID.String(),
		Role:   string(result.Role),
		Client: result.Client,
	})
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	claims, err := h.svc.ValidateToken(r.Context(), req.Token)
	if err != nil {
		httpjson.Write(w, http.StatusOK, validateResponse{Valid: false})
		return
	}
	httpjson.Write(w, http.StatusOK, validateResponse{
		Valid:  true,
		UserID: claims.UserID.String(),
		Role:   string(claims.Role),
	})
}
