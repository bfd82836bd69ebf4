package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wattgrid/internal/platform/httpjson"
	"wattgrid/internal/users/models"
	"wattgrid/internal/users/service"
	"wattgrid/pkg/domain"
	dErrors "wattgrid/pkg/domain-errors"
)

// Handler exposes the user registry's administrative surface.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates the users HTTP handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the user routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users", h.handleList)
	r.Get("/users/{id}", h.handleGet)
	r.Put("/users/{id}", h.handleUpdate)
	r.Delete("/users/{id}", h.handleDelete)
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"fullName,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResponse(p *models.UserProfile) userResponse {
	return userResponse{
		ID:        p.ID.String(),
		Username:  p.Username,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}

func userIDFrom(r *http.Request) (domain.UserID, error) {
	return domain.ParseUserID(chi.URLParam(r, "id"))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.List(r.Context())
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	out := make([]userResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toResponse(p))
	}
	httpjson.Write(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFrom(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toResponse(p))
}

type updateRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFrom(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	p, err := h.svc.Update(r.Context(), id, service.UpdateRequest{
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toResponse(p))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFrom(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusNoContent, nil)
}
