package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wattgrid/internal/devices/models"
	"wattgrid/internal/devices/service"
	"wattgrid/internal/platform/httpjson"
	"wattgrid/pkg/domain"
	dErrors "wattgrid/pkg/domain-errors"
)

// Handler exposes the device registry surface.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates the devices HTTP handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the device routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/devices", h.handleList)
	r.Post("/devices", h.handleCreate)
	r.Put("/devices/{id}", h.handleUpdate)
	r.Delete("/devices/{id}", h.handleDelete)
	r.Post("/devices/{id}/assign", h.handleAssign)
	r.Post("/devices/{id}/unassign", h.handleUnassign)
	r.Get("/users/{id}/devices", h.handleListByUser)
}

type deviceRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	MaxConsumption float64 `json:"maxConsumption"`
}

type deviceResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	MaxConsumption float64   `json:"maxConsumption"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toResponse(d *models.Device) deviceResponse {
	return deviceResponse{
		ID:             d.ID.String(),
		Name:           d.Name,
		Description:    d.Description,
		MaxConsumption: d.MaxConsumption,
		CreatedAt:      d.CreatedAt,
	}
}

func deviceIDFrom(r *http.Request) (domain.DeviceID, error) {
	return domain.ParseDeviceID(chi.URLParam(r, "id"))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	devices, err := h.svc.List(r.Context())
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toResponse(d))
	}
	httpjson.Write(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	d, err := h.svc.Create(r.Context(), service.CreateRequest{
		Name:           req.Name,
		Description:    req.Description,
		MaxConsumption: req.MaxConsumption,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, toResponse(d))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := deviceIDFrom(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	d, err := h.svc.Update(r.Context(), id, service.UpdateRequest{
		Name:           req.Name,
		Description:    req.Description,
		MaxConsumption: req.MaxConsumption,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toResponse(d))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := deviceIDFrom(r)
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

type assignRequest struct {
	UserID string `json:"userId"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	id, err := deviceIDFrom(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	userID, err := domain.ParseUserID(req.UserID)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	if err := h.svc.Assign(r.Context(), id, userID); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusNoContent, nil)
}

func (h *Handler) handleUnassign(w http.ResponseWriter, r *http.Request) {
	id, err := deviceIDFrom(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	if err := h.svc.Unassign(r.Context(), id); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusNoContent, nil)
}

func (h *Handler) handleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	devices, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toResponse(d))
	}
	httpjson.Write(w, http.StatusOK, out)
}
