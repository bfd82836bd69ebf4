package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wattgrid/internal/monitoring/service"
	"wattgrid/internal/platform/httpjson"
	"wattgrid/pkg/domain"
	dErrors "wattgrid/pkg/domain-errors"
)

// Handler exposes the monitoring domain's read surface.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates the monitoring HTTP handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the monitoring routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/devices/{id}/consumption", h.handleConsumption)
}

type hourlyResponse struct {
	Hour             time.Time `json:"hour"`
	TotalConsumption float64   `json:"totalConsumption"`
}

func (h *Handler) handleConsumption(w http.ResponseWriter, r *http.Request) {
	deviceID, err := domain.ParseDeviceID(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("day"); raw != "" {
		day, err = time.Parse("2006-01-02", raw)
		if err != nil {
			httpjson.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "day must be YYYY-MM-DD"))
			return
		}
	}

	rows, err := h.svc.Consumption(r.Context(), deviceID, day)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	out := make([]hourlyResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, hourlyResponse{Hour: row.Hour, TotalConsumption: row.Total})
	}
	httpjson.Write(w, http.StatusOK, out)
}
