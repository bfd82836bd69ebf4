package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-chi/chi/v5"

	"wattgrid/internal/monitoring/models"
	"wattgrid/internal/monitoring/service"
	"wattgrid/internal/monitoring/store/devicecache"
	"wattgrid/internal/monitoring/store/hourly"
	"wattgrid/internal/monitoring/store/measurement"
	"wattgrid/internal/platform/bus/memory"
	"wattgrid/internal/platform/logger"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/testutil"
)

func newRouter(t *testing.T) (http.Handler, *hourly.InMemoryStore) {
	t.Helper()
	log := logger.New("monitoring-handler-test")
	rollups := hourly.NewMemory()
	svc := service.New(measurement.NewMemory(), rollups, devicecache.NewMemory(), memory.New(), log)
	r := chi.NewRouter()
	New(svc, log).Register(r)
	return r, rollups
}

func TestConsumptionReturnsDayRows(t *testing.T) {
	r, rollups := newRouter(t)
	deviceID := domain.NewDeviceID()
	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)

	for hour, total := range map[int]float64{9: 4.5, 10: 15.0} {
		require.NoError(t, rollups.Upsert(context.Background(), &models.HourlyConsumption{
			ID:        uuid.New(),
			DeviceID:  deviceID,
			Hour:      day.Add(time.Duration(hour) * time.Hour),
			Total:     total,
			CreatedAt: time.Now().UTC(),
		}))
	}

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet,
		"/devices/"+deviceID.String()+"/consumption?day=2026-03-14"))

	require.Equal(t, http.StatusOK, rr.Code)
	var rows []struct {
		Hour             time.Time `json:"hour"`
		TotalConsumption float64   `json:"totalConsumption"`
	}
	testutil.DecodeJSON(t, rr, &rows)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Hour.Before(rows[1].Hour))
	assert.InDelta(t, 4.5, rows[0].TotalConsumption, 1e-9)
	assert.InDelta(t, 15.0, rows[1].TotalConsumption, 1e-9)
}

func TestConsumptionEmptyDayIsEmptyList(t *testing.T) {
	r, _ := newRouter(t)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet,
		"/devices/"+domain.NewDeviceID().String()+"/consumption?day=2026-03-14"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestConsumptionRejectsBadInput(t *testing.T) {
	r, _ := newRouter(t)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/devices/not-a-uuid/consumption"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet,
		"/devices/"+domain.NewDeviceID().String()+"/consumption?day=14-03-2026"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
