package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wattgrid/internal/devices/service"
	"wattgrid/internal/devices/store/assignment"
	"wattgrid/internal/devices/store/device"
	"wattgrid/internal/devices/store/usercache"
	"wattgrid/internal/platform/bus/memory"
	"wattgrid/internal/platform/logger"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/testutil"
)

func newRouter(t *testing.T) (http.Handler, *usercache.InMemoryStore) {
	t.Helper()
	log := logger.New("devices-handler-test")
	users := usercache.NewMemory()
	svc := service.New(device.NewMemory(), assignment.NewMemory(), users, memory.New(), log)
	r := chi.NewRouter()
	New(svc, log).Register(r)
	return r, users
}

func createDevice(t *testing.T, r http.Handler) string {
	t.Helper()
	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/devices", map[string]any{
		"name":           "heat pump",
		"description":    "basement",
		"maxConsumption": 12.5,
	}))
	require.Equal(t, http.StatusCreated, rr.Code)
	var resp struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, rr, &resp)
	return resp.ID
}

func TestDeviceLifecycleOverHTTP(t *testing.T) {
	r, _ := newRouter(t)
	id := createDevice(t, r)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/devices"))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []struct {
		ID             string  `json:"id"`
		Name           string  `json:"name"`
		MaxConsumption float64 `json:"maxConsumption"`
	}
	testutil.DecodeJSON(t, rr, &list)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	rr = testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPut, "/devices/"+id, map[string]any{
		"name":           "heat pump",
		"maxConsumption": 20.0,
	}))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodDelete, "/devices/"+id))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodDelete, "/devices/"+id))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	r, _ := newRouter(t)

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/devices", map[string]any{
		"name": "no threshold",
	}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssignRequiresKnownUser(t *testing.T) {
	r, users := newRouter(t)
	id := createDevice(t, r)

	unknown := domain.NewUserID()
	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/devices/"+id+"/assign", map[string]string{
		"userId": unknown.String(),
	}))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	known := domain.NewUserID()
	require.NoError(t, users.Put(context.Background(), known))
	rr = testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/devices/"+id+"/assign", map[string]string{
		"userId": known.String(),
	}))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/users/"+known.String()+"/devices"))
	require.Equal(t, http.StatusOK, rr.Code)
	var assigned []struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, rr, &assigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, id, assigned[0].ID)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodPost, "/devices/"+id+"/unassign"))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/users/"+known.String()+"/devices"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}
