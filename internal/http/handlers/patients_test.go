package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txtalert/platform/internal/patients"
	"github.com/txtalert/platform/pkg/logging"
)

func newPatientsRouter(store patients.Store) http.Handler {
	r := chi.NewRouter()
	h := NewPatientsHandler(store, logging.Default())
	r.Get("/admin/patients/{te_id}", h.Get)
	return r
}

func TestPatientsHandlerGet(t *testing.T) {
	store := patients.NewInMemoryStore()
	ctx := context.Background()

	p := &patients.Patient{TeID: "ES00044", Owner: "wrhi"}
	require.NoError(t, store.Create(ctx, p))
	require.NoError(t, store.AttachMSISDN(ctx, p.ID, "27794046170"))
	require.NoError(t, store.SetActiveMSISDN(ctx, p.ID, "27794046170"))

	req := httptest.NewRequest(http.MethodGet, "/admin/patients/ES00044", nil)
	rec := httptest.NewRecorder()
	newPatientsRouter(store).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body patientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ES00044", body.TeID)
	assert.Equal(t, "wrhi", body.Owner)
	assert.Equal(t, "27794046170", body.ActiveMSISDN)
	assert.Equal(t, []string{"27794046170"}, body.MSISDNs)
}

func TestPatientsHandlerNotFound(t *testing.T) {
	store := patients.NewInMemoryStore()

	req := httptest.NewRequest(http.MethodGet, "/admin/patients/NOPE01", nil)
	rec := httptest.NewRecorder()
	newPatientsRouter(store).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatientsHandlerHidesDeleted(t *testing.T) {
	store := patients.NewInMemoryStore()
	ctx := context.Background()

	p := &patients.Patient{TeID: "ES00044", Owner: "wrhi"}
	require.NoError(t, store.Create(ctx, p))
	require.NoError(t, store.SoftDelete(ctx, p.ID))

	req := httptest.NewRequest(http.MethodGet, "/admin/patients/ES00044", nil)
	rec := httptest.NewRecorder()
	newPatientsRouter(store).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
