package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txtalert/platform/pkg/logging"
)

func TestStatsHandlerGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM patients`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM visits`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("s", 10).
			AddRow("a", 25).
			AddRow("m", 7))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sms_sends`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(31))

	h := NewStatsHandler(db, logging.Default())
	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 42, body.Patients)
	assert.Equal(t, 10, body.VisitsByStatus["s"])
	assert.Equal(t, 25, body.VisitsByStatus["a"])
	assert.Equal(t, 31, body.RemindersSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsHandlerDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM patients`).
		WillReturnError(assert.AnError)

	h := NewStatsHandler(db, logging.Default())
	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
