package patients

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStoreGetByTeID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, te_id, owner").
		WithArgs("MV00001").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "te_id", "owner", "active_msisdn", "last_clinic_id", "deleted", "created_at", "updated_at"},
		).AddRow(id, "MV00001", "wrhi", "27794046170", nil, false, now, now))
	mock.ExpectQuery("SELECT msisdn FROM patient_msisdns").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"msisdn"}).AddRow("27794046170").AddRow("27794046171"))

	p, err := store.GetByTeID(context.Background(), "MV00001")
	require.NoError(t, err)
	assert.Equal(t, "MV00001", p.TeID)
	assert.Equal(t, "27794046170", p.ActiveMSISDN)
	assert.Equal(t, []string{"27794046170", "27794046171"}, p.MSISDNs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateDuplicateTeID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	mock.ExpectExec("INSERT INTO patients").
		WithArgs(pgxmock.AnyArg(), "MV00001", "wrhi").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = store.Create(context.Background(), &Patient{TeID: "MV00001", Owner: "wrhi"})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAttachMSISDN(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	id := uuid.New()

	mock.ExpectExec("INSERT INTO msisdns").
		WithArgs("27794046170").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO patient_msisdns").
		WithArgs(id, "27794046170").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.AttachMSISDN(context.Background(), id, "27794046170"))
	require.NoError(t, mock.ExpectationsWereMet())
}
