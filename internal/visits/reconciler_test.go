package visits

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txtalert/platform/pkg/logging"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestReconciler(t *testing.T) (*Reconciler, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	return NewReconciler(store, logging.Default()), store
}

func TestReconcileCreatesMissingVisit(t *testing.T) {
	r, store := newTestReconciler(t)
	patientID, clinicID := uuid.New(), uuid.New()

	outcome, err := r.Reconcile(context.Background(), "01-2018", patientID, clinicID, day(2014, 8, 12), StatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	v, err := store.GetByKey(context.Background(), "01-2018")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, v.Status)
	assert.Equal(t, day(2014, 8, 12), v.Date)
}

func TestReconcileIdempotentRedelivery(t *testing.T) {
	r, _ := newTestReconciler(t)
	patientID, clinicID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, "01-2018", patientID, clinicID, day(2014, 8, 12), StatusScheduled)
	require.NoError(t, err)

	outcome, err := r.Reconcile(ctx, "01-2018", patientID, clinicID, day(2014, 8, 12), StatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
}

func TestReconcileMissedKeepsDate(t *testing.T) {
	r, store := newTestReconciler(t)
	patientID, clinicID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, "01-2018", patientID, clinicID, day(2014, 8, 12), StatusScheduled)
	require.NoError(t, err)

	outcome, err := r.Reconcile(ctx, "01-2018", patientID, clinicID, day(2014, 8, 12), StatusMissed)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	v, err := store.GetByKey(ctx, "01-2018")
	require.NoError(t, err)
	assert.Equal(t, StatusMissed, v.Status)
	assert.Equal(t, day(2014, 8, 12), v.Date)
}

func TestReconcileAttendedFromRescheduled(t *testing.T) {
	r, store := newTestReconciler(t)
	patientID, clinicID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, "02-2018", patientID, clinicID, day(2014, 8, 12), StatusScheduled)
	require.NoError(t, err)

	// Pushed later: scheduled -> rescheduled, date moves.
	outcome, err := r.Reconcile(ctx, "02-2018", patientID, clinicID, day(2014, 8, 20), StatusRescheduled)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	v, _ := store.GetByKey(ctx, "02-2018")
	assert.Equal(t, StatusRescheduled, v.Status)
	assert.Equal(t, day(2014, 8, 20), v.Date)

	// Attended on the rescheduled date.
	outcome, err = r.Reconcile(ctx, "02-2018", patientID, clinicID, day(2014, 8, 20), StatusAttended)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	v, _ = store.GetByKey(ctx, "02-2018")
	assert.Equal(t, StatusAttended, v.Status)
	assert.Equal(t, day(2014, 8, 20), v.Date)
}

func TestReconcileTerminalStatusIsMonotonic(t *testing.T) {
	r, store := newTestReconciler(t)
	patientID, clinicID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, "01-2018", patientID, clinicID, day(2014, 8, 12), StatusScheduled)
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, "01-2018", patientID, clinicID, day(2014, 8, 12), StatusAttended)
	require.NoError(t, err)

	// A later scheduled record must not reopen the visit.
	for _, incoming := range []struct {
		date   time.Time
		status Status
	}{
		{day(2014, 8, 12), StatusScheduled},
		{day(2014, 8, 13), StatusScheduled},
		{day(2014, 8, 11), StatusMissed},
	} {
		outcome, err := r.Reconcile(ctx, "01-2018", patientID, clinicID, incoming.date, incoming.status)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoMatch, outcome)

		v, _ := store.GetByKey(ctx, "01-2018")
		assert.Equal(t, StatusAttended, v.Status)
		assert.Equal(t, day(2014, 8, 12), v.Date)
	}
}

func TestReconcileRescheduleRequiresLaterDate(t *testing.T) {
	r, store := newTestReconciler(t)
	patientID, clinicID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, "01-2018", patientID, clinicID, day(2014, 8, 12), StatusScheduled)
	require.NoError(t, err)

	// Same-day reschedule has no rule.
	outcome, err := r.Reconcile(ctx, "01-2018", patientID, clinicID, day(2014, 8, 12), StatusRescheduled)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoMatch, outcome)

	v, _ := store.GetByKey(ctx, "01-2018")
	assert.Equal(t, StatusScheduled, v.Status)
}

func TestReconcileRejectsUnknownStatus(t *testing.T) {
	r, _ := newTestReconciler(t)
	_, err := r.Reconcile(context.Background(), "01-2018", uuid.New(), uuid.New(), day(2014, 8, 12), Status("x"))
	assert.Error(t, err)
}

func TestCreateFollowUp(t *testing.T) {
	r, store := newTestReconciler(t)
	patientID, clinicID := uuid.New(), uuid.New()
	ctx := context.Background()

	outcome, err := r.CreateFollowUp(ctx, "01-2018", patientID, clinicID, day(2014, 9, 11))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	v, ok := store.ByPatientDate(patientID, day(2014, 9, 11))
	require.True(t, ok)
	assert.Equal(t, StatusScheduled, v.Status)

	// Second report of the same follow-up date is a no-op.
	outcome, err = r.CreateFollowUp(ctx, "01-2018", patientID, clinicID, day(2014, 9, 11))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Len(t, store.All(), 1)
}
