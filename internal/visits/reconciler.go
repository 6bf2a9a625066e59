package visits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/txtalert/platform/pkg/logging"
)

// Outcome summarizes what one reconciliation call did.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeNoMatch means no transition rule applied; the visit was left as
	// it was. Logged for audit, not treated as an error.
	OutcomeNoMatch Outcome = "no_match"
	OutcomeFailed  Outcome = "failed"
)

// Reconciler applies the status transition table to incoming visit records.
// It never deletes visits and never overwrites a closed visit's history.
type Reconciler struct {
	store  Store
	logger *logging.Logger
}

func NewReconciler(store Store, logger *logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reconciler{store: store, logger: logger.Component("reconciler")}
}

// Reconcile merges one incoming record into the visit history.
//
// When no visit exists for the key a new one is created as reported. When one
// exists, the transition table decides between a status update, a reschedule
// (status and date), or a no-op. Uniqueness violations are reported as
// OutcomeFailed so the caller can continue with the rest of the batch.
func (r *Reconciler) Reconcile(ctx context.Context, key string, patientID, clinicID uuid.UUID, incomingDate time.Time, incoming Status) (Outcome, error) {
	if !incoming.Valid() {
		return OutcomeFailed, fmt.Errorf("visits: reconcile %s: unknown status %q", key, incoming)
	}
	incomingDate = DateOnly(incomingDate)

	current, err := r.store.GetByKey(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return r.create(ctx, key, patientID, clinicID, incomingDate, incoming)
	case err != nil:
		return OutcomeFailed, fmt.Errorf("visits: reconcile %s: lookup: %w", key, err)
	}

	// Idempotent re-delivery of the same record.
	if current.Status == incoming {
		r.logger.Debug("status unchanged", "key", key, "status", incoming)
		return OutcomeUnchanged, nil
	}

	order := OnOrBeforeCurrent
	if DateOnly(current.Date).Before(incomingDate) {
		order = AfterCurrent
	}

	decision, ok := Transition(current.Status, incoming, order)
	if !ok {
		r.logger.Info("no matching transition",
			"key", key,
			"current_status", current.Status,
			"incoming_status", incoming,
			"current_date", DateOnly(current.Date).Format(time.DateOnly),
			"incoming_date", incomingDate.Format(time.DateOnly),
		)
		return OutcomeNoMatch, nil
	}

	date := DateOnly(current.Date)
	if decision.MoveDate {
		date = incomingDate
	}
	if err := r.store.UpdateStatus(ctx, current.ID, decision.NewStatus, date); err != nil {
		if errors.Is(err, ErrDuplicate) {
			r.logger.Error("update hit unique constraint", "key", key, "error", err)
			return OutcomeFailed, nil
		}
		return OutcomeFailed, fmt.Errorf("visits: reconcile %s: update: %w", key, err)
	}
	r.logger.Info("visit updated",
		"key", key,
		"status", decision.NewStatus,
		"date", date.Format(time.DateOnly),
	)
	return OutcomeUpdated, nil
}

func (r *Reconciler) create(ctx context.Context, key string, patientID, clinicID uuid.UUID, date time.Time, status Status) (Outcome, error) {
	v := &Visit{
		ID:        uuid.New(),
		Key:       key,
		PatientID: patientID,
		ClinicID:  clinicID,
		Date:      date,
		Status:    status,
	}
	if err := r.store.Create(ctx, v); err != nil {
		if errors.Is(err, ErrDuplicate) {
			r.logger.Error("create hit unique constraint", "key", key, "error", err)
			return OutcomeFailed, nil
		}
		return OutcomeFailed, fmt.Errorf("visits: reconcile %s: create: %w", key, err)
	}
	r.logger.Info("visit created", "key", key, "status", status, "date", date.Format(time.DateOnly))
	return OutcomeCreated, nil
}

// CreateFollowUp creates a fresh scheduled visit for a follow-up date
// reported alongside a closed visit, unless the patient already has a visit
// on that date.
func (r *Reconciler) CreateFollowUp(ctx context.Context, baseKey string, patientID, clinicID uuid.UUID, date time.Time) (Outcome, error) {
	date = DateOnly(date)
	exists, err := r.store.ExistsForDate(ctx, patientID, date)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("visits: follow-up %s: lookup: %w", baseKey, err)
	}
	if exists {
		r.logger.Debug("follow-up visit already present", "key", baseKey, "date", date.Format(time.DateOnly))
		return OutcomeUnchanged, nil
	}
	return r.create(ctx, FollowUpKey(baseKey, date), patientID, clinicID, date, StatusScheduled)
}
