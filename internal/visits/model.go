// Package visits holds the canonical appointment history and the
// reconciliation state machine that merges external records into it.
package visits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the single-letter appointment status stored with each visit.
type Status string

const (
	StatusScheduled   Status = "s"
	StatusRescheduled Status = "r"
	StatusAttended    Status = "a"
	StatusMissed      Status = "m"
)

// Terminal reports whether the status closes the visit. Attended and missed
// visits never progress again; a conflicting re-import is rejected.
func (s Status) Terminal() bool {
	return s == StatusAttended || s == StatusMissed
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusRescheduled, StatusAttended, StatusMissed:
		return true
	}
	return false
}

// Visit is a single appointment instance for one patient at one clinic.
type Visit struct {
	ID        uuid.UUID
	Key       string
	PatientID uuid.UUID
	ClinicID  uuid.UUID
	Date      time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key derives the composite visit identifier from the external sequence
// number and the patient's external identifier. Sequences below ten are
// zero-padded so keys sort naturally.
func Key(sequence int, teID string) string {
	return fmt.Sprintf("%02d-%s", sequence, teID)
}

// FollowUpKey derives the identifier for a follow-up visit created from a
// Next_tcb date reported alongside a closed visit.
func FollowUpKey(baseKey string, date time.Time) string {
	return fmt.Sprintf("%s-%s", baseKey, date.Format("20060102"))
}

// DateOnly truncates a timestamp to its calendar day in UTC. Visits are
// dated, not timed, so comparisons always run on day precision.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	// ErrNotFound is returned when no visit matches the lookup.
	ErrNotFound = errors.New("visit not found")

	// ErrDuplicate is returned when a create or update hits a uniqueness
	// constraint.
	ErrDuplicate = errors.New("visit violates unique constraint")
)

// Store is the persistence contract the reconciler works against.
type Store interface {
	GetByKey(ctx context.Context, key string) (*Visit, error)
	Create(ctx context.Context, v *Visit) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, date time.Time) error
	ExistsForDate(ctx context.Context, patientID uuid.UUID, date time.Time) (bool, error)
}
