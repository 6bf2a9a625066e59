package patients

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract for the patient registry. GetByTeID
// excludes soft-deleted patients; GetByTeIDAny includes them so the resolver
// can refuse to resurrect a deleted record.
type Store interface {
	GetByTeID(ctx context.Context, teID string) (*Patient, error)
	GetByTeIDAny(ctx context.Context, teID string) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
	// AttachMSISDN get-or-creates the normalized phone number record and adds
	// it to the patient's phone set if absent.
	AttachMSISDN(ctx context.Context, patientID uuid.UUID, msisdn string) error
	SetActiveMSISDN(ctx context.Context, patientID uuid.UUID, msisdn string) error
	SetLastClinic(ctx context.Context, patientID uuid.UUID, clinicID uuid.UUID) error
	SoftDelete(ctx context.Context, patientID uuid.UUID) error
}
