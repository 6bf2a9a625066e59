package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/txtalert/platform/internal/identity"
	"github.com/txtalert/platform/pkg/logging"
)

// Resolver maps an external patient identifier to a canonical Patient,
// creating one on first encounter and attaching any phone numbers the record
// carries.
type Resolver struct {
	store  Store
	logger *logging.Logger
}

func NewResolver(store Store, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{store: store, logger: logger.Component("patients")}
}

// ResolveOrCreate finds or creates the patient for an external identifier.
//
// The raw phone value may carry several numbers separated by `/`; each one
// that normalizes is attached to the patient's phone set. A malformed number
// among several is skipped and logged, never fatal. A malformed identifier
// returns ErrInvalidIdentifier and a soft-deleted patient returns ErrDeleted;
// both mean the caller skips the record.
func (r *Resolver) ResolveOrCreate(ctx context.Context, teID, rawPhone string, clinicID uuid.UUID, owner string) (*Patient, bool, error) {
	fileNo, ok := identity.NormalizeFileNumber(teID)
	if !ok {
		r.logger.Warn("malformed external identifier", "te_id", teID)
		return nil, false, fmt.Errorf("patients: resolve %q: %w", teID, ErrInvalidIdentifier)
	}

	created := false
	p, err := r.store.GetByTeIDAny(ctx, fileNo)
	switch {
	case errors.Is(err, ErrNotFound):
		p = &Patient{ID: uuid.New(), TeID: fileNo, Owner: owner}
		if err := r.store.Create(ctx, p); err != nil {
			return nil, false, fmt.Errorf("patients: create %s: %w", fileNo, err)
		}
		created = true
		r.logger.Info("patient created", "te_id", fileNo, "owner", owner)
	case err != nil:
		return nil, false, fmt.Errorf("patients: resolve %s: %w", fileNo, err)
	case p.Deleted:
		r.logger.Info("skipping soft-deleted patient", "te_id", fileNo)
		return nil, false, fmt.Errorf("patients: resolve %s: %w", fileNo, ErrDeleted)
	}

	if err := r.attachPhones(ctx, p, rawPhone); err != nil {
		return nil, created, err
	}

	if clinicID != uuid.Nil && p.LastClinicID != clinicID {
		if err := r.store.SetLastClinic(ctx, p.ID, clinicID); err != nil {
			return nil, created, fmt.Errorf("patients: set last clinic for %s: %w", fileNo, err)
		}
		p.LastClinicID = clinicID
	}
	return p, created, nil
}

func (r *Resolver) attachPhones(ctx context.Context, p *Patient, rawPhone string) error {
	for _, raw := range identity.SplitPhones(rawPhone) {
		msisdn, ok := identity.NormalizePhone(raw)
		if !ok {
			r.logger.Warn("malformed phone number skipped", "te_id", p.TeID, "raw", raw)
			continue
		}
		if p.HasMSISDN(msisdn) {
			continue
		}
		if err := r.store.AttachMSISDN(ctx, p.ID, msisdn); err != nil {
			return fmt.Errorf("patients: attach msisdn for %s: %w", p.TeID, err)
		}
		p.MSISDNs = append(p.MSISDNs, msisdn)
		if p.ActiveMSISDN == "" {
			if err := r.store.SetActiveMSISDN(ctx, p.ID, msisdn); err != nil {
				return fmt.Errorf("patients: set active msisdn for %s: %w", p.TeID, err)
			}
			p.ActiveMSISDN = msisdn
		}
	}
	return nil
}
