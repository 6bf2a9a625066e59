// Package patients holds the canonical patient registry and the resolver
// that maps external file identifiers onto it.
package patients

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the canonical person record. TeID is the external system's
// stable natural key and is immutable once set. Patients are soft-deleted:
// visit history keeps referencing them and default lookups exclude them.
type Patient struct {
	ID           uuid.UUID
	TeID         string
	Owner        string
	ActiveMSISDN string
	MSISDNs      []string
	LastClinicID uuid.UUID
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasMSISDN reports whether msisdn is already in the patient's phone set.
func (p *Patient) HasMSISDN(msisdn string) bool {
	for _, m := range p.MSISDNs {
		if m == msisdn {
			return true
		}
	}
	return false
}
