// Package clinics resolves external facility names onto canonical clinic
// records through an explicit mapping table.
package clinics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Clinic is a named facility.
type Clinic struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

var (
	// ErrUnmapped is returned when an external facility name has no mapping.
	// The record carrying it is skipped; the batch continues.
	ErrUnmapped = errors.New("unmapped clinic name")

	// ErrNotFound is returned when no clinic matches the lookup.
	ErrNotFound = errors.New("clinic not found")
)

// Store is the persistence contract for clinics and their external-name
// mappings.
type Store interface {
	// ResolveExternalName maps an external facility name to its clinic,
	// returning ErrUnmapped when no mapping exists.
	ResolveExternalName(ctx context.Context, externalName string) (*Clinic, error)
	GetOrCreateByName(ctx context.Context, name string) (*Clinic, error)
	AddMapping(ctx context.Context, externalName string, clinicID uuid.UUID) error
}
