package patients

import "errors"

var (
	// ErrNotFound is returned when no patient matches the lookup.
	ErrNotFound = errors.New("patient not found")

	// ErrInvalidIdentifier is returned when an external file number fails
	// normalization; the caller must skip the record.
	ErrInvalidIdentifier = errors.New("invalid patient identifier")

	// ErrDeleted is returned when the external identifier belongs to a
	// soft-deleted patient. Imports never resurrect deleted patients.
	ErrDeleted = errors.New("patient is deleted")

	// ErrDuplicate is returned when a create hits a uniqueness constraint.
	ErrDuplicate = errors.New("patient violates unique constraint")
)
