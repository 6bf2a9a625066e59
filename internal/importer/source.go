package importer

import (
	"context"
	"time"

	"github.com/txtalert/platform/internal/visits"
)

// VisitSource fetches one category of visit records for a source tag.
// Fetches must be idempotent reads; records may be re-delivered.
type VisitSource interface {
	FetchVisitData(ctx context.Context, source string, category Category) ([]VisitRecord, error)
}

// PatientSource fetches patient registration records grouped by facility.
type PatientSource interface {
	FetchPatientData(ctx context.Context, source string) ([]FacilityPatients, error)
}

// AppointmentRow is one validated spreadsheet row. Row numbers combine with
// the file number into the visit key.
type AppointmentRow struct {
	Row    int
	FileNo string
	Phone  string
	Date   time.Time
	Status visits.Status
}

// Worksheet is one sheet of appointment rows.
type Worksheet struct {
	Name string
	Rows []AppointmentRow
}

// WorksheetSource fetches spreadsheet-style appointment data and answers the
// authoritative enrollment check for the same document.
type WorksheetSource interface {
	FetchAppointments(ctx context.Context, docName string, start, until time.Time) ([]Worksheet, error)
	CheckEnrollment(ctx context.Context, docName, fileNo string, start, until time.Time) (bool, error)
}
