package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/txtalert/platform/internal/clinics"
	"github.com/txtalert/platform/internal/enrollment"
	"github.com/txtalert/platform/internal/patients"
	"github.com/txtalert/platform/internal/visits"
	"github.com/txtalert/platform/pkg/logging"
)

// SpreadsheetConfig wires a SpreadsheetImporter.
type SpreadsheetConfig struct {
	Source     WorksheetSource
	Enrollment enrollment.Cache
	Resolver   *patients.Resolver
	Reconciler *visits.Reconciler
	Visits     visits.Store
	Clinics    clinics.Store
	Logger     *logging.Logger
	Owner      string
}

// SpreadsheetImporter imports worksheet-style appointment data. Visit
// creation is gated on the enrollment check: a patient who is not enrolled
// never receives a newly created visit, though an existing visit may still
// be status-updated.
type SpreadsheetImporter struct {
	source     WorksheetSource
	enrollment enrollment.Cache
	resolver   *patients.Resolver
	reconciler *visits.Reconciler
	visits     visits.Store
	clinics    clinics.Store
	logger     *logging.Logger
	owner      string
}

func NewSpreadsheetImporter(cfg SpreadsheetConfig) *SpreadsheetImporter {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	owner := cfg.Owner
	if owner == "" {
		owner = "googledoc"
	}
	return &SpreadsheetImporter{
		source:     cfg.Source,
		enrollment: cfg.Enrollment,
		resolver:   cfg.Resolver,
		reconciler: cfg.Reconciler,
		visits:     cfg.Visits,
		clinics:    cfg.Clinics,
		logger:     logger.Component("spreadsheet"),
		owner:      owner,
	}
}

// Import processes every worksheet returned for the document and period.
// Every sheet is processed; counts are aggregated across sheets.
func (im *SpreadsheetImporter) Import(ctx context.Context, docName string, start, until time.Time) (VisitCounts, error) {
	var counts VisitCounts

	sheets, err := im.source.FetchAppointments(ctx, docName, start, until)
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		im.logger.Error("worksheet fetch failed", "doc", docName, "error", err)
		return counts, fmt.Errorf("importer: fetch worksheets for %s: %w", docName, err)
	}

	clinic, err := im.clinics.GetOrCreateByName(ctx, docName)
	if err != nil {
		return counts, fmt.Errorf("importer: clinic for %s: %w", docName, err)
	}

	for _, sheet := range sheets {
		im.logger.Info("processing worksheet", "doc", docName, "sheet", sheet.Name, "rows", len(sheet.Rows))
		for _, row := range sheet.Rows {
			im.applyRow(ctx, clinic, row, &counts)
		}
	}
	im.logger.Info("spreadsheet import finished",
		"doc", docName,
		"created", counts.Created,
		"updated", counts.Updated,
		"unchanged", counts.Unchanged,
		"skipped", counts.Skipped,
		"failed", counts.Failed,
	)
	return counts, nil
}

func (im *SpreadsheetImporter) applyRow(ctx context.Context, clinic *clinics.Clinic, row AppointmentRow, counts *VisitCounts) {
	enrolled, err := im.enrollment.IsEnrolled(ctx, row.FileNo)
	if err != nil {
		im.logger.Error("enrollment check failed", "file_no", row.FileNo, "error", err)
		counts.Failed++
		return
	}

	key := visits.Key(row.Row, row.FileNo)
	if !enrolled {
		// Only existing visits may be touched for unenrolled patients.
		if _, err := im.visits.GetByKey(ctx, key); errors.Is(err, visits.ErrNotFound) {
			im.logger.Info("patient not enrolled, visit not created", "file_no", row.FileNo, "key", key)
			counts.Skipped++
			return
		} else if err != nil {
			counts.Failed++
			return
		}
	}

	patient, _, err := im.resolver.ResolveOrCreate(ctx, row.FileNo, row.Phone, clinic.ID, im.owner)
	if err != nil {
		if errors.Is(err, patients.ErrInvalidIdentifier) || errors.Is(err, patients.ErrDeleted) {
			im.logger.Warn("row skipped", "file_no", row.FileNo, "reason", err)
			counts.Skipped++
			return
		}
		counts.Failed++
		return
	}

	outcome, err := im.reconciler.Reconcile(ctx, key, patient.ID, clinic.ID, row.Date, row.Status)
	if err != nil {
		im.logger.Error("reconcile failed", "key", key, "error", err)
	}
	switch outcome {
	case visits.OutcomeCreated:
		counts.Created++
	case visits.OutcomeUpdated:
		counts.Updated++
	case visits.OutcomeUnchanged:
		counts.Unchanged++
	case visits.OutcomeNoMatch:
		counts.NoMatch++
	case visits.OutcomeFailed:
		counts.Failed++
	}
}
