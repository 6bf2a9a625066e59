// Package importworker periodically pulls visit and patient batches from the
// case-management API.
package importworker

import (
	"context"
	"time"

	"github.com/txtalert/platform/internal/importer"
	"github.com/txtalert/platform/pkg/logging"
)

type importRunner interface {
	ImportVisits(ctx context.Context, source string) (importer.VisitCounts, error)
	ImportPatients(ctx context.Context, source string) (importer.PatientCounts, error)
}

type sheetRunner interface {
	Import(ctx context.Context, docName string, start, until time.Time) (importer.VisitCounts, error)
}

// WorksheetImport binds one spreadsheet document to the importer that
// processes it. Each document carries its own importer because the
// enrollment check is document-scoped.
type WorksheetImport struct {
	Doc      string
	Importer sheetRunner
}

// Runner imports every configured source on a fixed interval. Patients are
// imported before visits so new registrations are resolvable in the same
// tick.
type Runner struct {
	orchestrator importRunner
	sources      []string
	worksheets   []WorksheetImport
	logger       *logging.Logger
	interval     time.Duration
	now          func() time.Time
}

func NewRunner(orchestrator importRunner, sources []string, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		orchestrator: orchestrator,
		sources:      sources,
		logger:       logger.Component("import_worker"),
		interval:     time.Hour,
		now:          time.Now,
	}
}

func (r *Runner) WithInterval(d time.Duration) *Runner {
	if d > 0 {
		r.interval = d
	}
	return r
}

// WithWorksheets adds spreadsheet documents to every tick, imported after
// the API sources.
func (r *Runner) WithWorksheets(worksheets []WorksheetImport) *Runner {
	r.worksheets = worksheets
	return r
}

// Run imports once immediately, then on every tick until the context is
// cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	r.runSources(ctx)
	r.runWorksheets(ctx)
}

func (r *Runner) runSources(ctx context.Context) {
	if r.orchestrator == nil {
		return
	}
	for _, source := range r.sources {
		if ctx.Err() != nil {
			return
		}
		patientCounts, err := r.orchestrator.ImportPatients(ctx, source)
		if err != nil {
			r.logger.Error("patient import failed", "source", source, "error", err)
		} else {
			r.logger.Info("patient import done",
				"source", source, "created", patientCounts.Created, "errors", patientCounts.Errors)
		}

		visitCounts, err := r.orchestrator.ImportVisits(ctx, source)
		if err != nil {
			r.logger.Error("visit import failed", "source", source, "error", err)
			continue
		}
		r.logger.Info("visit import done",
			"source", source,
			"created", visitCounts.Created,
			"updated", visitCounts.Updated,
			"unchanged", visitCounts.Unchanged,
			"skipped", visitCounts.Skipped,
			"failed", visitCounts.Failed,
		)
	}
}

// runWorksheets imports each spreadsheet document over a window of one month
// back to one month ahead of the current tick.
func (r *Runner) runWorksheets(ctx context.Context) {
	if len(r.worksheets) == 0 {
		return
	}
	now := r.now().UTC()
	start := now.AddDate(0, -1, 0)
	until := now.AddDate(0, 1, 0)
	for _, ws := range r.worksheets {
		if ctx.Err() != nil {
			return
		}
		counts, err := ws.Importer.Import(ctx, ws.Doc, start, until)
		if err != nil {
			r.logger.Error("worksheet import failed", "doc", ws.Doc, "error", err)
			continue
		}
		r.logger.Info("worksheet import done",
			"doc", ws.Doc,
			"created", counts.Created,
			"updated", counts.Updated,
			"unchanged", counts.Unchanged,
			"skipped", counts.Skipped,
			"failed", counts.Failed,
		)
	}
}
