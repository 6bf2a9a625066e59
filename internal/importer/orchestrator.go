package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/txtalert/platform/internal/clinics"
	"github.com/txtalert/platform/internal/observability/metrics"
	"github.com/txtalert/platform/internal/patients"
	"github.com/txtalert/platform/internal/visits"
	"github.com/txtalert/platform/pkg/logging"
)

// VisitCounts aggregates per-record outcomes of one visit import run.
type VisitCounts struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	NoMatch   int `json:"no_match"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// PatientCounts aggregates per-record outcomes of one patient import run.
type PatientCounts struct {
	Created int `json:"created"`
	Errors  int `json:"errors"`
}

// Config wires an Orchestrator.
type Config struct {
	VisitSource   VisitSource
	PatientSource PatientSource
	Resolver      *patients.Resolver
	Reconciler    *visits.Reconciler
	Clinics       clinics.Store
	Metrics       *metrics.ImportMetrics
	Logger        *logging.Logger
	// Owner tags patients created by this import actor.
	Owner string
}

// Orchestrator runs the fetch -> resolve -> reconcile pipeline over the
// remote case-management API. Records are processed strictly sequentially;
// each record's persistence is its own atomic operation, so a fetch failure
// mid-run never corrupts what was already committed.
type Orchestrator struct {
	visitSource   VisitSource
	patientSource PatientSource
	resolver      *patients.Resolver
	reconciler    *visits.Reconciler
	clinics       clinics.Store
	metrics       *metrics.ImportMetrics
	logger        *logging.Logger
	owner         string
}

func NewOrchestrator(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	owner := cfg.Owner
	if owner == "" {
		owner = "wrhi"
	}
	return &Orchestrator{
		visitSource:   cfg.VisitSource,
		patientSource: cfg.PatientSource,
		resolver:      cfg.Resolver,
		reconciler:    cfg.Reconciler,
		clinics:       cfg.Clinics,
		metrics:       cfg.Metrics,
		logger:        logger.Component("importer"),
		owner:         owner,
	}
}

// ImportVisits imports all three visit categories for a source tag, in
// order. A fetch failure aborts the run with ErrSourceUnavailable; a bad
// record only ever skips or fails that record.
func (o *Orchestrator) ImportVisits(ctx context.Context, source string) (VisitCounts, error) {
	var counts VisitCounts
	for _, category := range Categories {
		start := time.Now()
		records, err := o.visitSource.FetchVisitData(ctx, source, category)
		o.metrics.ObserveFetchLatency("visits", category.String(), time.Since(start).Seconds())
		if err != nil {
			if !errors.Is(err, ErrSourceUnavailable) {
				err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
			}
			o.logger.Error("visit fetch failed, aborting batch",
				"source", source, "category", category.String(), "error", err)
			return counts, fmt.Errorf("importer: fetch %s visits for %s: %w", category, source, err)
		}
		o.logger.Info("visit batch fetched",
			"source", source, "category", category.String(), "records", len(records))
		for _, rec := range records {
			o.applyVisitRecord(ctx, category, rec, &counts)
		}
	}
	o.logger.Info("visit import finished",
		"source", source,
		"created", counts.Created,
		"updated", counts.Updated,
		"unchanged", counts.Unchanged,
		"no_match", counts.NoMatch,
		"skipped", counts.Skipped,
		"failed", counts.Failed,
	)
	return counts, nil
}

func (o *Orchestrator) applyVisitRecord(ctx context.Context, category Category, rec VisitRecord, counts *VisitCounts) {
	observe := func(outcome string) {
		o.metrics.ObserveOutcome("visits", category.String(), outcome)
	}

	clinic, err := o.clinics.ResolveExternalName(ctx, rec.Facility)
	if err != nil {
		if errors.Is(err, clinics.ErrUnmapped) {
			o.logger.Warn("unmapped clinic, record skipped",
				"category", category.String(), "facility", rec.Facility, "te_id", rec.TeID)
			counts.Skipped++
			observe("skipped")
			return
		}
		o.logger.Error("clinic lookup failed", "facility", rec.Facility, "error", err)
		counts.Failed++
		observe("failed")
		return
	}

	patient, _, err := o.resolver.ResolveOrCreate(ctx, rec.TeID, rec.Cellphone, clinic.ID, o.owner)
	if err != nil {
		if errors.Is(err, patients.ErrInvalidIdentifier) || errors.Is(err, patients.ErrDeleted) {
			o.logger.Warn("patient not resolvable, record skipped",
				"category", category.String(), "te_id", rec.TeID, "reason", err)
			counts.Skipped++
			observe("skipped")
			return
		}
		o.logger.Error("patient resolution failed", "te_id", rec.TeID, "error", err)
		counts.Failed++
		observe("failed")
		return
	}

	date, ok := rec.IncomingDate(category)
	if !ok {
		o.logger.Warn("record has no usable date, skipped",
			"category", category.String(), "te_id", rec.TeID, "sequence", rec.Sequence)
		counts.Skipped++
		observe("skipped")
		return
	}

	key := visits.Key(rec.Sequence, patient.TeID)
	outcome, err := o.reconciler.Reconcile(ctx, key, patient.ID, clinic.ID, date, rec.Status)
	if err != nil {
		o.logger.Error("reconcile failed", "key", key, "error", err)
	}
	o.tally(outcome, counts)
	observe(string(outcome))

	// A terminal status reported together with a distinct follow-up date
	// opens the next appointment slot instead of mutating the closed visit.
	if rec.Status.Terminal() && !rec.NextTCB.IsZero() && !rec.NextTCB.Equal(visits.DateOnly(date)) {
		followUp, err := o.reconciler.CreateFollowUp(ctx, key, patient.ID, clinic.ID, rec.NextTCB)
		if err != nil {
			o.logger.Error("follow-up create failed", "key", key, "error", err)
		}
		o.tally(followUp, counts)
		observe("followup_" + string(followUp))
	}
}

func (o *Orchestrator) tally(outcome visits.Outcome, counts *VisitCounts) {
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

// ImportPatients imports facility-grouped patient registrations for a source
// tag. An unmapped facility skips that facility's records and counts one
// error; a malformed identifier skips just its record.
func (o *Orchestrator) ImportPatients(ctx context.Context, source string) (PatientCounts, error) {
	var counts PatientCounts

	start := time.Now()
	groups, err := o.patientSource.FetchPatientData(ctx, source)
	o.metrics.ObserveFetchLatency("patients", "all", time.Since(start).Seconds())
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		o.logger.Error("patient fetch failed, aborting batch", "source", source, "error", err)
		return counts, fmt.Errorf("importer: fetch patients for %s: %w", source, err)
	}

	for _, group := range groups {
		clinic, err := o.clinics.ResolveExternalName(ctx, group.Facility)
		if err != nil {
			o.logger.Warn("unmapped facility, patients skipped",
				"facility", group.Facility, "patients", len(group.Patients))
			counts.Errors++
			o.metrics.ObserveOutcome("patients", "all", "skipped")
			continue
		}
		for _, rec := range group.Patients {
			_, created, err := o.resolver.ResolveOrCreate(ctx, rec.TeID, rec.Cellphone, clinic.ID, o.owner)
			switch {
			case errors.Is(err, patients.ErrDeleted):
				// Soft-deleted patients stay deleted; not an error.
				o.metrics.ObserveOutcome("patients", "all", "skipped")
			case err != nil:
				o.logger.Warn("patient record rejected", "te_id", rec.TeID, "reason", err)
				counts.Errors++
				o.metrics.ObserveOutcome("patients", "all", "failed")
			case created:
				counts.Created++
				o.metrics.ObserveOutcome("patients", "all", "created")
			default:
				o.metrics.ObserveOutcome("patients", "all", "unchanged")
			}
		}
	}

	o.logger.Info("patient import finished",
		"source", source, "created", counts.Created, "errors", counts.Errors)
	return counts, nil
}
