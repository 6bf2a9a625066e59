// Package reminders turns the day's scheduled visits into SMS messages.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/txtalert/platform/internal/gateway"
	"github.com/txtalert/platform/internal/observability/metrics"
	"github.com/txtalert/platform/pkg/logging"
)

// DueVisit is one scheduled visit joined with the patient's active msisdn.
// MSISDN is empty when the patient has no reachable phone.
type DueVisit struct {
	VisitID   uuid.UUID
	PatientID uuid.UUID
	MSISDN    string
	Clinic    string
	Date      time.Time
}

// VisitLister provides the scheduled visits falling on one calendar day.
type VisitLister interface {
	ListScheduledOn(ctx context.Context, day time.Time) ([]DueVisit, error)
}

// RecordSink persists the send records of dispatched reminders.
type RecordSink interface {
	SaveBatch(ctx context.Context, records []gateway.SendRecord) error
}

// Counts summarizes one reminder run.
type Counts struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Service sends appointment reminders for one day's scheduled visits.
type Service struct {
	lister  VisitLister
	gateway gateway.Gateway
	sink    RecordSink
	metrics *metrics.ImportMetrics
	logger  *logging.Logger
}

// Config wires a reminder Service. Sink and Metrics are optional.
type Config struct {
	Lister  VisitLister
	Gateway gateway.Gateway
	Sink    RecordSink
	Metrics *metrics.ImportMetrics
	Logger  *logging.Logger
}

func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		lister:  cfg.Lister,
		gateway: cfg.Gateway,
		sink:    cfg.Sink,
		metrics: cfg.Metrics,
		logger:  logger.Component("reminders"),
	}
}

// SendDue sends one SMS per scheduled visit on the given day. A patient
// without an active msisdn is skipped; a gateway failure fails that visit
// only and the run continues.
func (s *Service) SendDue(ctx context.Context, day time.Time) (Counts, error) {
	var counts Counts

	due, err := s.lister.ListScheduledOn(ctx, day)
	if err != nil {
		return counts, fmt.Errorf("reminders: list due visits: %w", err)
	}
	s.logger.Info("reminder run started", "day", day.Format(time.DateOnly), "due", len(due))

	for _, v := range due {
		if v.MSISDN == "" {
			s.logger.Info("no active msisdn, reminder skipped", "patient_id", v.PatientID)
			counts.Skipped++
			s.metrics.ObserveReminder("skipped")
			continue
		}

		records, err := s.gateway.Send(ctx, gateway.BulkMessage{
			MSISDNs: []string{v.MSISDN},
			Texts:   []string{messageFor(v)},
			Receipt: true,
		})
		if err != nil {
			s.logger.Error("reminder send failed", "visit_id", v.VisitID, "error", err)
			counts.Failed++
			s.metrics.ObserveReminder("failed")
			continue
		}
		if s.sink != nil {
			if err := s.sink.SaveBatch(ctx, records); err != nil {
				s.logger.Error("send record persist failed", "visit_id", v.VisitID, "error", err)
			}
		}
		counts.Sent++
		s.metrics.ObserveReminder("sent")
	}

	s.logger.Info("reminder run finished",
		"day", day.Format(time.DateOnly),
		"sent", counts.Sent,
		"skipped", counts.Skipped,
		"failed", counts.Failed,
	)
	return counts, nil
}

func messageFor(v DueVisit) string {
	return fmt.Sprintf("Please remember your appointment at %s on %s.",
		v.Clinic, v.Date.Format("Monday 2 January 2006"))
}
