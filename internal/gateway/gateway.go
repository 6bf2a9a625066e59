// Package gateway sends SMS messages through an upstream bulk-messaging
// provider and records every send for receipt correlation.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultPriority is the provider's standard delivery class.
const DefaultPriority = "standard"

// BulkMessage is one batch send. Texts is either a single text broadcast to
// every msisdn, or one text per msisdn in the same order.
type BulkMessage struct {
	MSISDNs  []string
	Texts    []string
	Delivery time.Time
	Expiry   time.Time
	Priority string
	Receipt  bool
}

// normalize fills the provider defaults: delivery now, expiry a day after
// delivery, standard priority.
func (m *BulkMessage) normalize(now time.Time) error {
	if len(m.MSISDNs) == 0 {
		return errors.New("gateway: at least one msisdn required")
	}
	if len(m.Texts) == 0 {
		return errors.New("gateway: at least one text required")
	}
	if len(m.Texts) != 1 && len(m.Texts) != len(m.MSISDNs) {
		return errors.New("gateway: texts must be one broadcast text or one per msisdn")
	}
	if m.Delivery.IsZero() {
		m.Delivery = now
	}
	if m.Expiry.IsZero() {
		m.Expiry = m.Delivery.Add(24 * time.Hour)
	}
	if m.Priority == "" {
		m.Priority = DefaultPriority
	}
	return nil
}

// textFor returns the text addressed to MSISDNs[i].
func (m *BulkMessage) textFor(i int) string {
	if len(m.Texts) == 1 {
		return m.Texts[0]
	}
	return m.Texts[i]
}

// SendRecord is the persisted trace of one SMS handed to the provider.
// Identifier is the provider's batch reference used to correlate receipts.
type SendRecord struct {
	ID         uuid.UUID
	MSISDN     string
	Text       string
	Delivery   time.Time
	Expiry     time.Time
	Priority   string
	Receipt    bool
	Identifier string
	CreatedAt  time.Time
}

// Gateway dispatches one bulk message and reports what was handed off.
type Gateway interface {
	Send(ctx context.Context, msg BulkMessage) ([]SendRecord, error)
}
