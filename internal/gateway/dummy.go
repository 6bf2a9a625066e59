package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dummy is an in-memory Gateway for tests and local development. Every batch
// gets a random identifier and the records are kept for inspection.
type Dummy struct {
	mu   sync.Mutex
	sent []SendRecord
	now  func() time.Time
}

func NewDummy() *Dummy {
	return &Dummy{now: time.Now}
}

var _ Gateway = (*Dummy)(nil)

func (d *Dummy) Send(ctx context.Context, msg BulkMessage) ([]SendRecord, error) {
	if err := msg.normalize(d.now()); err != nil {
		return nil, err
	}

	identifier := randomIdentifier()
	records := make([]SendRecord, 0, len(msg.MSISDNs))
	for i, msisdn := range msg.MSISDNs {
		records = append(records, SendRecord{
			ID:         uuid.New(),
			MSISDN:     msisdn,
			Text:       msg.textFor(i),
			Delivery:   msg.Delivery,
			Expiry:     msg.Expiry,
			Priority:   msg.Priority,
			Receipt:    msg.Receipt,
			Identifier: identifier,
			CreatedAt:  d.now(),
		})
	}

	d.mu.Lock()
	d.sent = append(d.sent, records...)
	d.mu.Unlock()
	return records, nil
}

// Sent returns a copy of every record handed off so far.
func (d *Dummy) Sent() []SendRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]SendRecord, len(d.sent))
	copy(out, d.sent)
	return out
}

func randomIdentifier() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
