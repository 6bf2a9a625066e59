package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists send records for receipt correlation and auditing.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("gateway: pgx pool required")
	}
	return &Store{pool: pool}
}

// SaveBatch records every send of one dispatched batch.
func (s *Store) SaveBatch(ctx context.Context, records []SendRecord) error {
	query := `
		INSERT INTO sms_sends (id, msisdn, text, delivery, expiry, priority, receipt, identifier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, r := range records {
		id := r.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := s.pool.Exec(ctx, query,
			id, r.MSISDN, r.Text, r.Delivery, r.Expiry, r.Priority, r.Receipt, r.Identifier)
		if err != nil {
			return fmt.Errorf("gateway: save send record: %w", err)
		}
	}
	return nil
}

// ListByIdentifier returns the sends of one provider batch.
func (s *Store) ListByIdentifier(ctx context.Context, identifier string) ([]SendRecord, error) {
	query := `
		SELECT id, msisdn, text, delivery, expiry, priority, receipt, identifier, created_at
		FROM sms_sends
		WHERE identifier = $1
		ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, identifier)
	if err != nil {
		return nil, fmt.Errorf("gateway: list sends: %w", err)
	}
	defer rows.Close()

	var records []SendRecord
	for rows.Next() {
		var r SendRecord
		if err := rows.Scan(&r.ID, &r.MSISDN, &r.Text, &r.Delivery, &r.Expiry,
			&r.Priority, &r.Receipt, &r.Identifier, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("gateway: scan send record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gateway: iterate sends: %w", err)
	}
	return records, nil
}
