package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the lister needs; pgxmock satisfies
// it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLister loads due visits by joining visits against patients and
// clinics. Soft-deleted patients never receive reminders.
type PostgresLister struct {
	pool PgxPool
}

func NewPostgresLister(pool PgxPool) *PostgresLister {
	if pool == nil {
		panic("reminders: pgx pool required")
	}
	return &PostgresLister{pool: pool}
}

func (l *PostgresLister) ListScheduledOn(ctx context.Context, day time.Time) ([]DueVisit, error) {
	query := `
		SELECT v.id, v.patient_id, COALESCE(p.active_msisdn, ''), c.name, v.date
		FROM visits v
		JOIN patients p ON p.id = v.patient_id
		JOIN clinics c ON c.id = v.clinic_id
		WHERE v.status = 's' AND v.date = $1 AND NOT p.deleted
		ORDER BY v.date, v.id
	`
	rows, err := l.pool.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("reminders: query due visits: %w", err)
	}
	defer rows.Close()

	var due []DueVisit
	for rows.Next() {
		var v DueVisit
		if err := rows.Scan(&v.VisitID, &v.PatientID, &v.MSISDN, &v.Clinic, &v.Date); err != nil {
			return nil, fmt.Errorf("reminders: scan due visit: %w", err)
		}
		due = append(due, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reminders: iterate due visits: %w", err)
	}
	return due, nil
}
