package visits

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// PostgresStore persists visits in the relational database.
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("visits: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetByKey(ctx context.Context, key string) (*Visit, error) {
	query := `
		SELECT id, visit_key, patient_id, clinic_id, date, status, created_at, updated_at
		FROM visits
		WHERE visit_key = $1
	`
	var v Visit
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&v.ID, &v.Key, &v.PatientID, &v.ClinicID, &v.Date, &v.Status, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("visits: get by key: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	query := `
		INSERT INTO visits (id, visit_key, patient_id, clinic_id, date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.pool.Exec(ctx, query, v.ID, v.Key, v.PatientID, v.ClinicID, DateOnly(v.Date), v.Status); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("visits: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, date time.Time) error {
	query := `
		UPDATE visits
		SET status = $2, date = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, status, DateOnly(date))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("visits: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ExistsForDate(ctx context.Context, patientID uuid.UUID, date time.Time) (bool, error) {
	query := `SELECT 1 FROM visits WHERE patient_id = $1 AND date = $2 LIMIT 1`
	var one int
	err := s.pool.QueryRow(ctx, query, patientID, DateOnly(date)).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("visits: exists for date: %w", err)
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
