package patients

import (
	"context"
	"errors"
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

// PostgresStore persists the patient registry in the relational database.
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetByTeID(ctx context.Context, teID string) (*Patient, error) {
	return s.get(ctx, teID, false)
}

func (s *PostgresStore) GetByTeIDAny(ctx context.Context, teID string) (*Patient, error) {
	return s.get(ctx, teID, true)
}

func (s *PostgresStore) get(ctx context.Context, teID string, includeDeleted bool) (*Patient, error) {
	query := `
		SELECT id, te_id, owner, COALESCE(active_msisdn, ''), last_clinic_id, deleted, created_at, updated_at
		FROM patients
		WHERE te_id = $1
	`
	if !includeDeleted {
		query += ` AND NOT deleted`
	}
	var (
		p          Patient
		lastClinic *uuid.UUID
	)
	err := s.pool.QueryRow(ctx, query, teID).Scan(
		&p.ID, &p.TeID, &p.Owner, &p.ActiveMSISDN, &lastClinic, &p.Deleted, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: get by te_id: %w", err)
	}
	if lastClinic != nil {
		p.LastClinicID = *lastClinic
	}

	rows, err := s.pool.Query(ctx, `SELECT msisdn FROM patient_msisdns WHERE patient_id = $1 ORDER BY msisdn`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("patients: list msisdns: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("patients: scan msisdn: %w", err)
		}
		p.MSISDNs = append(p.MSISDNs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: list msisdns: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `
		INSERT INTO patients (id, te_id, owner)
		VALUES ($1, $2, $3)
	`
	if _, err := s.pool.Exec(ctx, query, p.ID, p.TeID, p.Owner); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("patients: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) AttachMSISDN(ctx context.Context, patientID uuid.UUID, msisdn string) error {
	// MSISDN rows are append-only and shared; the same number may belong to
	// several patients.
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO msisdns (msisdn) VALUES ($1) ON CONFLICT (msisdn) DO NOTHING`, msisdn); err != nil {
		return fmt.Errorf("patients: upsert msisdn: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO patient_msisdns (patient_id, msisdn) VALUES ($1, $2) ON CONFLICT DO NOTHING`, patientID, msisdn); err != nil {
		return fmt.Errorf("patients: attach msisdn: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetActiveMSISDN(ctx context.Context, patientID uuid.UUID, msisdn string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE patients SET active_msisdn = $2, updated_at = now() WHERE id = $1`, patientID, msisdn)
	if err != nil {
		return fmt.Errorf("patients: set active msisdn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetLastClinic(ctx context.Context, patientID uuid.UUID, clinicID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE patients SET last_clinic_id = $2, updated_at = now() WHERE id = $1`, patientID, clinicID)
	if err != nil {
		return fmt.Errorf("patients: set last clinic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, patientID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE patients SET deleted = TRUE, updated_at = now() WHERE id = $1`, patientID)
	if err != nil {
		return fmt.Errorf("patients: soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
