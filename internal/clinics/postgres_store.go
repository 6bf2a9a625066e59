package clinics

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists clinics and the external-name mapping table.
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("clinics: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ResolveExternalName(ctx context.Context, externalName string) (*Clinic, error) {
	query := `
		SELECT c.id, c.name, c.created_at
		FROM clinic_name_mappings m
		JOIN clinics c ON c.id = m.clinic_id
		WHERE m.external_name = $1
	`
	var c Clinic
	err := s.pool.QueryRow(ctx, query, externalName).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnmapped
		}
		return nil, fmt.Errorf("clinics: resolve external name: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) GetOrCreateByName(ctx context.Context, name string) (*Clinic, error) {
	query := `
		INSERT INTO clinics (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`
	var c Clinic
	if err := s.pool.QueryRow(ctx, query, uuid.New(), name).Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("clinics: get or create: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) AddMapping(ctx context.Context, externalName string, clinicID uuid.UUID) error {
	query := `
		INSERT INTO clinic_name_mappings (external_name, clinic_id)
		VALUES ($1, $2)
		ON CONFLICT (external_name) DO UPDATE SET clinic_id = EXCLUDED.clinic_id
	`
	if _, err := s.pool.Exec(ctx, query, externalName, clinicID); err != nil {
		return fmt.Errorf("clinics: add mapping: %w", err)
	}
	return nil
}
