// Package postgres persists household records and the number sequence in
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"census/internal/census"
	dErrors "census/pkg/domain-errors"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// Store keeps each record as a JSONB document alongside the columns needed
// for constraints and ordering: the unique household number and the creation
// timestamp.
type Store struct {
	db *sql.DB
}

// NewStore creates a PostgreSQL-backed record store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, rec census.HouseholdRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal household record: %w", err)
	}

	query := `
		INSERT INTO household_records (id, household_number, record, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query, rec.ID, rec.HouseholdNumber, payload, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return dErrors.Wrap(dErrors.CodeConflict, "household number already taken", err)
		}
		return dErrors.Wrap(dErrors.CodeUnavailable, "record store unavailable", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (census.HouseholdRecord, error) {
	var payload []byte
	query := `SELECT record FROM household_records WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return census.HouseholdRecord{}, census.ErrNotFound
		}
		return census.HouseholdRecord{}, dErrors.Wrap(dErrors.CodeUnavailable, "record store unavailable", err)
	}
	return unmarshalRecord(payload)
}

func (s *Store) List(ctx context.Context) ([]census.HouseholdRecord, error) {
	query := `
		SELECT record FROM household_records
		ORDER BY created_at DESC, household_number DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "record store unavailable", err)
	}
	defer rows.Close()

	records := []census.HouseholdRecord{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeUnavailable, "record store unavailable", err)
		}
		rec, err := unmarshalRecord(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "record store unavailable", err)
	}
	return records, nil
}

func (s *Store) Update(ctx context.Context, rec census.HouseholdRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal household record: %w", err)
	}

	query := `
		UPDATE household_records
		SET record = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, rec.ID, payload, rec.UpdatedAt)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "record store unavailable", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "record store unavailable", err)
	}
	if affected == 0 {
		return census.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM household_records WHERE id = $1`, id)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "record store unavailable", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "record store unavailable", err)
	}
	if affected == 0 {
		return census.ErrNotFound
	}
	return nil
}

func unmarshalRecord(payload []byte) (census.HouseholdRecord, error) {
	var rec census.HouseholdRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return census.HouseholdRecord{}, fmt.Errorf("unmarshal household record: %w", err)
	}
	return rec, nil
}

// Allocator issues household numbers from the singleton sequence row. The
// upsert is a single statement, so the read-increment-write cannot interleave
// with another caller's.
type Allocator struct {
	db *sql.DB
}

// NewAllocator creates a PostgreSQL-backed sequence allocator.
func NewAllocator(db *sql.DB) *Allocator {
	return &Allocator{db: db}
}

func (a *Allocator) Next(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO household_sequence (id, last_value)
		VALUES (1, 1)
		ON CONFLICT (id) DO UPDATE SET last_value = household_sequence.last_value + 1
		RETURNING last_value
	`
	var next int64
	if err := a.db.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, dErrors.Wrap(dErrors.CodeConflict, "could not commit sequence increment", err)
	}
	return next, nil
}
