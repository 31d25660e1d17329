package census

import (
	"context"

	dErrors "census/pkg/domain-errors"
)

// ErrNotFound keeps store-level 404s consistent across in-memory and
// PostgreSQL implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "household record not found")

// RecordStore is the durable keyed storage for household records. Stores are
// interface-driven so the domain logic stays testable and persistence can be
// swapped without rewiring business code.
type RecordStore interface {
	Create(ctx context.Context, rec HouseholdRecord) error
	Get(ctx context.Context, id string) (HouseholdRecord, error)
	// List returns all records ordered by creation time descending.
	List(ctx context.Context) ([]HouseholdRecord, error)
	Update(ctx context.Context, rec HouseholdRecord) error
	Delete(ctx context.Context, id string) error
}

// SequenceAllocator issues household numbers. Next must be an atomic
// read-modify-write against the backing counter: it never returns the same
// value to two callers, even concurrent ones, and never reuses a number after
// a delete. Gaps are permitted when an issued number's record is never
// persisted.
type SequenceAllocator interface {
	Next(ctx context.Context) (int64, error)
}
