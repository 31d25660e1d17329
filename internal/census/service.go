package census

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"census/internal/platform/metrics"
	dErrors "census/pkg/domain-errors"
	"census/pkg/requestcontext"
)

// allocationAttempts bounds retries when the atomic increment loses a race or
// the unique household number collides mid-flight. After the last attempt the
// create is abandoned without persisting anything.
const allocationAttempts = 3

// Invalidator is notified after every successful mutation, so an external
// statistics cache can drop its snapshot. A nil Invalidator is valid.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service validates and normalizes household payloads, obtains numbers from
// the allocator, and delegates persistence to the record store.
type Service struct {
	store       RecordStore
	allocator   SequenceAllocator
	logger      *slog.Logger
	metrics     *metrics.Metrics
	invalidator Invalidator
}

// NewService wires the record service. Store and allocator are required;
// metrics and invalidator may be nil.
func NewService(store RecordStore, allocator SequenceAllocator, logger *slog.Logger, m *metrics.Metrics, inv Invalidator) (*Service, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if allocator == nil {
		return nil, errors.New("sequence allocator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		allocator:   allocator,
		logger:      logger,
		metrics:     m,
		invalidator: inv,
	}, nil
}

// Create validates the payload, allocates a household number, stamps the
// timestamps and persists the record. Validation runs before allocation so a
// rejected submission never consumes a number.
func (s *Service) Create(ctx context.Context, rec HouseholdRecord) (HouseholdRecord, error) {
	// Client-supplied identity and timestamps are ignored.
	rec.ID = ""
	rec.HouseholdNumber = 0

	if err := rec.Validate(); err != nil {
		return HouseholdRecord{}, err
	}
	if rec.HouseholdMembers == nil {
		rec.HouseholdMembers = []HouseholdMember{}
	}

	now := requestcontext.Now(ctx)
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	var lastErr error
	for attempt := 0; attempt < allocationAttempts; attempt++ {
		number, err := s.allocator.Next(ctx)
		if err != nil {
			lastErr = err
			if dErrors.Is(err, dErrors.CodeConflict) {
				if s.metrics != nil {
					s.metrics.AllocationConflicts.Inc()
				}
				continue
			}
			break
		}

		rec.HouseholdNumber = number
		if err := s.store.Create(ctx, rec); err != nil {
			lastErr = err
			if dErrors.Is(err, dErrors.CodeConflict) {
				// Number collision against the unique index; the gap stays,
				// the next attempt draws a fresh number.
				if s.metrics != nil {
					s.metrics.AllocationConflicts.Inc()
				}
				continue
			}
			break
		}

		if s.metrics != nil {
			s.metrics.RecordsCreated.Inc()
		}
		s.invalidate(ctx)
		s.logger.InfoContext(ctx, "household record created",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", rec.ID,
			"household_number", rec.HouseholdNumber,
		)
		return rec, nil
	}

	s.logger.ErrorContext(ctx, "household record create failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", lastErr,
	)
	if dErrors.Is(lastErr, dErrors.CodeConflict) {
		return HouseholdRecord{}, dErrors.Wrap(dErrors.CodeUnavailable, "could not allocate household number", lastErr)
	}
	return HouseholdRecord{}, lastErr
}

// Get returns a single record by its store-assigned id.
func (s *Service) Get(ctx context.Context, id string) (HouseholdRecord, error) {
	return s.store.Get(ctx, id)
}

// List returns all records, newest first.
func (s *Service) List(ctx context.Context) ([]HouseholdRecord, error) {
	return s.store.List(ctx)
}

// Update merges the supplied fields into an existing record. The household
// number is immutable regardless of the request body; updatedAt is refreshed
// from the request clock.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (HouseholdRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return HouseholdRecord{}, err
	}

	params.Apply(&rec)
	if err := rec.Validate(); err != nil {
		return HouseholdRecord{}, err
	}
	rec.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, rec); err != nil {
		return HouseholdRecord{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordsUpdated.Inc()
	}
	s.invalidate(ctx)
	return rec, nil
}

// Delete removes a record. The record's household number is never reissued.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordsDeleted.Inc()
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}
