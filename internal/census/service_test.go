package census_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"census/internal/census"
	memorystore "census/internal/census/store/memory"
	dErrors "census/pkg/domain-errors"
	"census/pkg/requestcontext"
)

type RecordServiceSuite struct {
	suite.Suite
	store   *memorystore.Store
	service *census.Service
}

func TestRecordServiceSuite(t *testing.T) {
	suite.Run(t, new(RecordServiceSuite))
}

func (s *RecordServiceSuite) SetupTest() {
	s.store = memorystore.NewStore()

	var err error
	s.service, err = census.NewService(s.store, memorystore.NewAllocator(), nil, nil, nil)
	s.Require().NoError(err)
}

func validPayload() census.HouseholdRecord {
	return census.HouseholdRecord{
		Address:               "Purok 5, San Isidro",
		Sitio:                 "Riverside",
		FamilyHeadName:        "Juan Dela Cruz",
		FamilyHeadAge:         45,
		FamilyHeadSex:         "Male",
		FamilyHeadCivilStatus: "Married",
		FamilyHeadOccupation:  "Farmer",
		FamilyHeadIncome:      "Below 5,000",
		FamilyHeadEducation:   "High school graduate",
		FamilyHeadSector:      census.SectorRegular,
		HouseholdMembers: []census.HouseholdMember{
			{Name: "Maria Dela Cruz", Relationship: "Spouse", Age: 40, Sex: "Female"},
		},
		HouseType:         "Concrete",
		WaterSource:       "Deep well",
		HasSeniorCitizen:  "No",
		HasDisabledMember: "No",
	}
}

func (s *RecordServiceSuite) TestNewService() {
	s.Run("nil store returns error", func() {
		_, err := census.NewService(nil, memorystore.NewAllocator(), nil, nil, nil)
		s.Error(err)
		s.Contains(err.Error(), "record store is required")
	})

	s.Run("nil allocator returns error", func() {
		_, err := census.NewService(s.store, nil, nil, nil, nil)
		s.Error(err)
		s.Contains(err.Error(), "sequence allocator is required")
	})
}

func (s *RecordServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("round trip preserves payload fields", func() {
		now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		created, err := s.service.Create(requestcontext.WithTime(ctx, now), validPayload())
		s.Require().NoError(err)

		s.NotEmpty(created.ID)
		s.Equal(int64(1), created.HouseholdNumber)
		s.Equal(now, created.CreatedAt)
		s.Equal(now, created.UpdatedAt)

		fetched, err := s.service.Get(ctx, created.ID)
		s.Require().NoError(err)

		want := validPayload()
		want.ID = created.ID
		want.HouseholdNumber = created.HouseholdNumber
		want.CreatedAt = created.CreatedAt
		want.UpdatedAt = created.UpdatedAt
		s.Equal(want, fetched)
	})

	s.Run("client supplied number and id are ignored", func() {
		payload := validPayload()
		payload.ID = "client-chosen"
		payload.HouseholdNumber = 999

		created, err := s.service.Create(ctx, payload)
		s.Require().NoError(err)
		s.NotEqual("client-chosen", created.ID)
		s.NotEqual(int64(999), created.HouseholdNumber)
	})

	s.Run("validation failure does not burn a number", func() {
		fresh := memorystore.NewStore()
		svc, err := census.NewService(fresh, memorystore.NewAllocator(), nil, nil, nil)
		s.Require().NoError(err)

		invalid := validPayload()
		invalid.Address = "  "
		_, err = svc.Create(ctx, invalid)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))

		created, err := svc.Create(ctx, validPayload())
		s.Require().NoError(err)
		s.Equal(int64(1), created.HouseholdNumber, "first successful create takes the first number")
	})

	s.Run("missing required member fields rejected", func() {
		payload := validPayload()
		payload.HouseholdMembers = append(payload.HouseholdMembers, census.HouseholdMember{Age: 5})
		_, err := s.service.Create(ctx, payload)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *RecordServiceSuite) TestConcurrentCreatesYieldDistinctNumbers() {
	const n = 64
	ctx := context.Background()

	var g errgroup.Group
	var mu sync.Mutex
	numbers := make(map[int64]struct{}, n)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			created, err := s.service.Create(ctx, validPayload())
			if err != nil {
				return err
			}
			mu.Lock()
			numbers[created.HouseholdNumber] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Len(numbers, n, "every create must draw a distinct number")
	for number := range numbers {
		s.GreaterOrEqual(number, int64(1))
	}
}

func (s *RecordServiceSuite) TestUpdate() {
	ctx := context.Background()
	created, err := s.service.Create(ctx, validPayload())
	s.Require().NoError(err)

	s.Run("merges only supplied fields", func() {
		occupation := "Fisherman"
		notes := "relocated within the sitio"
		later := created.UpdatedAt.Add(time.Hour)
		updated, err := s.service.Update(requestcontext.WithTime(ctx, later), created.ID, census.UpdateParams{
			FamilyHeadOccupation: &occupation,
			AdditionalNotes:      &notes,
		})
		s.Require().NoError(err)

		s.Equal("Fisherman", updated.FamilyHeadOccupation)
		s.Equal("relocated within the sitio", updated.AdditionalNotes)
		s.Equal(created.Address, updated.Address)
		s.Equal(created.HouseholdMembers, updated.HouseholdMembers)
		s.Equal(created.HouseholdNumber, updated.HouseholdNumber)
		s.Equal(created.CreatedAt, updated.CreatedAt)
		s.Equal(later, updated.UpdatedAt)
	})

	s.Run("replaces member list wholesale when supplied", func() {
		members := []census.HouseholdMember{
			{Name: "Pedro", Relationship: "Son", Age: 10},
		}
		updated, err := s.service.Update(ctx, created.ID, census.UpdateParams{HouseholdMembers: &members})
		s.Require().NoError(err)
		s.Equal(members, updated.HouseholdMembers)
	})

	s.Run("rejects merge that voids a required field", func() {
		empty := ""
		_, err := s.service.Update(ctx, created.ID, census.UpdateParams{Address: &empty})
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown id returns not found", func() {
		_, err := s.service.Update(ctx, "missing", census.UpdateParams{})
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *RecordServiceSuite) TestDelete() {
	ctx := context.Background()
	created, err := s.service.Create(ctx, validPayload())
	s.Require().NoError(err)

	s.Run("delete then get yields not found", func() {
		s.Require().NoError(s.service.Delete(ctx, created.ID))
		_, err := s.service.Get(ctx, created.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("deleted numbers are never reissued", func() {
		next, err := s.service.Create(ctx, validPayload())
		s.Require().NoError(err)
		s.Greater(next.HouseholdNumber, created.HouseholdNumber)
	})

	s.Run("unknown id returns not found", func() {
		err := s.service.Delete(ctx, "missing")
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

// flakyAllocator fails with a conflict a fixed number of times before
// delegating to the real allocator.
type flakyAllocator struct {
	inner    census.SequenceAllocator
	failures int
	mu       sync.Mutex
}

func (a *flakyAllocator) Next(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failures > 0 {
		a.failures--
		return 0, dErrors.New(dErrors.CodeConflict, "could not commit sequence increment")
	}
	return a.inner.Next(ctx)
}

func (s *RecordServiceSuite) TestAllocationRetry() {
	ctx := context.Background()

	s.Run("transient conflicts are retried", func() {
		alloc := &flakyAllocator{inner: memorystore.NewAllocator(), failures: 2}
		svc, err := census.NewService(memorystore.NewStore(), alloc, nil, nil, nil)
		s.Require().NoError(err)

		created, err := svc.Create(ctx, validPayload())
		s.Require().NoError(err)
		s.Equal(int64(1), created.HouseholdNumber)
	})

	s.Run("exhausted retries abandon the create", func() {
		alloc := &flakyAllocator{inner: memorystore.NewAllocator(), failures: 10}
		store := memorystore.NewStore()
		svc, err := census.NewService(store, alloc, nil, nil, nil)
		s.Require().NoError(err)

		_, err = svc.Create(ctx, validPayload())
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnavailable))

		records, err := store.List(ctx)
		s.Require().NoError(err)
		s.Empty(records, "no partial record may be persisted")
	})
}
