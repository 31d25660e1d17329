//go:build integration

package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"census/internal/census"
	memorystore "census/internal/census/store/memory"
	"census/internal/stats"
	"census/pkg/testutil/containers"
)

type StatsCacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	store   *memorystore.Store
	service *stats.Service
}

func TestStatsCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StatsCacheSuite))
}

func (s *StatsCacheSuite) SetupTest() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.Require().NoError(s.redis.FlushAll(context.Background()))

	s.store = memorystore.NewStore()
	var err error
	s.service, err = stats.NewService(s.store, nil, nil, s.redis.Client, time.Minute)
	s.Require().NoError(err)
}

func (s *StatsCacheSuite) seed(id, sector string) {
	now := time.Now()
	s.Require().NoError(s.store.Create(context.Background(), census.HouseholdRecord{
		ID:                    id,
		Address:               "Purok 1",
		FamilyHeadName:        "Juan",
		FamilyHeadAge:         40,
		FamilyHeadSex:         "Male",
		FamilyHeadCivilStatus: "Married",
		FamilyHeadSector:      sector,
		CreatedAt:             now,
		UpdatedAt:             now,
	}))
}

func (s *StatsCacheSuite) TestSnapshotIsCachedUntilInvalidated() {
	ctx := context.Background()
	s.seed("a", census.SectorPWD)

	snap, err := s.service.Snapshot(ctx)
	s.Require().NoError(err)
	s.Equal(1, snap.Households)

	// A write that bypasses the record service is invisible while the cached
	// snapshot is fresh.
	s.seed("b", census.SectorPregnant)
	snap, err = s.service.Snapshot(ctx)
	s.Require().NoError(err)
	s.Equal(1, snap.Households, "stale snapshot served from cache")

	s.service.Invalidate(ctx)
	snap, err = s.service.Snapshot(ctx)
	s.Require().NoError(err)
	s.Equal(2, snap.Households)
	s.Equal(1, snap.Pregnant)
}
