//go:build integration

package sequence_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"census/internal/census/sequence"
	"census/pkg/testutil/containers"
)

type RedisAllocatorSuite struct {
	suite.Suite
	redis     *containers.RedisContainer
	allocator *sequence.RedisAllocator
}

func TestRedisAllocatorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisAllocatorSuite))
}

func (s *RedisAllocatorSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.allocator = sequence.NewRedis(s.redis.Client)
}

func (s *RedisAllocatorSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisAllocatorSuite) TestNextStartsAtOne() {
	n, err := s.allocator.Next(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *RedisAllocatorSuite) TestConcurrentNextIsUnique() {
	ctx := context.Background()
	const goroutines = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]struct{}, goroutines)
	errs := make([]error, 0)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.allocator.Next(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			seen[n] = struct{}{}
		}()
	}
	wg.Wait()

	s.Require().Empty(errs)
	s.Len(seen, goroutines)
}
