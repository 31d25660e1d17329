package stats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"census/internal/census"
	"census/internal/platform/metrics"
	dErrors "census/pkg/domain-errors"
	"census/pkg/requestcontext"
)

const cacheKey = "census:stats_snapshot"

// Service reads the full record set and computes a statistics snapshot. When
// a Redis client is configured it caches the marshalled snapshot for a short
// TTL; correctness never depends on the cache, the compute path is always a
// full rescan.
type Service struct {
	store   census.RecordStore
	logger  *slog.Logger
	metrics *metrics.Metrics

	cache    *redis.Client
	cacheTTL time.Duration
}

// NewService wires the statistics service. The cache client may be nil.
func NewService(store census.RecordStore, logger *slog.Logger, m *metrics.Metrics, cache *redis.Client, cacheTTL time.Duration) (*Service, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		logger:   logger,
		metrics:  m,
		cache:    cache,
		cacheTTL: cacheTTL,
	}, nil
}

// Snapshot returns the current statistics, from cache when fresh, otherwise
// recomputed from a full scan. A failed scan fails the whole request; partial
// statistics are never returned.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	if snap, ok := s.fromCache(ctx); ok {
		return snap, nil
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return Snapshot{}, dErrors.Wrap(dErrors.CodeUnavailable, "could not load records for statistics", err)
	}

	start := time.Now()
	snap := Compute(records)
	if s.metrics != nil {
		s.metrics.StatsComputeSeconds.Observe(time.Since(start).Seconds())
	}

	s.toCache(ctx, snap)
	return snap, nil
}

// Invalidate drops the cached snapshot. Called by the record service after
// every successful mutation.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.WarnContext(ctx, "stats cache invalidation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}

func (s *Service) fromCache(ctx context.Context) (Snapshot, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return Snapshot{}, false
	}
	payload, err := s.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "stats cache read failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		if s.metrics != nil {
			s.metrics.StatsCacheMisses.Inc()
		}
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		if s.metrics != nil {
			s.metrics.StatsCacheMisses.Inc()
		}
		return Snapshot{}, false
	}
	if s.metrics != nil {
		s.metrics.StatsCacheHits.Inc()
	}
	return snap, true
}

func (s *Service) toCache(ctx context.Context, snap Snapshot) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "stats cache write failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}
