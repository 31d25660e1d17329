package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RecordsCreated      prometheus.Counter
	RecordsUpdated      prometheus.Counter
	RecordsDeleted      prometheus.Counter
	AllocationConflicts prometheus.Counter
	StatsComputeSeconds prometheus.Histogram
	StatsCacheHits      prometheus.Counter
	StatsCacheMisses    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RecordsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "census_records_created_total",
			Help: "Total number of household records created",
		}),
		RecordsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "census_records_updated_total",
			Help: "Total number of household records updated",
		}),
		RecordsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "census_records_deleted_total",
			Help: "Total number of household records deleted",
		}),
		AllocationConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "census_sequence_allocation_conflicts_total",
			Help: "Total number of household number allocations that failed to commit",
		}),
		StatsComputeSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "census_stats_compute_seconds",
			Help:    "Duration of full statistics recomputation",
			Buckets: prometheus.DefBuckets,
		}),
		StatsCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "census_stats_cache_hits_total",
			Help: "Statistics requests served from the snapshot cache",
		}),
		StatsCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "census_stats_cache_misses_total",
			Help: "Statistics requests that required a full recompute",
		}),
	}
}
