package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from its environment.
type Config struct {
	Addr string

	// PostgresURL selects the durable record store. When empty the server
	// runs on the in-memory store, which is enough for local development.
	PostgresURL string

	// RedisURL enables the Redis-backed statistics cache and, when
	// CENSUS_SEQUENCE_BACKEND=redis, the Redis sequence allocator.
	RedisURL        string
	SequenceBackend string

	StatsCacheTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("CENSUS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	ttl := 30 * time.Second
	if raw := os.Getenv("CENSUS_STATS_CACHE_TTL"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	return Config{
		Addr:            addr,
		PostgresURL:     os.Getenv("CENSUS_POSTGRES_URL"),
		RedisURL:        os.Getenv("CENSUS_REDIS_URL"),
		SequenceBackend: os.Getenv("CENSUS_SEQUENCE_BACKEND"),
		StatsCacheTTL:   ttl,
	}
}
