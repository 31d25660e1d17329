//go:build integration

package containers

import (
	"sync"
	"testing"
)

// Manager shares one container of each kind across integration suites so a
// test run pays the startup cost once. Ryuk reaps the containers when the
// test process exits.
type Manager struct {
	postgresOnce sync.Once
	postgres     *PostgresContainer

	redisOnce sync.Once
	redis     *RedisContainer
}

var manager = &Manager{}

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return manager
}

// GetPostgres returns the shared PostgreSQL container, starting it on first
// use.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	m.postgresOnce.Do(func() {
		m.postgres = NewPostgresContainer(t)
	})
	return m.postgres
}

// GetRedis returns the shared Redis container, starting it on first use.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	m.redisOnce.Do(func() {
		m.redis = NewRedisContainer(t)
	})
	return m.redis
}
