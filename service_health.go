package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// healthChecker is implemented by backends with a database behind them.
type healthChecker interface {
	Health(ctx context.Context) dbkit.HealthStatus
	Ping(ctx context.Context) error
}

// GetPoolStats returns connection pool statistics for monitoring.
// Returns zero values if the backend has no connection pool.
func (s *Service) GetPoolStats() dbkit.PoolStats {
	if ps, ok := s.store.(interface{ PoolStats() dbkit.PoolStats }); ok {
		return ps.PoolStats()
	}
	return dbkit.PoolStats{}
}

// Health reports the status of the backing store.
// In-process backends are always healthy.
func (s *Service) Health(ctx context.Context) dbkit.HealthStatus {
	if hc, ok := s.store.(healthChecker); ok {
		return hc.Health(ctx)
	}
	return dbkit.HealthStatus{Healthy: true}
}

// IsHealthy returns true if the backing store is reachable.
func (s *Service) IsHealthy(ctx context.Context) bool {
	return s.Health(ctx).Healthy
}

// Ping performs a basic connectivity test against the backing store.
func (s *Service) Ping(ctx context.Context) error {
	if hc, ok := s.store.(healthChecker); ok {
		return hc.Ping(ctx)
	}
	return ctx.Err()
}
