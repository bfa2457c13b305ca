package tokenstore

import (
	"context"

	bolt "go.etcd.io/bbolt"

	"github.com/consultdesk/apiclient/observability"
)

const healthName = "tokenstore"

// CheckHealth reports whether the in-memory store is still open.
func (m *Memory) CheckHealth(_ context.Context) observability.Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := observability.Health{Name: healthName, Status: observability.HealthStatusUp,
		Details: map[string]string{"driver": DriverMemory}}
	if m.closed {
		h.Status = observability.HealthStatusDown
		h.Message = ErrClosed.Error()
	}
	return h
}

// CheckHealth pings Redis.
func (r *Redis) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: healthName, Status: observability.HealthStatusUp,
		Details: map[string]string{"driver": DriverRedis, "addr": r.rdb.Options().Addr}}
	if err := r.Ping(ctx); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}

// CheckHealth runs a read-only transaction against the bucket.
func (b *Bolt) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{Name: healthName, Status: observability.HealthStatusUp,
		Details: map[string]string{"driver": DriverBolt, "path": b.db.Path()}}
	err := b.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(b.bucket) == nil {
			return errBucketMissing
		}
		return nil
	})
	if err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}
