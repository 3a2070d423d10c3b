package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates conversation access across replicas.
// The in-process lock manager serializes dispatches within one process;
// deployments running more than one replica add a locker on top.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is canceled.
	// The returned UnlockFunc must be called to release it; the TTL bounds
	// how long a crashed holder can wedge the key.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
