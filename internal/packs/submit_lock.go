package packs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/packlane/packlane-backend/pkg/redis"
)

// SubmitLock serializes cart submissions per session with a Redis SETNX
// lease. The TTL bounds how long a crashed submit can block the session.
type SubmitLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSubmitLock builds the lock over the shared Redis client.
func NewSubmitLock(client *redis.Client, ttl time.Duration) (*SubmitLock, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}
	return &SubmitLock{client: client, ttl: ttl}, nil
}

// Acquire attempts to take the submission lease for the session.
func (l *SubmitLock) Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	return l.client.SetNX(ctx, l.client.SubmitLockKey(sessionID.String()), "1", l.ttl)
}

// Release drops the lease. Safe to call when the lease already expired.
func (l *SubmitLock) Release(ctx context.Context, sessionID uuid.UUID) error {
	return l.client.Del(ctx, l.client.SubmitLockKey(sessionID.String()))
}
