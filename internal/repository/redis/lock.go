package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLock is a single-holder lease shared by every process that can start a sweep.
type SweepLock struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

func NewSweepLock(rdb redis.UniversalClient, prefix string, ttl time.Duration) *SweepLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &SweepLock{rdb: rdb, key: key(prefix, "sweep", "lock"), ttl: ttl}
}

// TryAcquire returns ok=false when another holder owns the lease. The returned
// release func only deletes the lease if it still belongs to this caller.
func (l *SweepLock) TryAcquire(ctx context.Context) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("release sweep lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}
