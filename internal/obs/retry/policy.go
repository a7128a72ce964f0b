package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// PublishPolicy is used when relaying outbox messages to Kafka. Context
// cancellation is not retried.
func PublishPolicy(name string, log *zap.Logger) Policy {
	return Policy{
		Name:     name,
		Attempts: 5,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("publish retry", zap.String("policy", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("publish retries exhausted", zap.String("policy", name), zap.Error(err))
			}
		},
	}
}
