package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// GitHub retries a delivery with the same X-GitHub-Delivery id; remembering ids
// for a day keeps redeliveries from being counted twice.
const deliveryTTL = 24 * time.Hour

type Deliveries struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewDeliveries(rdb redis.UniversalClient, prefix string) *Deliveries {
	return &Deliveries{rdb: rdb, prefix: prefix, ttl: deliveryTTL}
}

// Mark records the delivery id and reports whether it was seen for the first time.
func (d *Deliveries) Mark(ctx context.Context, deliveryID string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, key(d.prefix, "delivery", deliveryID), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark delivery: %w", err)
	}
	return ok, nil
}

// Release forgets a delivery id so a redelivery is processed again.
func (d *Deliveries) Release(ctx context.Context, deliveryID string) error {
	if err := d.rdb.Del(ctx, key(d.prefix, "delivery", deliveryID)).Err(); err != nil {
		return fmt.Errorf("release delivery: %w", err)
	}
	return nil
}
