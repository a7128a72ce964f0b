package memorytest

import (
	"context"
	"sync"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain/outbox"
)

// Outbox keeps messages in insertion order. Enqueue of an existing key is a
// no-op, like the ON CONFLICT DO NOTHING insert.
type Outbox struct {
	faults
	mu   sync.Mutex
	msgs []outbox.Message
}

var _ outbox.Repository = (*Outbox)(nil)

func NewOutbox() *Outbox { return &Outbox{} }

func (r *Outbox) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	if err := r.fault("Enqueue"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.IdempotencyKey == key {
			return nil
		}
	}
	now := time.Now()
	r.msgs = append(r.msgs, outbox.Message{
		IdempotencyKey: key, Kind: kind, Data: data,
		Status: outbox.StatusCreated, CreatedAt: now, UpdatedAt: now,
	})
	return nil
}

func (r *Outbox) PickBatch(_ context.Context, batch int, inProgressTTL time.Duration) ([]outbox.Message, error) {
	if err := r.fault("PickBatch"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var out []outbox.Message
	for i := range r.msgs {
		if len(out) == batch {
			break
		}
		m := &r.msgs[i]
		stale := m.Status == outbox.StatusInProgress && now.Sub(m.UpdatedAt) >= inProgressTTL
		if m.Status != outbox.StatusCreated && !stale {
			continue
		}
		m.Status = outbox.StatusInProgress
		m.UpdatedAt = now
		out = append(out, *m)
	}
	return out, nil
}

func (r *Outbox) MarkSuccess(_ context.Context, keys []string) error {
	if err := r.fault("MarkSuccess"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	for i := range r.msgs {
		if _, ok := set[r.msgs[i].IdempotencyKey]; ok {
			r.msgs[i].Status = outbox.StatusSuccess
			r.msgs[i].UpdatedAt = time.Now()
		}
	}
	return nil
}

// Messages returns a snapshot of every stored message.
func (r *Outbox) Messages() []outbox.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outbox.Message(nil), r.msgs...)
}

// Tx runs fn directly; the in-memory stores have no transactions.
type Tx struct{}

func (Tx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
