package memorytest

import (
	"context"
	"sync"

	"github.com/NordCoder/Pushkeeper/internal/domain/notification"
)

type Notifications struct {
	faults
	mu     sync.Mutex
	nextID int64
	items  []*notification.Notification
}

var _ notification.Repo = (*Notifications)(nil)

func NewNotifications() *Notifications { return &Notifications{} }

func (r *Notifications) Create(_ context.Context, n *notification.Notification) error {
	if err := r.fault("Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	cp := *n
	r.items = append(r.items, &cp)
	return nil
}

// ListByUser returns newest first.
func (r *Notifications) ListByUser(_ context.Context, userID int64, limit int) ([]*notification.Notification, error) {
	if err := r.fault("ListByUser"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID != userID {
			continue
		}
		cp := *r.items[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
