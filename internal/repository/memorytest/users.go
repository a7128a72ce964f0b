package memorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain"
	"github.com/NordCoder/Pushkeeper/internal/domain/user"
)

type Users struct {
	faults
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*user.User
	clk    func() time.Time
}

var _ user.Repo = (*Users)(nil)

func NewUsers() *Users {
	return &Users{byID: map[int64]*user.User{}, clk: time.Now}
}

func clone(u *user.User) *user.User {
	cp := *u
	if u.AnnoyTime != nil {
		v := *u.AnnoyTime
		cp.AnnoyTime = &v
	}
	if u.NotificationEndpoint != nil {
		v := *u.NotificationEndpoint
		cp.NotificationEndpoint = &v
	}
	return &cp
}

func (r *Users) GetByID(_ context.Context, id int64) (*user.User, error) {
	if err := r.fault("GetByID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(u), nil
}

func (r *Users) GetByExternalID(_ context.Context, externalID string) (*user.User, error) {
	if err := r.fault("GetByExternalID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.ExternalID == externalID {
			return clone(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Users) Upsert(_ context.Context, u *user.User) error {
	if err := r.fault("Upsert"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clk()
	for _, cur := range r.byID {
		if cur.ExternalID == u.ExternalID {
			cur.DisplayName = u.DisplayName
			cur.UpdatedAt = now
			*u = *clone(cur)
			return nil
		}
	}
	r.nextID++
	stored := &user.User{
		ID:          r.nextID,
		ExternalID:  u.ExternalID,
		DisplayName: u.DisplayName,
		PushGoal:    u.PushGoal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if stored.PushGoal <= 0 {
		stored.PushGoal = user.DefaultPushGoal
	}
	r.byID[stored.ID] = stored
	*u = *clone(stored)
	return nil
}

// Put stores u as-is, assigning an id when it has none. Test seeding helper.
func (r *Users) Put(u *user.User) *user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	} else if u.ID > r.nextID {
		r.nextID = u.ID
	}
	if u.PushGoal <= 0 {
		u.PushGoal = user.DefaultPushGoal
	}
	r.byID[u.ID] = clone(u)
	return u
}

func (r *Users) UpdateSettings(_ context.Context, id int64, s user.Settings) (*user.User, error) {
	if err := r.fault("UpdateSettings"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.PushGoal != nil {
		u.PushGoal = *s.PushGoal
	}
	if s.AnnoyTime != nil {
		u.AnnoyTime = nilIfEmpty(*s.AnnoyTime)
	}
	if s.NotificationEndpoint != nil {
		u.NotificationEndpoint = nilIfEmpty(*s.NotificationEndpoint)
	}
	u.UpdatedAt = r.clk()
	return clone(u), nil
}

func (r *Users) ListDueForNotification(_ context.Context, now string) ([]*user.User, error) {
	if err := r.fault("ListDueForNotification"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	for _, u := range r.byID {
		if u.NotificationEndpoint == nil || u.AnnoyTime == nil || *u.AnnoyTime > now {
			continue
		}
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
