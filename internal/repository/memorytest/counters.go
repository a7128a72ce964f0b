package memorytest

import (
	"context"
	"sync"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain"
	"github.com/NordCoder/Pushkeeper/internal/domain/counter"
)

type counterKey struct {
	userID int64
	day    counter.Day
}

type Counters struct {
	faults
	mu     sync.Mutex
	nextID int64
	rows   map[counterKey]*counter.Counter
}

var _ counter.Repo = (*Counters)(nil)

func NewCounters() *Counters {
	return &Counters{rows: map[counterKey]*counter.Counter{}}
}

func (r *Counters) IncrementOrCreate(_ context.Context, userID int64, day counter.Day) (*counter.Counter, error) {
	if err := r.fault("IncrementOrCreate"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	k := counterKey{userID, day}
	c, ok := r.rows[k]
	if !ok {
		r.nextID++
		c = &counter.Counter{ID: r.nextID, UserID: userID, Day: day, CreatedAt: now}
		r.rows[k] = c
	}
	c.PushCount++
	c.UpdatedAt = now
	cp := *c
	return &cp, nil
}

func (r *Counters) ListByDay(_ context.Context, day counter.Day, userIDs []int64) ([]*counter.Counter, error) {
	if err := r.fault("ListByDay"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*counter.Counter, 0, len(userIDs))
	for _, id := range userIDs {
		if c, ok := r.rows[counterKey{id, day}]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Counters) MarkJobDone(_ context.Context, counterID int64) (bool, error) {
	if err := r.fault("MarkJobDone"); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.ID != counterID {
			continue
		}
		if c.JobDone {
			return false, nil
		}
		c.JobDone = true
		c.UpdatedAt = time.Now()
		return true, nil
	}
	return false, domain.ErrNotFound
}

// Get returns a copy of the (user, day) row, or nil.
func (r *Counters) Get(userID int64, day counter.Day) *counter.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[counterKey{userID, day}]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// Set overwrites the (user, day) row. Test seeding helper.
func (r *Counters) Set(userID int64, day counter.Day, pushCount int, jobDone bool) *counter.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := counterKey{userID, day}
	c, ok := r.rows[k]
	if !ok {
		r.nextID++
		c = &counter.Counter{ID: r.nextID, UserID: userID, Day: day, CreatedAt: time.Now()}
		r.rows[k] = c
	}
	c.PushCount = pushCount
	c.JobDone = jobDone
	cp := *c
	return &cp
}

func (r *Counters) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}
