package counter

import "context"

type Repo interface {
	// IncrementOrCreate atomically inserts the (user, day) row with push_count=1
	// or increments the existing one, in a single store operation.
	IncrementOrCreate(ctx context.Context, userID int64, day Day) (*Counter, error)
	ListByDay(ctx context.Context, day Day, userIDs []int64) ([]*Counter, error)
	// MarkJobDone sets the latch and reports whether this call flipped it.
	MarkJobDone(ctx context.Context, counterID int64) (bool, error)
}
