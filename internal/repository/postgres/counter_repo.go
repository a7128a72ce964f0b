package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Pushkeeper/internal/domain/counter"
	"github.com/jackc/pgx/v5"
)

var _ counter.Repo = (*CounterRepo)(nil)

type CounterRepo struct{ db *DB }

func NewCounterRepo(db *DB) *CounterRepo { return &CounterRepo{db: db} }

const counterColumns = `id, user_id, to_char(day, 'YYYY-MM-DD'), push_count, is_job_done, created_at, updated_at`

const (
	// Single statement: concurrent deliveries serialize on the (user_id, day)
	// unique index, so no increment is lost.
	qCounterIncrement = `
INSERT INTO daily_counters (user_id, day, push_count)
VALUES ($1, $2::date, 1)
ON CONFLICT (user_id, day) DO UPDATE
SET push_count = daily_counters.push_count + 1,
    updated_at = NOW()
RETURNING ` + counterColumns + `;`

	qCountersByDay = `
SELECT ` + counterColumns + `
FROM daily_counters
WHERE day = $1::date AND user_id = ANY($2);`

	qCounterMarkDone = `
UPDATE daily_counters
SET is_job_done = TRUE,
    updated_at  = NOW()
WHERE id = $1 AND is_job_done = FALSE;`
)

func (r *CounterRepo) IncrementOrCreate(ctx context.Context, userID int64, day counter.Day) (*counter.Counter, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var c counter.Counter
	if err := scanCounter(r.db.execQueryer(ctx).QueryRow(ctx, qCounterIncrement, userID, string(day)), &c); err != nil {
		return nil, fmt.Errorf("increment counter: %w", err)
	}
	return &c, nil
}

func (r *CounterRepo) ListByDay(ctx context.Context, day counter.Day, userIDs []int64) ([]*counter.Counter, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qCountersByDay, string(day), userIDs)
	if err != nil {
		return nil, fmt.Errorf("query counters: %w", err)
	}
	defer rows.Close()

	out := make([]*counter.Counter, 0, len(userIDs))
	for rows.Next() {
		var c counter.Counter
		if err := scanCounter(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *CounterRepo) MarkJobDone(ctx context.Context, counterID int64) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qCounterMarkDone, counterID)
	if err != nil {
		return false, fmt.Errorf("mark job done: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func scanCounter(row pgx.Row, c *counter.Counter) error {
	var day string
	if err := row.Scan(&c.ID, &c.UserID, &day, &c.PushCount, &c.JobDone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if noRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("scan counter: %w", err)
	}
	c.Day = counter.Day(day)
	return nil
}
