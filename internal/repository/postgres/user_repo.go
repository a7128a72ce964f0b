package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Pushkeeper/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, external_id, display_name, push_goal, annoy_time, notification_endpoint, created_at, updated_at`

const (
	qUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1;`

	qUserByExternalID = `
SELECT ` + userColumns + `
FROM users
WHERE external_id = $1;`

	qUserUpsert = `
INSERT INTO users (external_id, display_name, push_goal)
VALUES ($1, $2, $3)
ON CONFLICT (external_id) DO UPDATE
SET display_name = EXCLUDED.display_name,
    updated_at   = NOW()
RETURNING ` + userColumns + `;`

	// CASE keeps the column when the parameter is NULL; an empty string clears it.
	qUserUpdateSettings = `
UPDATE users
SET push_goal             = COALESCE($2, push_goal),
    annoy_time            = CASE WHEN $3::text IS NULL THEN annoy_time ELSE NULLIF($3::text, '') END,
    notification_endpoint = CASE WHEN $4::text IS NULL THEN notification_endpoint ELSE NULLIF($4::text, '') END,
    updated_at            = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;`

	qUsersDue = `
SELECT ` + userColumns + `
FROM users
WHERE notification_endpoint IS NOT NULL
  AND annoy_time IS NOT NULL
  AND annoy_time COLLATE "C" <= $1
ORDER BY id;`
)

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByExternalID, externalID), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Upsert(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	goal := u.PushGoal
	if goal <= 0 {
		goal = user.DefaultPushGoal
	}
	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserUpsert, u.ExternalID, u.DisplayName, goal)
	if err := scanUser(row, u); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("user upsert: %w", err)
	}
	return nil
}

func (r *UserRepo) UpdateSettings(ctx context.Context, id int64, s user.Settings) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserUpdateSettings, id, s.PushGoal, s.AnnoyTime, s.NotificationEndpoint)
	if err := scanUser(row, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ListDueForNotification(ctx context.Context, now string) ([]*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qUsersDue, now)
	if err != nil {
		return nil, fmt.Errorf("query due users: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		var u user.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row, out *user.User) error {
	if err := row.Scan(
		&out.ID,
		&out.ExternalID,
		&out.DisplayName,
		&out.PushGoal,
		&out.AnnoyTime,
		&out.NotificationEndpoint,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		if noRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	return nil
}
