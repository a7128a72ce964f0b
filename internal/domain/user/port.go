package user

import "context"

type Repo interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	Upsert(ctx context.Context, u *User) error
	UpdateSettings(ctx context.Context, id int64, s Settings) (*User, error)
	// ListDueForNotification returns users with an endpoint and an annoy time
	// not later than now (HH:MM).
	ListDueForNotification(ctx context.Context, now string) ([]*User, error)
}
