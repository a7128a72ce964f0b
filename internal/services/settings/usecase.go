package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NordCoder/Pushkeeper/internal/domain"
	"github.com/NordCoder/Pushkeeper/internal/domain/notification"
	"github.com/NordCoder/Pushkeeper/internal/domain/user"
	notifier "github.com/NordCoder/Pushkeeper/internal/services/discord-notifier"
)

const defaultHistoryLimit = 50

type Usecase struct {
	users   user.Repo
	history notification.Repo
}

func New(users user.Repo, history notification.Repo) *Usecase {
	return &Usecase{users: users, history: history}
}

func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return domain.NewStoreError(op, err)
}

func (u *Usecase) GetUser(ctx context.Context, id int64) (*user.User, error) {
	usr, err := u.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return usr, nil
}

// UpsertUser creates the user on first login or refreshes the display name.
// Existing settings are kept.
func (u *Usecase) UpsertUser(ctx context.Context, in *user.User) (*user.User, error) {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	if in.ExternalID == "" {
		return nil, fmt.Errorf("external_id is required: %w", domain.ErrInvalidInput)
	}
	if in.PushGoal < 0 {
		return nil, fmt.Errorf("push_goal must be positive: %w", domain.ErrInvalidInput)
	}
	if err := u.users.Upsert(ctx, in); err != nil {
		return nil, storeErr("upsert user", err)
	}
	return in, nil
}

func (u *Usecase) UpdateSettings(ctx context.Context, id int64, s user.Settings) (*user.User, error) {
	s, err := normalize(s)
	if err != nil {
		return nil, err
	}
	if s.PushGoal == nil && s.AnnoyTime == nil && s.NotificationEndpoint == nil {
		return u.GetUser(ctx, id)
	}
	usr, err := u.users.UpdateSettings(ctx, id, s)
	if err != nil {
		return nil, storeErr("update settings", err)
	}
	return usr, nil
}

func (u *Usecase) Notifications(ctx context.Context, id int64, limit int) ([]*notification.Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}
	if _, err := u.GetUser(ctx, id); err != nil {
		return nil, err
	}
	list, err := u.history.ListByUser(ctx, id, limit)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	return list, nil
}

func normalize(s user.Settings) (user.Settings, error) {
	if s.PushGoal != nil && *s.PushGoal <= 0 {
		return s, fmt.Errorf("push_goal must be positive: %w", domain.ErrInvalidInput)
	}
	if s.AnnoyTime != nil && *s.AnnoyTime != "" {
		hhmm, err := user.ParseAnnoyTime(*s.AnnoyTime)
		if err != nil {
			return s, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
		}
		s.AnnoyTime = &hhmm
	}
	if s.NotificationEndpoint != nil {
		ep := strings.TrimSpace(*s.NotificationEndpoint)
		if ep != "" {
			if err := notifier.ValidateEndpoint(ep); err != nil {
				return s, err
			}
		}
		s.NotificationEndpoint = &ep
	}
	return s, nil
}
