package notification

import (
	"context"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain/counter"
)

type Kind string

const (
	KindReminder Kind = "reminder"
	KindGoalMet  Kind = "goal_met"
)

type Notification struct {
	ID      int64       `json:"id"`
	UserID  int64       `json:"user_id"`
	Day     counter.Day `json:"day"`
	Kind    Kind        `json:"kind"`
	SentAt  time.Time   `json:"sent_at"`
	Payload string      `json:"payload"`
}

// Sender delivers one message to a user-configured endpoint. Implementations
// make a single attempt and return *domain.DeliveryError on failure.
type Sender interface {
	Send(ctx context.Context, endpoint, text string) error
}
