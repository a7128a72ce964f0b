package events

import (
	"context"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain/counter"
)

type PushCounted struct {
	UserID    int64       `json:"user_id"`
	Day       counter.Day `json:"day"`
	PushCount int         `json:"push_count"`
	At        time.Time   `json:"at"`
}

type GoalCompleted struct {
	UserID    int64       `json:"user_id"`
	Day       counter.Day `json:"day"`
	PushCount int         `json:"push_count"`
	PushGoal  int         `json:"push_goal"`
	At        time.Time   `json:"at"`
}

type ActivityEvents interface {
	PublishPushCounted(ctx context.Context, ev PushCounted) error
	PublishGoalCompleted(ctx context.Context, ev GoalCompleted) error
}
