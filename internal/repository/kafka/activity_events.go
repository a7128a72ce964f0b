package kafka

import (
	"context"

	"github.com/NordCoder/Pushkeeper/internal/domain/events"
)

const (
	EventPushCounted   = "push.counted"
	EventGoalCompleted = "goal.completed"
)

type ActivityEventsKafka struct {
	p *Producer
}

func NewActivityEventsKafka(p *Producer) *ActivityEventsKafka { return &ActivityEventsKafka{p: p} }

var _ events.ActivityEvents = (*ActivityEventsKafka)(nil)

func (e *ActivityEventsKafka) PublishPushCounted(ctx context.Context, ev events.PushCounted) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(ev.UserID), EventPushCounted, ev)
}

func (e *ActivityEventsKafka) PublishGoalCompleted(ctx context.Context, ev events.GoalCompleted) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(ev.UserID), EventGoalCompleted, ev)
}
