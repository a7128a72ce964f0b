package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestActivityEvents_PublishGoalCompleted(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{w: w, topic: "pushkeeper.activity", log: zap.NewNop()}
	pub := NewActivityEventsKafka(p)

	ev := events.GoalCompleted{UserID: 42, Day: "2024-03-01", PushCount: 3, PushGoal: 3, At: time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)}
	require.NoError(t, pub.PublishGoalCompleted(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	m := w.msgs[0]
	assert.Equal(t, "42", string(m.Key))
	assert.Equal(t, EventGoalCompleted, header(m, "event-type"))

	var got events.GoalCompleted
	require.NoError(t, json.Unmarshal(m.Value, &got))
	assert.Equal(t, ev, got)
}

func TestActivityEvents_PublishPushCounted(t *testing.T) {
	w := &fakeWriter{}
	pub := NewActivityEventsKafka(&Producer{w: w, topic: "t", log: zap.NewNop()})

	require.NoError(t, pub.PublishPushCounted(context.Background(), events.PushCounted{UserID: 7, Day: "2024-03-01", PushCount: 1}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, EventPushCounted, header(w.msgs[0], "event-type"))
}

func TestProducer_WriteErrorReturned(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Producer{w: w, topic: "t", log: zap.NewNop()}

	err := p.PublishJSON(context.Background(), []byte("k"), "x", map[string]int{"a": 1})
	require.EqualError(t, err, "leader not available")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_UnencodableValue(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{w: w, topic: "t", log: zap.NewNop()}

	require.Error(t, p.PublishJSON(context.Background(), nil, "x", make(chan int)))
	assert.Empty(t, w.msgs)
}

func TestEnsureTopic_NoBrokers(t *testing.T) {
	require.Error(t, EnsureTopic(context.Background(), nil, TopicSpec{Name: "t"}, zap.NewNop()))
}
