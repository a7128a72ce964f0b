package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BootstrapProducer makes a best-effort attempt to create the topic and
// returns a producer bound to it.
func BootstrapProducer(ctx context.Context, brokers []string, topic string, logger *zap.Logger) *Producer {
	if err := EnsureTopic(ctx, brokers, TopicSpec{
		Name:              topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
		MaxWait:           5 * time.Second,
	}, logger); err != nil {
		logger.Warn("ensure topic", zap.String("topic", topic), zap.Error(err))
	}
	return NewProducer(brokers, topic).WithLogger(logger)
}
