package kafka

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type TopicSpec struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	MaxWait           time.Duration
}

// EnsureTopic creates the topic if it is missing and waits up to ts.MaxWait
// for its partitions to show up. A topic that never confirms is logged, not failed.
func EnsureTopic(ctx context.Context, brokers []string, ts TopicSpec, log *zap.Logger) error {
	if len(brokers) == 0 {
		return errors.New("kafka: no brokers configured")
	}
	if ts.NumPartitions <= 0 {
		ts.NumPartitions = 1
	}
	if ts.ReplicationFactor <= 0 {
		ts.ReplicationFactor = 1
	}
	if ts.MaxWait <= 0 {
		ts.MaxWait = 5 * time.Second
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		if log != nil {
			log.Warn("kafka dial failed", zap.Error(err))
		}
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		if log != nil {
			log.Warn("kafka controller", zap.Error(err))
		}
		return err
	}
	cc, err := kafka.DialContext(ctx, "tcp", controller.Host+":"+strconv.Itoa(controller.Port))
	if err != nil {
		if log != nil {
			log.Warn("kafka dial controller", zap.Error(err))
		}
		return err
	}
	defer cc.Close()

	err = cc.CreateTopics(kafka.TopicConfig{
		Topic:             ts.Name,
		NumPartitions:     ts.NumPartitions,
		ReplicationFactor: ts.ReplicationFactor,
	})
	if err != nil {
		if log != nil {
			log.Debug("create topic (maybe exists)", zap.String("topic", ts.Name), zap.Error(err))
		}
	}

	deadline := time.Now().Add(ts.MaxWait)
	for time.Now().Before(deadline) {
		ps, err := conn.ReadPartitions(ts.Name)
		if err == nil && len(ps) > 0 {
			if log != nil {
				log.Info("topic ready", zap.String("topic", ts.Name))
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	if log != nil {
		log.Warn("topic not confirmed ready in time", zap.String("topic", ts.Name))
	}
	return nil
}
