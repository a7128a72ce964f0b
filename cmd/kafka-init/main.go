package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	config "github.com/NordCoder/Pushkeeper/internal/config/scheduler"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	kafkax "github.com/NordCoder/Pushkeeper/internal/repository/kafka"
	"go.uber.org/zap"
)

// kafka-init creates the activity topic ahead of the scheduler, for
// deployments where the broker disallows auto creation.
func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to yaml config")
	partitions := flag.Int("partitions", 3, "partition count")
	rf := flag.Int("rf", 1, "replication factor")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := kafkax.EnsureTopic(ctx, cfg.Events.Brokers, kafkax.TopicSpec{
		Name:              cfg.Events.Topic,
		NumPartitions:     *partitions,
		ReplicationFactor: *rf,
		MaxWait:           30 * time.Second,
	}, l); err != nil {
		l.Fatal("ensure topic", zap.String("topic", cfg.Events.Topic), zap.Error(err))
	}
	l.Info("kafka-init ok", zap.String("topic", cfg.Events.Topic))
}
