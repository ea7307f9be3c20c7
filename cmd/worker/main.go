package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"rentease/internal/email"
	"rentease/pkg/config"
	"rentease/pkg/kafka"
)

func main() {
	cfg := config.Load("rentease-worker")

	dispatcher := email.NewDispatcher(email.NewSender(cfg), cfg)

	consumer, err := kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.MailTopic,
		cfg.MailGroupID,
		dispatcher.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Mail worker starting", "topic", cfg.MailTopic, "group_id", cfg.MailGroupID)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}

	cfg.Log.Info("Mail worker stopped")
}
