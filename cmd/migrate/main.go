package main

import (
	"context"
	"time"

	migrations "rentease/internal/migrations/mongo"
	"rentease/pkg/config"
)

func main() {
	cfg := config.Load("rentease-migrate")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrations.Migrate(ctx, cfg); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	cfg.Log.Info("Migrations applied")
}
