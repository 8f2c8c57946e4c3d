// Command migrate applies the persistence layer's schema migrations using
// goose's embedded-filesystem runner. It is a thin wrapper: config load,
// connect, run internal/persistence/postgres.Migrate, exit.
package main

import (
	"context"
	"os"

	"dayplanner/internal/persistence/postgres"
	"dayplanner/pkg/config"
	"dayplanner/pkg/database"
	"dayplanner/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.InitWithConfig(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stdout",
	})
	log := logger.WithService(cfg.App.Name + "-migrate")

	ctx := context.Background()

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db.Pool()); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	log.Info("migrations applied")
}
