package postgres

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"dayplanner/pkg/database"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate applies every pending schema migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return database.NewMigrator(pool, migrationsFS, migrationsDir).Up(ctx)
}
