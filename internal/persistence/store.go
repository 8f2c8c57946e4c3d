// Package persistence defines the durable storage port: get/put/delete on
// Settings, Task, FixedBlock, Plan, and a TTL-bearing cache blob store.
// Concrete adapters (internal/persistence/postgres) implement this
// interface; callers depend only on it.
package persistence

import (
	"context"
	"time"

	"dayplanner/internal/domain"
)

// Plan is a persisted scheduling run: the date it covers and its result.
type Plan struct {
	ID     string
	Date   time.Time
	Result domain.PlanResult
}

// Store is the full persistence port. Every method is scoped to a single
// process-wide user profile; there is no multi-tenant key in any signature.
type Store interface {
	GetSettings(ctx context.Context) (*domain.Settings, error)
	PutSettings(ctx context.Context, settings domain.Settings) error

	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	PutTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, id string) error

	GetFixedBlock(ctx context.Context, id string) (*domain.FixedBlock, error)
	ListFixedBlocks(ctx context.Context, date time.Time) ([]domain.FixedBlock, error)
	PutFixedBlock(ctx context.Context, block domain.FixedBlock) error
	DeleteFixedBlock(ctx context.Context, id string) error

	GetPlan(ctx context.Context, id string) (*Plan, error)
	GetPlanByDate(ctx context.Context, date time.Time) (*Plan, error)
	PutPlan(ctx context.Context, plan Plan) error
	DeletePlan(ctx context.Context, id string) error

	// CacheGet/CacheSet/CacheDelete back pkg/cache's durable tier: opaque
	// keys and values, with an expiry written alongside the value.
	CacheGet(ctx context.Context, key string) (value string, ok bool, err error)
	CacheSet(ctx context.Context, key, value string, ttl time.Duration) error
	CacheDelete(ctx context.Context, key string) error
}
