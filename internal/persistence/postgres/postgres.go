// Package postgres implements the persistence port (internal/persistence)
// on top of the pgxpool-backed database.DB wrapper, storing settings,
// tasks, fixed blocks, plans, and the durable cache tier as plain
// relational tables.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"dayplanner/internal/domain"
	"dayplanner/internal/persistence"
	"dayplanner/pkg/database"
)

// Adapter implements persistence.Store against a database.DB connection.
type Adapter struct {
	db  database.DB
	log *slog.Logger
}

// New builds an Adapter. Run Migrate before first use to create the
// schema (see internal/persistence/postgres/migrations).
func New(db database.DB, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{db: db, log: log}
}

func (a *Adapter) GetSettings(ctx context.Context) (*domain.Settings, error) {
	row := a.db.QueryRow(ctx, `
		SELECT home_lat, home_lon, home_coord_set, home_address, home_name, timezone, work_start, work_end
		FROM settings WHERE id = 1`)

	var s domain.Settings
	var homeLat, homeLon *float64
	var workStart, workEnd time.Time
	err := row.Scan(&homeLat, &homeLon, &s.HomeCoordSet, &s.HomeAddress, &s.HomeName, &s.Timezone, &workStart, &workEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if homeLat != nil {
		s.HomeLat = *homeLat
	}
	if homeLon != nil {
		s.HomeLon = *homeLon
	}
	s.WorkStart = workStart
	s.WorkEnd = workEnd
	return &s, nil
}

func (a *Adapter) PutSettings(ctx context.Context, s domain.Settings) error {
	_, err := a.db.Exec(ctx, `
		INSERT INTO settings (id, home_lat, home_lon, home_coord_set, home_address, home_name, timezone, work_start, work_end)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			home_lat = EXCLUDED.home_lat,
			home_lon = EXCLUDED.home_lon,
			home_coord_set = EXCLUDED.home_coord_set,
			home_address = EXCLUDED.home_address,
			home_name = EXCLUDED.home_name,
			timezone = EXCLUDED.timezone,
			work_start = EXCLUDED.work_start,
			work_end = EXCLUDED.work_end`,
		s.HomeLat, s.HomeLon, s.HomeCoordSet, s.HomeAddress, s.HomeName, s.Timezone, s.WorkStart, s.WorkEnd)
	return err
}

const taskColumns = `id, title, duration_min, priority, category, due_date, has_location, lat, lon,
	display_name, address, open_local, close_local, earliest_start, latest_end, days_open, purpose, required_items`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	var dueDate *time.Time
	var lat, lon *float64
	var openLocal, closeLocal *time.Time
	var daysOpenRaw []int16
	var requiredItems []string

	err := row.Scan(&t.ID, &t.Title, &t.DurationMin, &t.Priority, &t.Category, &dueDate, &t.HasLocation,
		&lat, &lon, &t.DisplayName, &t.Address, &openLocal, &closeLocal, &t.EarliestStart, &t.LatestEnd,
		&daysOpenRaw, &t.Purpose, &requiredItems)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t.DueDate = dueDate
	if lat != nil {
		t.Lat = *lat
	}
	if lon != nil {
		t.Lon = *lon
	}
	t.OpenLocal = openLocal
	t.CloseLocal = closeLocal
	for _, d := range daysOpenRaw {
		t.DaysOpen = append(t.DaysOpen, time.Weekday(d))
	}
	_ = requiredItems // carried by the packing checklist, not the Task struct

	return &t, nil
}

func (a *Adapter) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := a.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func (a *Adapter) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := a.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, rows.Err()
}

func (a *Adapter) PutTask(ctx context.Context, t domain.Task) error {
	daysOpen := make([]int16, len(t.DaysOpen))
	for i, d := range t.DaysOpen {
		daysOpen[i] = int16(d)
	}

	_, err := a.db.Exec(ctx, `
		INSERT INTO tasks (id, title, duration_min, priority, category, due_date, has_location, lat, lon,
			display_name, address, open_local, close_local, earliest_start, latest_end, days_open, purpose, required_items, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,'{}',now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, duration_min = EXCLUDED.duration_min, priority = EXCLUDED.priority,
			category = EXCLUDED.category, due_date = EXCLUDED.due_date, has_location = EXCLUDED.has_location,
			lat = EXCLUDED.lat, lon = EXCLUDED.lon, display_name = EXCLUDED.display_name, address = EXCLUDED.address,
			open_local = EXCLUDED.open_local, close_local = EXCLUDED.close_local, earliest_start = EXCLUDED.earliest_start,
			latest_end = EXCLUDED.latest_end, days_open = EXCLUDED.days_open, purpose = EXCLUDED.purpose,
			updated_at = now()`,
		t.ID, t.Title, t.DurationMin, t.Priority, t.Category, t.DueDate, t.HasLocation, t.Lat, t.Lon,
		t.DisplayName, t.Address, t.OpenLocal, t.CloseLocal, t.EarliestStart, t.LatestEnd, daysOpen, t.Purpose)
	return err
}

func (a *Adapter) DeleteTask(ctx context.Context, id string) error {
	_, err := a.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (a *Adapter) GetFixedBlock(ctx context.Context, id string) (*domain.FixedBlock, error) {
	row := a.db.QueryRow(ctx, `SELECT id, date, start, "end", title FROM fixed_blocks WHERE id = $1`, id)
	var fb domain.FixedBlock
	err := row.Scan(&fb.ID, &fb.Date, &fb.Start, &fb.End, &fb.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func (a *Adapter) ListFixedBlocks(ctx context.Context, date time.Time) ([]domain.FixedBlock, error) {
	rows, err := a.db.Query(ctx, `SELECT id, date, start, "end", title FROM fixed_blocks WHERE date = $1 ORDER BY start`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FixedBlock
	for rows.Next() {
		var fb domain.FixedBlock
		if err := rows.Scan(&fb.ID, &fb.Date, &fb.Start, &fb.End, &fb.Title); err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (a *Adapter) PutFixedBlock(ctx context.Context, fb domain.FixedBlock) error {
	_, err := a.db.Exec(ctx, `
		INSERT INTO fixed_blocks (id, date, start, "end", title)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET date = EXCLUDED.date, start = EXCLUDED.start, "end" = EXCLUDED."end", title = EXCLUDED.title`,
		fb.ID, fb.Date, fb.Start, fb.End, fb.Title)
	return err
}

func (a *Adapter) DeleteFixedBlock(ctx context.Context, id string) error {
	_, err := a.db.Exec(ctx, `DELETE FROM fixed_blocks WHERE id = $1`, id)
	return err
}

func scanPlan(row pgx.Row) (*persistence.Plan, error) {
	var p persistence.Plan
	var resultJSON []byte
	err := row.Scan(&p.ID, &p.Date, &resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultJSON, &p.Result); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *Adapter) GetPlan(ctx context.Context, id string) (*persistence.Plan, error) {
	row := a.db.QueryRow(ctx, `SELECT id, date, result FROM plans WHERE id = $1`, id)
	return scanPlan(row)
}

func (a *Adapter) GetPlanByDate(ctx context.Context, date time.Time) (*persistence.Plan, error) {
	row := a.db.QueryRow(ctx, `SELECT id, date, result FROM plans WHERE date = $1`, date)
	return scanPlan(row)
}

func (a *Adapter) PutPlan(ctx context.Context, p persistence.Plan) error {
	resultJSON, err := json.Marshal(p.Result)
	if err != nil {
		return err
	}
	_, err = a.db.Exec(ctx, `
		INSERT INTO plans (id, date, result, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (date) DO UPDATE SET result = EXCLUDED.result, updated_at = now()`,
		p.ID, p.Date, resultJSON)
	return err
}

func (a *Adapter) DeletePlan(ctx context.Context, id string) error {
	_, err := a.db.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	return err
}

func (a *Adapter) CacheGet(ctx context.Context, key string) (string, bool, error) {
	row := a.db.QueryRow(ctx, `SELECT value FROM cache_entries WHERE key = $1 AND expires_at > now()`, key)
	var value string
	err := row.Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (a *Adapter) CacheSet(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := a.db.Exec(ctx, `
		INSERT INTO cache_entries (key, value, expires_at)
		VALUES ($1, $2, now() + $3::interval)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, ttl.String())
	return err
}

func (a *Adapter) CacheDelete(ctx context.Context, key string) error {
	_, err := a.db.Exec(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return err
}

var _ persistence.Store = (*Adapter)(nil)
