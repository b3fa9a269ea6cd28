package schedulestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/pkg/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS wardrobe_schedules (
	week_of    DATE PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore implements wardrobe.ScheduleStore using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the schedules table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) Load(ctx context.Context, weekOf time.Time) (wardrobe.Schedule, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload
		FROM wardrobe_schedules
		WHERE week_of = $1
	`, util.ISODate(weekOf)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var schedule wardrobe.Schedule
	if err := json.Unmarshal(payload, &schedule); err != nil {
		return nil, false, fmt.Errorf("decode schedule: %w", err)
	}
	return schedule, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, weekOf time.Time, schedule wardrobe.Schedule) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO wardrobe_schedules (week_of, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (week_of) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = now()
	`, util.ISODate(weekOf), payload)
	return err
}

var _ wardrobe.ScheduleStore = (*PostgresStore)(nil)
