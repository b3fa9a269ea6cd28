package schedulestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/pkg/util"
)

const defaultScheduleTTL = 14 * 24 * time.Hour

// ValkeyStore persists schedules using a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "briefing"
	}
	if ttl <= 0 {
		ttl = defaultScheduleTTL
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ValkeyStore) Load(ctx context.Context, weekOf time.Time) (wardrobe.Schedule, bool, error) {
	cmd := s.client.B().Get().Key(s.key(weekOf)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var schedule wardrobe.Schedule
	if err := json.Unmarshal([]byte(payload), &schedule); err != nil {
		return nil, false, fmt.Errorf("decode schedule: %w", err)
	}
	return schedule, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, weekOf time.Time, schedule wardrobe.Schedule) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	cmd := s.client.B().Set().Key(s.key(weekOf)).Value(string(payload)).Ex(s.ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) key(weekOf time.Time) string {
	return fmt.Sprintf("%s:schedule:%s", s.prefix, util.FileDate(weekOf))
}

var _ wardrobe.ScheduleStore = (*ValkeyStore)(nil)
