package schedulestore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// MemoryStore is an in-memory implementation of the schedule store for tests/dev.
type MemoryStore struct {
	mu        sync.RWMutex
	schedules map[string]wardrobe.Schedule
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{schedules: make(map[string]wardrobe.Schedule)}
}

func (s *MemoryStore) Load(_ context.Context, weekOf time.Time) (wardrobe.Schedule, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schedule, ok := s.schedules[util.FileDate(weekOf)]
	if !ok {
		return nil, false, nil
	}
	return schedule.Clone(), true, nil
}

func (s *MemoryStore) Save(_ context.Context, weekOf time.Time, schedule wardrobe.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[util.FileDate(weekOf)] = schedule.Clone()
	return nil
}

var _ wardrobe.ScheduleStore = (*MemoryStore)(nil)
