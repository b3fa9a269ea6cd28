package schedulestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// FileStore keeps one human readable JSON file per cycle.
type FileStore struct {
	dir string
}

// NewFileStore constructs a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the file a cycle is stored in.
func (s *FileStore) Path(weekOf time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("weekly_plan_%s.json", util.FileDate(weekOf)))
}

func (s *FileStore) Load(_ context.Context, weekOf time.Time) (wardrobe.Schedule, bool, error) {
	data, err := os.ReadFile(s.Path(weekOf))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read schedule: %w", err)
	}
	var schedule wardrobe.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, false, fmt.Errorf("decode schedule: %w", err)
	}
	return schedule, true, nil
}

func (s *FileStore) Save(_ context.Context, weekOf time.Time, schedule wardrobe.Schedule) error {
	data, err := json.MarshalIndent(schedule, "", "    ")
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	return util.WriteFileAtomic(s.Path(weekOf), data, 0o644)
}

var _ wardrobe.ScheduleStore = (*FileStore)(nil)
