package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/yanqian/daily-briefing/pkg/util"
)

// FileStore keeps dated JSON documents named <kind>_YYYYMMDD.json.
type FileStore struct {
	dir string
}

// NewFileStore constructs a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir is the directory snapshots are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the snapshot file for kind on date.
func (s *FileStore) Path(kind string, date time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", kind, util.FileDate(date)))
}

// Save writes v as indented JSON, replacing any previous snapshot of the same day.
func (s *FileStore) Save(_ context.Context, kind string, date time.Time, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", kind, err)
	}
	return util.WriteFileAtomic(s.Path(kind, date), data, 0o644)
}

// Load decodes the snapshot into v. It reports false when none exists.
func (s *FileStore) Load(_ context.Context, kind string, date time.Time, v any) (bool, error) {
	data, err := os.ReadFile(s.Path(kind, date))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s snapshot: %w", kind, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s snapshot: %w", kind, err)
	}
	return true, nil
}
