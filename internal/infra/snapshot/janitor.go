package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yanqian/daily-briefing/pkg/util"
)

// Janitor removes dated output files that do not belong to today.
type Janitor struct {
	dirs   []string
	logger *slog.Logger
}

// NewJanitor builds a janitor over dirs. Empty entries are ignored.
func NewJanitor(logger *slog.Logger, dirs ...string) *Janitor {
	kept := make([]string, 0, len(dirs))
	seen := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" || seen[filepath.Clean(d)] {
			continue
		}
		seen[filepath.Clean(d)] = true
		kept = append(kept, d)
	}
	return &Janitor{dirs: kept, logger: logger.With("component", "snapshot.janitor")}
}

// Clean deletes every file whose trailing _YYYYMMDD date differs from today's.
// Files without such a date are left alone.
func (j *Janitor) Clean(ctx context.Context, today time.Time) (int, error) {
	keep := util.FileDate(today)
	removed := 0
	var errs []error
	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s: %w", dir, err))
			continue
		}
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return removed, err
			}
			if entry.IsDir() {
				continue
			}
			date, ok := FileDateOf(entry.Name())
			if !ok || date == keep {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
				continue
			}
			removed++
		}
	}
	j.logger.Info("output cleaned", "removed", removed, "kept", keep)
	return removed, errors.Join(errs...)
}

// FileDateOf extracts the trailing YYYYMMDD of names like "nws_20240707.json".
func FileDateOf(name string) (string, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return "", false
	}
	candidate := base[idx+1:]
	if _, err := time.Parse(util.FileDateLayout, candidate); err != nil {
		return "", false
	}
	return candidate, true
}
