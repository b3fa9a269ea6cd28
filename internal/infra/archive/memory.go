package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/daily-briefing/internal/infra/snapshot"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// MemoryArchive keeps archived emails in memory. Useful for tests and local dev.
type MemoryArchive struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryArchive constructs an empty archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{blobs: make(map[string][]byte)}
}

// Put stores body under name.
func (a *MemoryArchive) Put(_ context.Context, name string, body []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[name] = append([]byte(nil), body...)
	return "memory://" + name, nil
}

// Get returns a stored body.
func (a *MemoryArchive) Get(name string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	body, ok := a.blobs[name]
	return body, ok
}

// Names lists stored names in order.
func (a *MemoryArchive) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.blobs))
	for name := range a.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prune drops entries dated other than today.
func (a *MemoryArchive) Prune(_ context.Context, today time.Time) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	keep := util.FileDate(today)
	removed := 0
	for name := range a.blobs {
		if date, ok := snapshot.FileDateOf(name); ok && date != keep {
			delete(a.blobs, name)
			removed++
		}
	}
	return removed, nil
}
