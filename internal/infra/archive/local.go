package archive

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/yanqian/daily-briefing/pkg/util"
)

// LocalArchive keeps sent emails as files in a directory.
type LocalArchive struct {
	dir string
}

// NewLocalArchive constructs an archive rooted at dir.
func NewLocalArchive(dir string) *LocalArchive {
	return &LocalArchive{dir: dir}
}

// Dir is where archived emails are written; the janitor prunes it.
func (a *LocalArchive) Dir() string {
	return a.dir
}

// Put writes body under name and returns the file path.
func (a *LocalArchive) Put(_ context.Context, name string, body []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	path := filepath.Join(a.dir, name)
	if err := util.WriteFileAtomic(path, body, 0o644); err != nil {
		return "", fmt.Errorf("archive %s: %w", name, err)
	}
	return path, nil
}
