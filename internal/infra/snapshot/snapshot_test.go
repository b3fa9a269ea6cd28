package snapshot

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileStoreSaveLoad(t *testing.T) {
	store := NewFileStore(t.TempDir())
	date := time.Date(2024, time.July, 7, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()

	var out map[string][]string
	found, err := store.Load(ctx, "nws", date, &out)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.Save(ctx, "nws", date, map[string][]string{"morning": {"a"}}))
	require.FileExists(t, filepath.Join(store.Dir(), "nws_20240707.json"))

	found, err = store.Load(ctx, "nws", date, &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"a"}, out["morning"])
}

func TestFileDateOf(t *testing.T) {
	date, ok := FileDateOf("cyber_news_20240707.json")
	require.True(t, ok)
	require.Equal(t, "20240707", date)

	_, ok = FileDateOf("README.md")
	require.False(t, ok)
	_, ok = FileDateOf("notes_final.txt")
	require.False(t, ok)
}

func TestJanitorClean(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	touch := func(dir, name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	touch(first, "nws_20240706.json")
	touch(first, "nws_20240707.json")
	touch(first, ".gitkeep")
	touch(second, "morning_briefing_20240701.html")
	touch(second, "weekly_plan_20240630.json")
	require.NoError(t, os.Mkdir(filepath.Join(second, "sub_20240101"), 0o755))

	janitor := NewJanitor(slog.New(slog.NewTextHandler(io.Discard, nil)), first, second, first, "", filepath.Join(first, "missing"))
	removed, err := janitor.Clean(context.Background(), time.Date(2024, time.July, 7, 7, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 3, removed)

	require.FileExists(t, filepath.Join(first, "nws_20240707.json"))
	require.FileExists(t, filepath.Join(first, ".gitkeep"))
	require.NoFileExists(t, filepath.Join(first, "nws_20240706.json"))
	require.NoFileExists(t, filepath.Join(second, "weekly_plan_20240630.json"))
	require.DirExists(t, filepath.Join(second, "sub_20240101"))
}
