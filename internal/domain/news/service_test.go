package news

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

type stubParser struct {
	feeds map[string][]Article
}

func (s stubParser) Parse(_ context.Context, url string) ([]Article, error) {
	articles, ok := s.feeds[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return articles, nil
}

// jsonSnapshots round-trips through JSON like the file store does.
type jsonSnapshots struct {
	data map[string][]byte
}

func newJSONSnapshots() *jsonSnapshots {
	return &jsonSnapshots{data: map[string][]byte{}}
}

func (m *jsonSnapshots) Save(_ context.Context, kind string, date time.Time, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[kind+"_"+util.FileDate(date)] = raw
	return nil
}

func (m *jsonSnapshots) Load(_ context.Context, kind string, date time.Time, v any) (bool, error) {
	raw, ok := m.data[kind+"_"+util.FileDate(date)]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

var (
	morning = time.Date(2024, 7, 9, 6, 0, 0, 0, time.UTC)
	midday  = time.Date(2024, 7, 9, 12, 0, 0, 0, time.UTC)
)

func newTestService(parser FeedParser, store SnapshotStore, urls ...string) *service {
	return NewService(Config{
		Topic:    "cyber",
		URLs:     urls,
		Keywords: []string{"Ransomware", " breach "},
		Location: time.UTC,
	}, parser, store, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
}

func feed() []Article {
	return []Article{
		{Title: "Ransomware hits port", Published: morning.Add(-2 * time.Hour), Link: "https://a.example/1", Description: "Ports down."},
		{Title: "Data breach at retailer", Published: morning.AddDate(0, 0, -1), Link: "https://a.example/2", Description: "Cards leaked."},
		{Title: "Old ransomware story", Published: morning.AddDate(0, 0, -3), Link: "https://a.example/3"},
		{Title: "Weather is nice", Published: morning, Link: "https://a.example/4"},
		{Title: "Undated breach", Link: "https://a.example/5"},
	}
}

func TestCollectFiltersByDateAndKeyword(t *testing.T) {
	store := newJSONSnapshots()
	svc := newTestService(stubParser{feeds: map[string][]Article{"a": feed()}}, store, "a")

	report, err := svc.Collect(context.Background(), morning)
	require.NoError(t, err)
	require.Equal(t, util.SlotMorning, report.Slot)
	require.Equal(t, 2, report.Added)
	require.Equal(t, "Ransomware hits port", report.Articles[0].Title)
	require.Equal(t, "Data breach at retailer", report.Articles[1].Title)
	require.Equal(t,
		"<b>Ransomware hits port</b><br>Ports down.<br><a href='https://a.example/1' target='_blank'>https://a.example/1</a><br><br>"+
			"<b>Data breach at retailer</b><br>Cards leaked.<br><a href='https://a.example/2' target='_blank'>https://a.example/2</a><br><br>",
		report.Message)
	require.Contains(t, store.data, "cyber_news_20240709")
}

func TestCollectSkipsTitlesAlreadySent(t *testing.T) {
	store := newJSONSnapshots()
	require.NoError(t, store.Save(context.Background(), "cyber_news", morning.AddDate(0, 0, -1), Snapshot{
		Midday: []Article{{Title: "Data breach at retailer"}},
	}))
	parser := stubParser{feeds: map[string][]Article{"a": feed(), "b": feed()}}
	svc := newTestService(parser, store, "a", "b")

	report, err := svc.Collect(context.Background(), morning)
	require.NoError(t, err)
	require.Equal(t, 1, report.Added)

	report, err = svc.Collect(context.Background(), midday)
	require.NoError(t, err)
	require.Equal(t, util.SlotMidday, report.Slot)
	require.Zero(t, report.Added)
	require.Equal(t, MsgNoNews, report.Message)

	var saved Snapshot
	found, err := store.Load(context.Background(), "cyber_news", morning, &saved)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, saved.Morning, 1)
	require.Empty(t, saved.Midday)
}

func TestCollectFeedFailures(t *testing.T) {
	store := newJSONSnapshots()
	svc := newTestService(stubParser{feeds: map[string][]Article{"a": feed()}}, store, "a", "down")
	report, err := svc.Collect(context.Background(), morning)
	require.NoError(t, err)
	require.Equal(t, 2, report.Added)

	svc = newTestService(stubParser{}, newJSONSnapshots(), "down")
	_, err = svc.Collect(context.Background(), morning)
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))
}

func TestFormatEscapes(t *testing.T) {
	require.Equal(t, MsgNoNews, Format(nil))
	out := Format([]Article{{Title: "<script>", Link: "https://x.example/?a=1&b=2"}})
	require.Contains(t, out, "&lt;script&gt;")
	require.Contains(t, out, "a=1&amp;b=2")
}
