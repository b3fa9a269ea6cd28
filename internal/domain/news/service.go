package news

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// Service collects keyword-matching headlines for a briefing slot.
type Service interface {
	Collect(ctx context.Context, now time.Time) (Report, error)
}

// FeedParser reads one RSS or Atom feed.
type FeedParser interface {
	Parse(ctx context.Context, url string) ([]Article, error)
}

// SnapshotStore persists JSON documents keyed by kind and calendar date.
type SnapshotStore interface {
	Save(ctx context.Context, kind string, date time.Time, v any) error
	Load(ctx context.Context, kind string, date time.Time, v any) (bool, error)
}

type service struct {
	cfg    Config
	parser FeedParser
	store  SnapshotStore
	logger *slog.Logger
}

// NewService wires up the news domain.
func NewService(cfg Config, parser FeedParser, store SnapshotStore, logger *slog.Logger) Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	cfg.Keywords = keywords
	return &service{
		cfg:    cfg,
		parser: parser,
		store:  store,
		logger: logger.With("component", "news.service"),
	}
}

func (s *service) Collect(ctx context.Context, now time.Time) (Report, error) {
	now = now.In(s.cfg.Location)
	today := util.StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	slot := util.SlotOf(now)
	kind := s.snapshotKind()

	var previous, current Snapshot
	if _, err := s.store.Load(ctx, kind, yesterday, &previous); err != nil {
		return Report{}, apperrors.Wrap(apperrors.CodePersistence, "failed to load yesterday's news", err)
	}
	if _, err := s.store.Load(ctx, kind, today, &current); err != nil {
		return Report{}, apperrors.Wrap(apperrors.CodePersistence, "failed to load today's news", err)
	}

	sent := make(map[string]struct{})
	for _, title := range append(previous.Titles(), current.Titles()...) {
		sent[title] = struct{}{}
	}

	var (
		added  []Article
		failed int
	)
	for _, url := range s.cfg.URLs {
		articles, err := s.parser.Parse(ctx, url)
		if err != nil {
			failed++
			s.logger.Warn("feed unavailable", "url", url, "error", err)
			continue
		}
		for _, a := range articles {
			if !s.inWindow(a.Published, today, yesterday) || !s.matches(a.Title) {
				continue
			}
			if _, dup := sent[a.Title]; dup {
				continue
			}
			sent[a.Title] = struct{}{}
			added = append(added, a)
		}
	}
	if len(s.cfg.URLs) > 0 && failed == len(s.cfg.URLs) {
		return Report{}, apperrors.Wrap(apperrors.CodeUpstream, "every news feed failed", nil)
	}

	list := current.Slot(slot)
	*list = append(*list, added...)
	if err := s.store.Save(ctx, kind, today, current); err != nil {
		return Report{}, apperrors.Wrap(apperrors.CodePersistence, "failed to persist news", err)
	}
	s.logger.Info("news collected", "slot", slot, "added", len(added), "feeds", len(s.cfg.URLs), "failed", failed)

	return Report{
		Topic:    s.cfg.Topic,
		Slot:     slot,
		Articles: *list,
		Added:    len(added),
		Message:  Format(*list),
	}, nil
}

func (s *service) snapshotKind() string {
	return fmt.Sprintf("%s_news", s.cfg.Topic)
}

func (s *service) inWindow(published, today, yesterday time.Time) bool {
	if published.IsZero() {
		return false
	}
	day := util.StartOfDay(published.In(s.cfg.Location))
	return day.Equal(today) || day.Equal(yesterday)
}

func (s *service) matches(title string) bool {
	lower := strings.ToLower(title)
	for _, k := range s.cfg.Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Format renders articles as the email section body.
func Format(articles []Article) string {
	if len(articles) == 0 {
		return MsgNoNews
	}
	var b strings.Builder
	for _, a := range articles {
		link := html.EscapeString(a.Link)
		fmt.Fprintf(&b, "<b>%s</b><br>%s<br><a href='%s' target='_blank'>%s</a><br><br>",
			html.EscapeString(a.Title), html.EscapeString(a.Description), link, link)
	}
	return b.String()
}
