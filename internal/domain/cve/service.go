package cve

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

const snapshotKind = "cve_check"

// Service selects new high severity vulnerabilities for a briefing slot.
type Service interface {
	Collect(ctx context.Context, now time.Time) (Report, error)
}

// Client queries the vulnerability database for one date window.
type Client interface {
	Vulnerabilities(ctx context.Context, endpoint string, start, end time.Time) ([]Vulnerability, error)
}

// SnapshotStore persists JSON documents keyed by kind and calendar date.
type SnapshotStore interface {
	Save(ctx context.Context, kind string, date time.Time, v any) error
	Load(ctx context.Context, kind string, date time.Time, v any) (bool, error)
}

type service struct {
	cfg    Config
	client Client
	store  SnapshotStore
	logger *slog.Logger
}

// NewService wires up the CVE domain.
func NewService(cfg Config, client Client, store SnapshotStore, logger *slog.Logger) Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = []string{"pub", "lastMod"}
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
		client: client,
		store:  store,
		logger: logger.With("component", "cve.service"),
	}
}

func (s *service) Collect(ctx context.Context, now time.Time) (Report, error) {
	now = now.In(s.cfg.Location)
	today := util.StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	slot := util.SlotOf(now)

	var previous, current Snapshot
	if _, err := s.store.Load(ctx, snapshotKind, yesterday, &previous); err != nil {
		return Report{}, apperrors.Wrap(apperrors.CodePersistence, "failed to load yesterday's cves", err)
	}
	if _, err := s.store.Load(ctx, snapshotKind, today, &current); err != nil {
		return Report{}, apperrors.Wrap(apperrors.CodePersistence, "failed to load today's cves", err)
	}
	sent := make(map[string]struct{})
	for _, id := range append(previous.IDs(), current.IDs()...) {
		sent[id] = struct{}{}
	}

	start := yesterday
	end := today.Add(24*time.Hour - time.Millisecond)

	var (
		added  []Entry
		failed int
	)
	for _, endpoint := range s.cfg.Endpoints {
		vulns, err := s.client.Vulnerabilities(ctx, endpoint, start, end)
		if err != nil {
			failed++
			s.logger.Warn("cve query failed", "endpoint", endpoint, "error", err)
			continue
		}
		for _, v := range vulns {
			if _, dup := sent[v.ID]; dup {
				continue
			}
			entry, ok := s.qualify(v)
			if !ok {
				continue
			}
			sent[v.ID] = struct{}{}
			added = append(added, entry)
		}
	}
	if failed == len(s.cfg.Endpoints) {
		return Report{}, apperrors.Wrap(apperrors.CodeUpstream, "every cve query failed", nil)
	}

	list := current.Slot(slot)
	*list = append(*list, added...)
	sortByScore(*list)
	if err := s.store.Save(ctx, snapshotKind, today, current); err != nil {
		return Report{}, apperrors.Wrap(apperrors.CodePersistence, "failed to persist cves", err)
	}
	s.logger.Info("cves collected", "slot", slot, "added", len(added), "failed", failed)

	return Report{
		Slot:    slot,
		Entries: *list,
		Added:   len(added),
		Message: Format(*list),
	}, nil
}

// qualify applies the analyzed, metric, keyword and severity filters.
func (s *service) qualify(v Vulnerability) (Entry, bool) {
	if v.Status != StatusAnalyzed || len(v.Metrics) == 0 {
		return Entry{}, false
	}
	if !s.matches(v.Description, v.SourceIdentifier) {
		return Entry{}, false
	}
	metric := v.Metrics[0]
	severity := strings.ToUpper(metric.Severity)
	if severity != "HIGH" && severity != "CRITICAL" {
		return Entry{}, false
	}
	return Entry{
		ID:          v.ID,
		Description: v.Description,
		Severity:    severity,
		Score:       metric.Score,
	}, true
}

func (s *service) matches(fields ...string) bool {
	for _, k := range s.cfg.Keywords {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), k) {
				return true
			}
		}
	}
	return false
}

func sortByScore(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ID < entries[j].ID
	})
}

// Format renders entries as the email section body.
func Format(entries []Entry) string {
	if len(entries) == 0 {
		return MsgNoCVEs
	}
	var b strings.Builder
	for _, e := range entries {
		id := html.EscapeString(e.ID)
		fmt.Fprintf(&b, "<a href='https://nvd.nist.gov/vuln/detail/%s' target='_blank'>%s</a><br>Severity: %s / %s<br>%s<br><br>",
			id, id, e.Severity, formatScore(e.Score), html.EscapeString(e.Description))
	}
	return b.String()
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}
