package briefing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/daily-briefing/internal/domain/cve"
	"github.com/yanqian/daily-briefing/internal/domain/news"
	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/internal/domain/weather"
	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// Service composes and delivers the twice-daily briefing.
type Service interface {
	Run(ctx context.Context) (Report, error)
	SendPreview(ctx context.Context) (Report, error)
	Clean(ctx context.Context) (int, error)
}

// WeatherRefresher fetches and stores today's forecast.
type WeatherRefresher interface {
	Refresh(ctx context.Context, date time.Time) (weather.Report, error)
}

// WardrobePlanner produces the outfit section.
type WardrobePlanner interface {
	Run(ctx context.Context, now time.Time) (wardrobe.Result, error)
	Preview(ctx context.Context, now time.Time) (wardrobe.Result, error)
}

// NewsCollector produces the headlines section.
type NewsCollector interface {
	Collect(ctx context.Context, now time.Time) (news.Report, error)
}

// CVECollector produces the vulnerabilities section.
type CVECollector interface {
	Collect(ctx context.Context, now time.Time) (cve.Report, error)
}

// Archive keeps a copy of every sent email.
type Archive interface {
	Put(ctx context.Context, name string, body []byte) (string, error)
}

// Pruner is implemented by archives that clean up after themselves.
type Pruner interface {
	Prune(ctx context.Context, today time.Time) (int, error)
}

// Mailer delivers composed emails.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// Janitor prunes dated output files.
type Janitor interface {
	Clean(ctx context.Context, today time.Time) (int, error)
}

type service struct {
	cfg      Config
	weather  WeatherRefresher
	wardrobe WardrobePlanner
	news     NewsCollector
	cves     CVECollector
	archive  Archive
	mailer   Mailer
	janitor  Janitor
	now      func() time.Time
	running  atomic.Bool
	logger   *slog.Logger
}

// NewService wires up the briefing domain.
func NewService(
	cfg Config,
	forecast WeatherRefresher,
	planner WardrobePlanner,
	newsCollector NewsCollector,
	cveCollector CVECollector,
	archive Archive,
	mailer Mailer,
	janitor Janitor,
	logger *slog.Logger,
) Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &service{
		cfg:      cfg,
		weather:  forecast,
		wardrobe: planner,
		news:     newsCollector,
		cves:     cveCollector,
		archive:  archive,
		mailer:   mailer,
		janitor:  janitor,
		now:      time.Now,
		logger:   logger.With("component", "briefing.service"),
	}
}

func (s *service) acquire() error {
	if !s.running.CompareAndSwap(false, true) {
		return apperrors.Wrap(apperrors.CodeRunInProgress, "a briefing run is already in progress", nil)
	}
	return nil
}

func (s *service) release() {
	s.running.Store(false)
}

func (s *service) Run(ctx context.Context) (Report, error) {
	if err := s.acquire(); err != nil {
		return Report{}, err
	}
	defer s.release()

	now := s.now().In(s.cfg.Location)
	today := util.StartOfDay(now)
	slot := util.SlotOf(now)
	report := Report{RunID: uuid.NewString(), Slot: slot, Date: util.ISODate(now)}
	logger := s.logger.With("runId", report.RunID, "slot", slot)
	logger.Info("briefing run started", "date", report.Date)

	warn := func(section string, err error) {
		logger.Warn("section unavailable, using fallback", "section", section, "error", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", section, err))
	}

	report.Sections.Forecast = MsgForecastUnavailable
	if forecast, err := s.weather.Refresh(ctx, today); err != nil {
		warn("forecast", err)
	} else {
		report.Sections.Forecast = forecast.Message
	}

	var outfit wardrobe.Result
	if slot == util.SlotMorning {
		report.Sections.Wardrobe = MsgWardrobeUnavailable
		res, err := s.wardrobe.Run(ctx, now)
		if err != nil {
			warn("wardrobe", err)
		} else {
			outfit = res
			report.WardrobeStatus = res.Status
			report.Sections.Wardrobe = res.Summary
			if res.Status == wardrobe.StatusPreview {
				report.Sections.Wardrobe = MsgCheckPreview
			}
		}
	}

	report.Sections.News = MsgNewsUnavailable
	if headlines, err := s.news.Collect(ctx, now); err != nil {
		warn("news", err)
	} else {
		report.Sections.News = headlines.Message
	}

	report.Sections.CVEs = MsgCVEsUnavailable
	if vulns, err := s.cves.Collect(ctx, now); err != nil {
		warn("cves", err)
	} else {
		report.Sections.CVEs = vulns.Message
	}

	email, name, err := composeBriefing(slot, now, report.Sections)
	if err != nil {
		return Report{}, err
	}
	sent, err := s.deliver(ctx, logger, email, name)
	if err != nil {
		return Report{}, err
	}
	report.Emails = append(report.Emails, sent)

	if outfit.Status == wardrobe.StatusPreview {
		email, name, err := composePreview(now, outfit.Summary, false)
		if err != nil {
			return Report{}, err
		}
		sent, err := s.deliver(ctx, logger, email, name)
		if err != nil {
			return Report{}, err
		}
		report.Emails = append(report.Emails, sent)
	}

	if slot == util.SlotMorning && now.Weekday() == s.cfg.CleanupDay {
		removed, err := s.clean(ctx, today)
		if err != nil {
			warn("cleanup", err)
		}
		report.Cleaned = removed
	}

	logger.Info("briefing run finished", "emails", len(report.Emails), "warnings", len(report.Warnings))
	return report, nil
}

func (s *service) SendPreview(ctx context.Context) (Report, error) {
	if err := s.acquire(); err != nil {
		return Report{}, err
	}
	defer s.release()

	now := s.now().In(s.cfg.Location)
	report := Report{RunID: uuid.NewString(), Slot: util.SlotOf(now), Date: util.ISODate(now)}
	logger := s.logger.With("runId", report.RunID)

	res, err := s.wardrobe.Preview(ctx, now)
	if err != nil {
		return Report{}, err
	}
	if res.Status == wardrobe.StatusScheduleMissing {
		return Report{}, apperrors.Wrap(apperrors.CodeNotFound, wardrobe.MsgScheduleMissing, nil)
	}
	report.WardrobeStatus = res.Status
	report.Sections.Wardrobe = res.Summary

	email, name, err := composePreview(now, res.Summary, true)
	if err != nil {
		return Report{}, err
	}
	sent, err := s.deliver(ctx, logger, email, name)
	if err != nil {
		return Report{}, err
	}
	report.Emails = append(report.Emails, sent)
	return report, nil
}

func (s *service) Clean(ctx context.Context) (int, error) {
	return s.clean(ctx, util.StartOfDay(s.now().In(s.cfg.Location)))
}

func (s *service) clean(ctx context.Context, today time.Time) (int, error) {
	removed, err := s.janitor.Clean(ctx, today)
	if pruner, ok := s.archive.(Pruner); ok {
		pruned, pruneErr := pruner.Prune(ctx, today)
		removed += pruned
		err = errors.Join(err, pruneErr)
	}
	return removed, err
}

// deliver archives then sends. A failed archive write does not block delivery.
func (s *service) deliver(ctx context.Context, logger *slog.Logger, email Email, name string) (SentEmail, error) {
	sent := SentEmail{Subject: email.Subject}
	location, err := s.archive.Put(ctx, name, []byte(email.HTML))
	if err != nil {
		logger.Warn("failed to archive email", "name", name, "error", err)
	} else {
		sent.Archive = location
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		return SentEmail{}, apperrors.Wrap(apperrors.CodeUpstream, fmt.Sprintf("failed to send %q", email.Subject), err)
	}
	logger.Info("email delivered", "subject", email.Subject, "archive", sent.Archive)
	return sent, nil
}
