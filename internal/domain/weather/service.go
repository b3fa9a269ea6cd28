package weather

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

const defaultSnapshotKind = "nws"

// Service fetches and persists forecasts.
type Service interface {
	Refresh(ctx context.Context, date time.Time) (Report, error)
	Periods(ctx context.Context, date time.Time) ([]Period, bool, error)
}

// ForecastClient retrieves the current forecast from upstream.
type ForecastClient interface {
	Forecast(ctx context.Context) ([]Period, error)
}

// SnapshotStore persists JSON documents keyed by kind and calendar date.
type SnapshotStore interface {
	Save(ctx context.Context, kind string, date time.Time, v any) error
	Load(ctx context.Context, kind string, date time.Time, v any) (bool, error)
}

type service struct {
	cfg    Config
	client ForecastClient
	store  SnapshotStore
	logger *slog.Logger
}

// NewService wires up the weather domain.
func NewService(cfg Config, client ForecastClient, store SnapshotStore, logger *slog.Logger) Service {
	if cfg.MessagePeriods <= 0 {
		cfg.MessagePeriods = 3
	}
	if strings.TrimSpace(cfg.SnapshotKind) == "" {
		cfg.SnapshotKind = defaultSnapshotKind
	}
	return &service{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger.With("component", "weather.service"),
	}
}

func (s *service) Refresh(ctx context.Context, date time.Time) (Report, error) {
	periods, err := s.client.Forecast(ctx)
	if err != nil {
		return Report{}, apperrors.Wrap(apperrors.CodeUpstream, "failed to fetch forecast", err)
	}
	if len(periods) == 0 {
		return Report{}, apperrors.Wrap(apperrors.CodeUpstream, "forecast contained no periods", nil)
	}
	if err := s.store.Save(ctx, s.cfg.SnapshotKind, date, periods); err != nil {
		return Report{}, apperrors.Wrap(apperrors.CodePersistence, "failed to persist forecast", err)
	}
	s.logger.Info("forecast refreshed", "date", util.ISODate(date), "periods", len(periods))

	return Report{
		Date:    util.ISODate(date),
		Message: buildMessage(periods, s.cfg.MessagePeriods),
		Periods: periods,
	}, nil
}

func (s *service) Periods(ctx context.Context, date time.Time) ([]Period, bool, error) {
	var periods []Period
	found, err := s.store.Load(ctx, s.cfg.SnapshotKind, date, &periods)
	if err != nil {
		return nil, false, fmt.Errorf("load forecast snapshot: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return periods, true, nil
}

func buildMessage(periods []Period, limit int) string {
	var b strings.Builder
	for i, p := range periods {
		if i >= limit {
			break
		}
		fmt.Fprintf(&b, "<b><u>%s</u></b><br>%s<br><br>", html.EscapeString(p.Name), html.EscapeString(p.DetailedForecast))
	}
	return b.String()
}
