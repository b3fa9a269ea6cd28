package wardrobe

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/daily-briefing/internal/domain/weather"
	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// Service plans the week's outfits and keeps today's outfit in line with the weather.
type Service interface {
	Run(ctx context.Context, now time.Time) (Result, error)
	Preview(ctx context.Context, now time.Time) (Result, error)
	Schedule(ctx context.Context, weekOf time.Time) (Schedule, bool, error)
}

// ForecastSource returns the forecast snapshot saved for a date.
type ForecastSource interface {
	Periods(ctx context.Context, date time.Time) ([]weather.Period, bool, error)
}

// ScheduleStore persists one schedule per cycle, keyed by the generation date.
type ScheduleStore interface {
	Load(ctx context.Context, weekOf time.Time) (Schedule, bool, error)
	Save(ctx context.Context, weekOf time.Time, schedule Schedule) error
}

// RulesLoader reads the rule set and the configured inventory.
type RulesLoader interface {
	Load(ctx context.Context) (*RuleSet, Items, error)
}

type service struct {
	cfg        Config
	forecast   ForecastSource
	store      ScheduleStore
	rules      RulesLoader
	logger     *slog.Logger
	newChooser func() Chooser
}

// NewService wires up the wardrobe domain.
func NewService(cfg Config, forecast ForecastSource, store ScheduleStore, rules RulesLoader, logger *slog.Logger) Service {
	if len(cfg.Workdays) == 0 {
		cfg.Workdays = DefaultWorkdays()
	}
	if cfg.Order == "" {
		cfg.Order = OrderAscending
	}
	seed := cfg.Seed
	return &service{
		cfg:        cfg,
		forecast:   forecast,
		store:      store,
		rules:      rules,
		logger:     logger.With("component", "wardrobe.service"),
		newChooser: func() Chooser { return NewChooser(seed) },
	}
}

func (s *service) Run(ctx context.Context, now time.Time) (Result, error) {
	if util.SlotOf(now) != util.SlotMorning {
		return Result{Status: StatusSkipped}, nil
	}
	rules, items, err := s.rules.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	periods, found, err := s.forecast.Periods(ctx, now)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodePersistence, "failed to read forecast snapshot", err)
	}
	if !found {
		s.logger.Warn("forecast snapshot missing", "date", util.ISODate(now))
		return Result{Status: StatusForecastUnavailable, Summary: MsgForecastMissing}, nil
	}
	forecast, err := Normalize(periods, s.cfg.Workdays)
	if err != nil {
		return Result{}, err
	}

	weekOf := util.MostRecent(now, s.cfg.GenerationDay)
	inv := NewInventory(items, rules)
	if now.Weekday() == s.cfg.GenerationDay {
		return s.generate(ctx, weekOf, forecast, rules, inv)
	}
	return s.revalidate(ctx, now, weekOf, forecast, rules, inv)
}

func (s *service) generate(ctx context.Context, weekOf time.Time, forecast Forecast, rules *RuleSet, inv *Inventory) (Result, error) {
	entries, err := Prioritize(forecast, rules, s.cfg.Order)
	if err != nil {
		return Result{}, err
	}
	schedule, err := Generate(entries, rules, inv, s.newChooser())
	if err != nil {
		s.logger.Error("schedule generation failed", "weekOf", util.ISODate(weekOf), "error", err)
		return Result{}, err
	}
	if err := s.store.Save(ctx, weekOf, schedule); err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodePersistence, "failed to save weekly schedule", err)
	}
	s.logger.Info("weekly schedule generated", "weekOf", util.ISODate(weekOf), "days", len(entries), "unitsLeft", inv.Units())

	return Result{
		Status:   StatusPreview,
		Summary:  FormatPreview(schedule, s.cfg.Workdays),
		WeekOf:   weekOf,
		Schedule: schedule,
		Changed:  true,
	}, nil
}

func (s *service) revalidate(ctx context.Context, now, weekOf time.Time, forecast Forecast, rules *RuleSet, inv *Inventory) (Result, error) {
	schedule, found, err := s.store.Load(ctx, weekOf)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodePersistence, "failed to load weekly schedule", err)
	}
	if !found {
		s.logger.Warn("weekly schedule missing", "weekOf", util.ISODate(weekOf))
		return Result{Status: StatusScheduleMissing, Summary: MsgScheduleMissing, WeekOf: weekOf}, nil
	}

	today := now.Weekday()
	result := Result{WeekOf: weekOf, Schedule: schedule}
	if rules.DaysOff.IsDayOff(now) {
		result.Status, result.Summary = StatusNoWork, DayOffNote
		return result, nil
	}
	entry := schedule[today]
	if entry.Outfit == nil {
		result.Status, result.Summary = StatusNoWork, FormatEntry(entry)
		return result, nil
	}

	day, ok := forecast[today]
	if !ok {
		s.logger.Warn("no forecast for today, keeping planned outfit", "day", today.String())
		result.Status, result.Summary = StatusOutfit, FormatOutfit(*entry.Outfit)
		return result, nil
	}
	if missing := inv.ReserveCommitted(schedule, today); len(missing) > 0 {
		s.logger.Warn("committed items no longer in inventory", "items", missing)
	}

	working := schedule.Clone()
	changed, err := Revalidate(working, day, rules, inv, s.newChooser())
	switch {
	case apperrors.IsCode(err, apperrors.CodeInventoryExhausted):
		s.logger.Warn("revalidation found no alternative, keeping planned outfit", "day", today.String(), "error", err)
	case err != nil:
		return Result{}, err
	case changed:
		if err := s.store.Save(ctx, weekOf, working); err != nil {
			return Result{}, apperrors.Wrap(apperrors.CodePersistence, "failed to save revalidated schedule", err)
		}
		s.logger.Info("today's outfit revalidated", "day", today.String(), "weekOf", util.ISODate(weekOf))
		schedule = working
	}

	result.Schedule = schedule
	result.Changed = changed && err == nil
	result.Status = StatusOutfit
	result.Summary = FormatOutfit(*schedule[today].Outfit)
	return result, nil
}

func (s *service) Preview(ctx context.Context, now time.Time) (Result, error) {
	weekOf := util.MostRecent(now, s.cfg.GenerationDay)
	schedule, found, err := s.store.Load(ctx, weekOf)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodePersistence, "failed to load weekly schedule", err)
	}
	if !found {
		return Result{Status: StatusScheduleMissing, Summary: MsgScheduleMissing, WeekOf: weekOf}, nil
	}
	return Result{
		Status:   StatusPreview,
		Summary:  FormatPreview(schedule, s.cfg.Workdays),
		WeekOf:   weekOf,
		Schedule: schedule,
	}, nil
}

func (s *service) Schedule(ctx context.Context, weekOf time.Time) (Schedule, bool, error) {
	schedule, found, err := s.store.Load(ctx, util.StartOfDay(weekOf))
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.CodePersistence, "failed to load weekly schedule", err)
	}
	return schedule, found, nil
}
