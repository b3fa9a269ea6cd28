package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/yanqian/daily-briefing/internal/domain/briefing"
	"github.com/yanqian/daily-briefing/internal/infra/config"
	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// Scheduler fires a briefing run at each configured slot time.
type Scheduler struct {
	briefing briefing.Service
	slots    []time.Duration
	loc      *time.Location
	now      func() time.Time
	wait     func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
}

// NewScheduler builds a scheduler from the slot clock times.
func NewScheduler(cfg *config.Config, briefingSvc briefing.Service, logger *slog.Logger) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfiguration, "invalid timezone", err)
	}
	var slots []time.Duration
	for _, clock := range []string{cfg.Slots.Morning, cfg.Slots.Midday} {
		offset, err := config.ParseClock(clock)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfiguration, fmt.Sprintf("invalid slot time %q", clock), err)
		}
		slots = append(slots, offset)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return &Scheduler{
		briefing: briefingSvc,
		slots:    slots,
		loc:      loc,
		now:      time.Now,
		wait:     sleepContext,
		logger:   logger.With("component", "bootstrap.scheduler"),
	}, nil
}

// Run blocks until ctx is cancelled, running one briefing per slot.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		now := s.now().In(s.loc)
		next := s.nextRun(now)
		s.logger.Info("next briefing scheduled", "at", next.Format(time.RFC3339), "slot", util.SlotOf(next))
		if err := s.wait(ctx, next.Sub(now)); err != nil {
			s.logger.Info("scheduler stopped")
			return
		}
		report, err := s.briefing.Run(ctx)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeRunInProgress) {
				s.logger.Warn("skipping slot, previous run still active", "slot", util.SlotOf(next))
				continue
			}
			s.logger.Error("scheduled briefing failed", "slot", util.SlotOf(next), "error", err)
			continue
		}
		s.logger.Info("scheduled briefing finished", "runId", report.RunID, "slot", report.Slot, "warnings", len(report.Warnings))
	}
}

// nextRun returns the first slot strictly after now, rolling into tomorrow.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	day := util.StartOfDay(now)
	for _, offset := range s.slots {
		candidate := atClock(day, offset)
		if candidate.After(now) {
			return candidate
		}
	}
	return atClock(day.AddDate(0, 0, 1), s.slots[0])
}

// atClock adds the wall clock offset to midnight, staying correct across DST shifts.
func atClock(day time.Time, offset time.Duration) time.Time {
	hours := int(offset / time.Hour)
	minutes := int((offset % time.Hour) / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, 0, 0, day.Location())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
