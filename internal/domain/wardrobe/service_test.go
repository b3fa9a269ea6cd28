package wardrobe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/daily-briefing/internal/domain/weather"
	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

type stubForecastSource struct {
	byDate map[string][]weather.Period
}

func (s *stubForecastSource) Periods(_ context.Context, date time.Time) ([]weather.Period, bool, error) {
	periods, ok := s.byDate[util.ISODate(date)]
	return periods, ok, nil
}

type stubScheduleStore struct {
	data    map[string]Schedule
	saves   int
	saveErr error
}

func newStubScheduleStore() *stubScheduleStore {
	return &stubScheduleStore{data: make(map[string]Schedule)}
}

func (s *stubScheduleStore) Load(_ context.Context, weekOf time.Time) (Schedule, bool, error) {
	schedule, ok := s.data[util.ISODate(weekOf)]
	if !ok {
		return nil, false, nil
	}
	return schedule.Clone(), true, nil
}

func (s *stubScheduleStore) Save(_ context.Context, weekOf time.Time, schedule Schedule) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.data[util.ISODate(weekOf)] = schedule.Clone()
	return nil
}

type stubRulesLoader struct {
	rules *RuleSet
	items Items
}

func (s *stubRulesLoader) Load(context.Context) (*RuleSet, Items, error) {
	return s.rules, s.items, nil
}

func workweekPeriods(precipByDay map[int]float64) []weather.Period {
	var periods []weather.Period
	for day := 8; day <= 12; day++ {
		precip := precipByDay[day]
		periods = append(periods, weather.Period{
			Name:                time.Date(2024, time.July, day, 0, 0, 0, 0, time.UTC).Weekday().String(),
			StartTime:           time.Date(2024, time.July, day, 6, 0, 0, 0, time.UTC),
			IsDaytime:           true,
			Temperature:         80,
			WindSpeed:           "5 mph",
			PrecipitationChance: &precip,
		})
	}
	return periods
}

func newTestService(forecast ForecastSource, store ScheduleStore, rules *RuleSet) *service {
	return &service{
		cfg:        Config{GenerationDay: time.Sunday, Workdays: DefaultWorkdays(), Order: OrderAscending},
		forecast:   forecast,
		store:      store,
		rules:      &stubRulesLoader{rules: rules, items: testItems()},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newChooser: func() Chooser { return fixedChooser{} },
	}
}

var (
	sunday  = time.Date(2024, time.July, 7, 8, 0, 0, 0, time.UTC)
	tuesday = time.Date(2024, time.July, 9, 8, 0, 0, 0, time.UTC)
)

func TestServiceRunGeneratesOnGenerationDay(t *testing.T) {
	forecast := &stubForecastSource{byDate: map[string][]weather.Period{"2024-07-07": workweekPeriods(nil)}}
	store := newStubScheduleStore()
	svc := newTestService(forecast, store, testRules())

	res, err := svc.Run(context.Background(), sunday)
	require.NoError(t, err)
	require.Equal(t, StatusPreview, res.Status)
	require.True(t, res.Changed)
	require.Equal(t, 1, store.saves)
	require.Equal(t, util.StartOfDay(sunday), res.WeekOf)

	saved := store.data["2024-07-07"]
	require.NotNil(t, saved[time.Monday].Outfit)
	require.Equal(t, "khaki", saved[time.Monday].Outfit.Bottoms)
	require.True(t, saved[time.Saturday].IsEmpty())
	require.Contains(t, res.Summary, "<u><b>Monday</b></u><br><i>Boots:</i> Brown Captain<br><i>Chinos:</i> Khaki")
	require.Contains(t, res.Summary, "<u><b>Friday</b></u><br>")
}

func TestServiceRunRevalidatesToday(t *testing.T) {
	forecast := &stubForecastSource{byDate: map[string][]weather.Period{
		"2024-07-07": workweekPeriods(nil),
		"2024-07-09": workweekPeriods(map[int]float64{9: 80}),
	}}
	store := newStubScheduleStore()
	svc := newTestService(forecast, store, testRules())

	_, err := svc.Run(context.Background(), sunday)
	require.NoError(t, err)
	planned := store.data["2024-07-07"].Clone()

	res, err := svc.Run(context.Background(), tuesday)
	require.NoError(t, err)
	require.Equal(t, StatusOutfit, res.Status)
	require.True(t, res.Changed)
	require.Equal(t, 2, store.saves)
	require.Contains(t, res.Summary, "<i>Boots:</i> Danner")
	require.Contains(t, res.Summary, "<i>Jacket: </i>Yes")

	saved := store.data["2024-07-07"]
	require.Equal(t, "danner", saved[time.Tuesday].Outfit.Footwear.Item)
	requireOtherDaysUntouched(t, planned, saved, time.Tuesday)

	res, err = svc.Run(context.Background(), tuesday.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, res.Changed)
	require.Equal(t, 2, store.saves)
}

func TestServiceRunStatuses(t *testing.T) {
	t.Run("midday is skipped", func(t *testing.T) {
		svc := newTestService(&stubForecastSource{}, newStubScheduleStore(), testRules())
		res, err := svc.Run(context.Background(), sunday.Add(5*time.Hour))
		require.NoError(t, err)
		require.Equal(t, StatusSkipped, res.Status)
		require.Empty(t, res.Summary)
	})

	t.Run("missing forecast", func(t *testing.T) {
		svc := newTestService(&stubForecastSource{}, newStubScheduleStore(), testRules())
		res, err := svc.Run(context.Background(), tuesday)
		require.NoError(t, err)
		require.Equal(t, StatusForecastUnavailable, res.Status)
		require.Equal(t, MsgForecastMissing, res.Summary)
	})

	t.Run("missing schedule", func(t *testing.T) {
		forecast := &stubForecastSource{byDate: map[string][]weather.Period{"2024-07-09": workweekPeriods(nil)}}
		store := newStubScheduleStore()
		svc := newTestService(forecast, store, testRules())
		res, err := svc.Run(context.Background(), tuesday)
		require.NoError(t, err)
		require.Equal(t, StatusScheduleMissing, res.Status)
		require.Equal(t, MsgScheduleMissing, res.Summary)
		require.Zero(t, store.saves)
	})

	t.Run("day off", func(t *testing.T) {
		rules := testRules()
		rules.DaysOff = NewCalendar(tuesday)
		forecast := &stubForecastSource{byDate: map[string][]weather.Period{
			"2024-07-07": workweekPeriods(nil),
			"2024-07-09": workweekPeriods(nil),
		}}
		store := newStubScheduleStore()
		svc := newTestService(forecast, store, rules)

		_, err := svc.Run(context.Background(), sunday)
		require.NoError(t, err)
		require.Equal(t, DayOffNote, store.data["2024-07-07"][time.Tuesday].Note)

		res, err := svc.Run(context.Background(), tuesday)
		require.NoError(t, err)
		require.Equal(t, StatusNoWork, res.Status)
		require.Equal(t, DayOffNote, res.Summary)
	})
}

func TestServiceRunSaveFailure(t *testing.T) {
	forecast := &stubForecastSource{byDate: map[string][]weather.Period{"2024-07-07": workweekPeriods(nil)}}
	store := newStubScheduleStore()
	store.saveErr = errors.New("disk full")
	svc := newTestService(forecast, store, testRules())

	_, err := svc.Run(context.Background(), sunday)
	require.True(t, apperrors.IsCode(err, apperrors.CodePersistence))
	require.Empty(t, store.data)
}

func TestServicePreviewAndSchedule(t *testing.T) {
	forecast := &stubForecastSource{byDate: map[string][]weather.Period{"2024-07-07": workweekPeriods(nil)}}
	store := newStubScheduleStore()
	svc := newTestService(forecast, store, testRules())

	res, err := svc.Preview(context.Background(), tuesday)
	require.NoError(t, err)
	require.Equal(t, StatusScheduleMissing, res.Status)

	_, err = svc.Run(context.Background(), sunday)
	require.NoError(t, err)

	res, err = svc.Preview(context.Background(), tuesday)
	require.NoError(t, err)
	require.Equal(t, StatusPreview, res.Status)
	require.False(t, res.Changed)
	require.Equal(t, 1, store.saves)

	schedule, found, err := svc.Schedule(context.Background(), sunday)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, res.Schedule, schedule)
}
