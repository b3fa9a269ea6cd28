package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

type stubClient struct {
	periods []Period
	err     error
}

func (s stubClient) Forecast(context.Context) ([]Period, error) {
	return s.periods, s.err
}

type memorySnapshots struct {
	data map[string][]Period
	err  error
}

func (m *memorySnapshots) Save(_ context.Context, kind string, date time.Time, v any) error {
	if m.err != nil {
		return m.err
	}
	m.data[kind+"_"+util.FileDate(date)] = v.([]Period)
	return nil
}

func (m *memorySnapshots) Load(_ context.Context, kind string, date time.Time, v any) (bool, error) {
	periods, ok := m.data[kind+"_"+util.FileDate(date)]
	if !ok {
		return false, nil
	}
	*(v.(*[]Period)) = periods
	return true, nil
}

func newTestService(client ForecastClient, store SnapshotStore) *service {
	return NewService(Config{}, client, store, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
}

func samplePeriods() []Period {
	return []Period{
		{Number: 1, Name: "Today", DetailedForecast: "Sunny & warm."},
		{Number: 2, Name: "Tonight", DetailedForecast: "Clear."},
		{Number: 3, Name: "Monday", DetailedForecast: "Showers."},
		{Number: 4, Name: "Monday Night", DetailedForecast: "Cloudy."},
	}
}

func TestRefreshPersistsAndFormats(t *testing.T) {
	store := &memorySnapshots{data: map[string][]Period{}}
	svc := newTestService(stubClient{periods: samplePeriods()}, store)
	date := time.Date(2024, 7, 7, 6, 0, 0, 0, time.UTC)

	report, err := svc.Refresh(context.Background(), date)
	require.NoError(t, err)
	require.Equal(t, "2024-07-07", report.Date)
	require.Equal(t,
		"<b><u>Today</u></b><br>Sunny &amp; warm.<br><br>"+
			"<b><u>Tonight</u></b><br>Clear.<br><br>"+
			"<b><u>Monday</u></b><br>Showers.<br><br>",
		report.Message)
	require.Len(t, store.data["nws_20240707"], 4)

	periods, found, err := svc.Periods(context.Background(), date)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, periods, 4)

	_, found, err = svc.Periods(context.Background(), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.False(t, found)
}

func TestRefreshErrors(t *testing.T) {
	date := time.Date(2024, 7, 7, 6, 0, 0, 0, time.UTC)

	svc := newTestService(stubClient{err: errors.New("timeout")}, &memorySnapshots{data: map[string][]Period{}})
	_, err := svc.Refresh(context.Background(), date)
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	svc = newTestService(stubClient{}, &memorySnapshots{data: map[string][]Period{}})
	_, err = svc.Refresh(context.Background(), date)
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	svc = newTestService(stubClient{periods: samplePeriods()}, &memorySnapshots{err: errors.New("disk full")})
	_, err = svc.Refresh(context.Background(), date)
	require.True(t, apperrors.IsCode(err, apperrors.CodePersistence))
}
