package wardrobe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/daily-briefing/internal/domain/weather"
	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
)

func TestFeelsLike(t *testing.T) {
	cases := []struct {
		name      string
		raw, wind float64
		want      float64
	}{
		{name: "wind chill", raw: 45, wind: 10, want: 40.8},
		{name: "wind chill cold", raw: 30, wind: 15, want: 20.0},
		{name: "calm and cold", raw: 48, wind: 2, want: 48},
		{name: "linear band", raw: 60, wind: 10, want: 59},
		{name: "linear band rounds half to even", raw: 55, wind: 5, want: 54},
		{name: "warm", raw: 80, wind: 20, want: 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, FeelsLike(tc.raw, tc.wind), 1e-9)
		})
	}
}

func TestParseWindSpeed(t *testing.T) {
	speed, err := ParseWindSpeed("5 to 10 mph")
	require.NoError(t, err)
	require.Equal(t, 10.0, speed)

	speed, err = ParseWindSpeed("7 mph")
	require.NoError(t, err)
	require.Equal(t, 7.0, speed)

	_, err = ParseWindSpeed("calm")
	require.True(t, apperrors.IsCode(err, apperrors.CodeForecastInvalid))
}

func TestNormalize(t *testing.T) {
	zone := time.FixedZone("CDT", -5*60*60)
	rain := 40.0
	at := func(day, hour int) time.Time {
		return time.Date(2024, time.July, day, hour, 0, 0, 0, zone)
	}
	periods := []weather.Period{
		{Name: "Monday", StartTime: at(8, 6), IsDaytime: true, Temperature: 45, WindSpeed: "5 to 10 mph", PrecipitationChance: &rain},
		{Name: "Monday Night", StartTime: at(8, 18), IsDaytime: false, Temperature: 30, WindSpeed: "10 mph"},
		{Name: "Tuesday", StartTime: at(9, 6), IsDaytime: true, Temperature: 70, WindSpeed: "5 mph"},
		{Name: "Tuesday Update", StartTime: at(9, 9), IsDaytime: true, Temperature: 72, WindSpeed: "5 mph"},
		{Name: "Saturday", StartTime: at(13, 6), IsDaytime: true, Temperature: 90, WindSpeed: "5 mph"},
	}

	forecast, err := Normalize(periods, DefaultWorkdays())
	require.NoError(t, err)
	require.Len(t, forecast, 2)

	monday := forecast[time.Monday]
	require.Equal(t, 40.8, monday.FeelsLike)
	require.Equal(t, 45.0, monday.RawTemperature)
	require.Equal(t, 40.0, monday.PrecipitationChance)
	require.Equal(t, 10.0, monday.WindSpeed)
	require.Equal(t, at(8, 0), monday.Date)
	require.Equal(t, "Monday", monday.DayName())

	tuesday := forecast[time.Tuesday]
	require.Equal(t, 72.0, tuesday.RawTemperature)
	require.Zero(t, tuesday.PrecipitationChance)
}

func TestNormalizeRejectsBadWind(t *testing.T) {
	periods := []weather.Period{
		{StartTime: time.Date(2024, time.July, 8, 6, 0, 0, 0, time.UTC), IsDaytime: true, Temperature: 60, WindSpeed: "gusty"},
	}
	_, err := Normalize(periods, DefaultWorkdays())
	require.True(t, apperrors.IsCode(err, apperrors.CodeForecastInvalid))
}
