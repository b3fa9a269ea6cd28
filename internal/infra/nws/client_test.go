package nws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const forecastBody = `{
  "properties": {
    "updated": "2024-07-07T10:00:00+00:00",
    "periods": [
      {
        "number": 2,
        "name": "Tonight",
        "startTime": "2024-07-07T18:00:00-05:00",
        "endTime": "2024-07-08T06:00:00-05:00",
        "isDaytime": false,
        "temperature": 70,
        "temperatureUnit": "F",
        "probabilityOfPrecipitation": {"unitCode": "wmoUnit:percent", "value": null},
        "windSpeed": "5 mph",
        "windDirection": "S",
        "shortForecast": "Clear",
        "detailedForecast": "Clear, with a low around 70."
      },
      {
        "number": 1,
        "name": "Today",
        "startTime": "2024-07-07T06:00:00-05:00",
        "endTime": "2024-07-07T18:00:00-05:00",
        "isDaytime": true,
        "temperature": 88,
        "temperatureUnit": "F",
        "probabilityOfPrecipitation": {"unitCode": "wmoUnit:percent", "value": 40},
        "windSpeed": "5 to 10 mph",
        "windDirection": "SW",
        "shortForecast": "Chance Showers",
        "detailedForecast": "A chance of showers. High near 88."
      },
      {
        "number": 3,
        "name": "Broken",
        "startTime": "not a time"
      }
    ]
  }
}`

func TestClientForecast(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "daily-briefing (test@example.com)", srv.Client())
	periods, err := client.Forecast(context.Background())
	require.NoError(t, err)
	require.Equal(t, "daily-briefing (test@example.com)", userAgent)
	require.Len(t, periods, 2)

	today := periods[0]
	require.Equal(t, "Today", today.Name)
	require.True(t, today.IsDaytime)
	require.Equal(t, 88.0, today.Temperature)
	require.Equal(t, 40.0, today.Precipitation())
	require.Equal(t, "5 to 10 mph", today.WindSpeed)
	require.True(t, today.StartTime.Equal(time.Date(2024, 7, 7, 11, 0, 0, 0, time.UTC)))

	require.Nil(t, periods[1].PrecipitationChance)
	require.Equal(t, 0.0, periods[1].Precipitation())
}

func TestClientForecastStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "grid unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "ua", srv.Client()).Forecast(context.Background())
	require.ErrorContains(t, err, "status=503")
}
