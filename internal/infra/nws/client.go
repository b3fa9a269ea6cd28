package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/yanqian/daily-briefing/internal/domain/weather"
)

const defaultBaseURL = "https://api.weather.gov/gridpoints/TOP/31,80/forecast"

// Client fetches gridpoint forecasts from api.weather.gov.
type Client struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

// NewClient builds an API client. NWS rejects requests without a User-Agent.
func NewClient(forecastURL, userAgent string, httpClient *http.Client) *Client {
	u := strings.TrimSpace(forecastURL)
	if u == "" {
		u = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		url:        u,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// Forecast retrieves the current forecast periods.
func (c *Client) Forecast(ctx context.Context) ([]weather.Period, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("forecast request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	return normalizePeriods(raw.Properties.Periods), nil
}

type apiResponse struct {
	Properties apiProperties `json:"properties"`
}

type apiProperties struct {
	Updated string      `json:"updated"`
	Periods []apiPeriod `json:"periods"`
}

type apiPeriod struct {
	Number                     int          `json:"number"`
	Name                       string       `json:"name"`
	StartTime                  string       `json:"startTime"`
	EndTime                    string       `json:"endTime"`
	IsDaytime                  bool         `json:"isDaytime"`
	Temperature                float64      `json:"temperature"`
	TemperatureUnit            string       `json:"temperatureUnit"`
	ProbabilityOfPrecipitation quantitative `json:"probabilityOfPrecipitation"`
	WindSpeed                  string       `json:"windSpeed"`
	WindDirection              string       `json:"windDirection"`
	ShortForecast              string       `json:"shortForecast"`
	DetailedForecast           string       `json:"detailedForecast"`
}

type quantitative struct {
	UnitCode string   `json:"unitCode"`
	Value    *float64 `json:"value"`
}

// normalizePeriods drops periods without a parsable start time and orders the rest by number.
func normalizePeriods(raw []apiPeriod) []weather.Period {
	periods := make([]weather.Period, 0, len(raw))
	for _, p := range raw {
		start := parseTime(p.StartTime)
		if start.IsZero() {
			continue
		}
		periods = append(periods, weather.Period{
			Number:              p.Number,
			Name:                p.Name,
			StartTime:           start,
			EndTime:             parseTime(p.EndTime),
			IsDaytime:           p.IsDaytime,
			Temperature:         p.Temperature,
			TemperatureUnit:     p.TemperatureUnit,
			PrecipitationChance: p.ProbabilityOfPrecipitation.Value,
			WindSpeed:           p.WindSpeed,
			WindDirection:       p.WindDirection,
			ShortForecast:       p.ShortForecast,
			DetailedForecast:    p.DetailedForecast,
		})
	}
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].Number < periods[j].Number
	})
	return periods
}

func parseTime(value string) time.Time {
	if strings.TrimSpace(value) == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
