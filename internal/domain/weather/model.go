package weather

import "time"

// Period is one forecast window as published by the National Weather Service.
type Period struct {
	Number              int       `json:"number"`
	Name                string    `json:"name"`
	StartTime           time.Time `json:"startTime"`
	EndTime             time.Time `json:"endTime"`
	IsDaytime           bool      `json:"isDaytime"`
	Temperature         float64   `json:"temperature"`
	TemperatureUnit     string    `json:"temperatureUnit"`
	PrecipitationChance *float64  `json:"precipitationChance"`
	WindSpeed           string    `json:"windSpeed"`
	WindDirection       string    `json:"windDirection"`
	ShortForecast       string    `json:"shortForecast"`
	DetailedForecast    string    `json:"detailedForecast"`
}

// Precipitation returns the probability of precipitation, treating a missing value as zero.
func (p Period) Precipitation() float64 {
	if p.PrecipitationChance == nil {
		return 0
	}
	return *p.PrecipitationChance
}

// Report is handed to the briefing composer.
type Report struct {
	Date    string   `json:"date"`
	Message string   `json:"message"`
	Periods []Period `json:"periods"`
}

// Config wires runtime settings for the weather domain.
type Config struct {
	// MessagePeriods is how many leading periods are rendered in the email.
	MessagePeriods int
	// SnapshotKind prefixes the persisted forecast file name.
	SnapshotKind string
}
