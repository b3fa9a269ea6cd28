package wardrobe

import (
	"strings"
	"time"
)

// DayOffNote is stored in place of an outfit on non-working dates.
const DayOffNote = "No work today!"

// Summaries returned when no outfit applies.
const (
	MsgForecastMissing = "Forecast does not exist."
	MsgScheduleMissing = "Weekly schedule does not exist."
	MsgNothingPlanned  = "No outfit planned."
)

// ForecastDay is one workday of normalized weather.
type ForecastDay struct {
	Date                time.Time    `json:"date"`
	Weekday             time.Weekday `json:"weekday"`
	RawTemperature      float64      `json:"rawTemperature"`
	FeelsLike           float64      `json:"feelsLikeTemperature"`
	PrecipitationChance float64      `json:"precipitationChance"`
	WindSpeed           float64      `json:"windSpeed"`
}

// DayName returns the English weekday name.
func (d ForecastDay) DayName() string {
	return d.Weekday.String()
}

// Forecast holds at most one ForecastDay per weekday.
type Forecast map[time.Weekday]ForecastDay

// Footwear is a concrete pair of shoes plus the category it was drawn for.
type Footwear struct {
	Category string `json:"category"`
	Item     string `json:"item"`
}

// Color is the first token of the item name ("brown captain" -> "brown").
func (f Footwear) Color() string {
	return footwearColor(f.Item)
}

func footwearColor(item string) string {
	fields := strings.Fields(item)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Shirt is a concrete shirt: its category and "/"-separated color tokens.
type Shirt struct {
	Category string `json:"category"`
	Color    string `json:"color"`
}

// Outfit is the full assignment for one workday.
type Outfit struct {
	Footwear Footwear `json:"footwear"`
	Bottoms  string   `json:"bottoms"`
	Belt     string   `json:"belt"`
	Shirt    Shirt    `json:"shirt"`
	Jacket   bool     `json:"jacket"`
}

// Items is the configured inventory before any run consumes it.
type Items struct {
	Bottoms  []string
	Shirts   map[string][]string
	Footwear map[string][]string
	Belts    []string
}

// Status describes which branch a wardrobe run took.
type Status string

const (
	StatusSkipped             Status = "skipped"
	StatusForecastUnavailable Status = "forecast_unavailable"
	StatusScheduleMissing     Status = "schedule_missing"
	StatusPreview             Status = "preview"
	StatusOutfit              Status = "outfit"
	StatusNoWork              Status = "no_work"
)

// Result is returned to the briefing composer.
type Result struct {
	Status   Status    `json:"status"`
	Summary  string    `json:"summary"`
	WeekOf   time.Time `json:"weekOf"`
	Schedule Schedule  `json:"schedule,omitempty"`
	Changed  bool      `json:"changed"`
}

// Order controls how prioritized days are sorted by score.
type Order string

const (
	OrderAscending  Order = "ascending"
	OrderDescending Order = "descending"
)

// Config wires runtime settings for the wardrobe domain.
type Config struct {
	GenerationDay time.Weekday
	Workdays      []time.Weekday
	Order         Order
	// Seed fixes the random draws; zero picks a fresh seed per run.
	Seed uint64
}

// DefaultWorkdays is Monday through Friday.
func DefaultWorkdays() []time.Weekday {
	return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
}
