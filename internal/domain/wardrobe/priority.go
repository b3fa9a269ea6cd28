package wardrobe

import (
	"math"
	"sort"
)

const (
	temperatureWeight   = 3.0
	precipitationWeight = 0.5
)

// PriorityEntry ranks one workday for selection.
type PriorityEntry struct {
	Day   ForecastDay
	Band  TemperatureBand
	Score float64
}

// TemperaturePenalty is the distance to the band's upper bound, weighted.
func TemperaturePenalty(feelsLike float64, band TemperatureBand) float64 {
	return math.Abs(feelsLike-band.Max) * temperatureWeight
}

// PrecipitationPenalty grows super-linearly with the chance of rain.
func PrecipitationPenalty(chance float64) float64 {
	return math.Pow(chance/100, 1.5) * 100 * precipitationWeight
}

// Prioritize scores every forecast day and sorts them. Ties fall back to the
// shirt category name, then to the date.
func Prioritize(forecast Forecast, rules *RuleSet, order Order) ([]PriorityEntry, error) {
	entries := make([]PriorityEntry, 0, len(forecast))
	for _, day := range forecast {
		band, err := rules.ShirtBand(day.FeelsLike)
		if err != nil {
			return nil, err
		}
		entries = append(entries, PriorityEntry{
			Day:   day,
			Band:  band,
			Score: TemperaturePenalty(day.FeelsLike, band) + PrecipitationPenalty(day.PrecipitationChance),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			if order == OrderDescending {
				return a.Score > b.Score
			}
			return a.Score < b.Score
		}
		if a.Band.Shirt.Name() != b.Band.Shirt.Name() {
			return a.Band.Shirt.Name() < b.Band.Shirt.Name()
		}
		return a.Day.Date.Before(b.Day.Date)
	})
	return entries, nil
}
