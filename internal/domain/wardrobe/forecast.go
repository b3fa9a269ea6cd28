package wardrobe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yanqian/daily-briefing/internal/domain/weather"
	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

const (
	windChillCeiling = 50.0
	windChillMinWind = 3.0
	linearCeiling    = 65.0
	linearWindFactor = 0.1
)

// FeelsLike applies the wind adjustments to a raw temperature in °F.
func FeelsLike(raw, wind float64) float64 {
	switch {
	case raw <= windChillCeiling && wind >= windChillMinWind:
		v := math.Pow(wind, 0.16)
		chill := 36.74 + 0.6215*raw - 35.75*v + 0.4275*raw*v
		return decimal.NewFromFloat(chill).RoundBank(1).InexactFloat64()
	case raw > windChillCeiling && raw <= linearCeiling:
		return decimal.NewFromFloat(raw - linearWindFactor*wind).RoundBank(0).InexactFloat64()
	default:
		return raw
	}
}

// ParseWindSpeed reads the upper bound of strings like "5 to 10 mph" or "7 mph".
func ParseWindSpeed(raw string) (float64, error) {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return 0, apperrors.Wrap(apperrors.CodeForecastInvalid, fmt.Sprintf("unparsable wind speed %q", raw), nil)
	}
	speed, err := strconv.ParseFloat(fields[len(fields)-2], 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeForecastInvalid, fmt.Sprintf("unparsable wind speed %q", raw), err)
	}
	return speed, nil
}

// Normalize keeps the daytime periods that fall on a workday. A later period
// for the same weekday replaces an earlier one.
func Normalize(periods []weather.Period, workdays []time.Weekday) (Forecast, error) {
	allowed := make(map[time.Weekday]bool, len(workdays))
	for _, d := range workdays {
		allowed[d] = true
	}
	forecast := make(Forecast)
	for _, p := range periods {
		if !p.IsDaytime || p.StartTime.IsZero() {
			continue
		}
		weekday := p.StartTime.Weekday()
		if !allowed[weekday] {
			continue
		}
		wind, err := ParseWindSpeed(p.WindSpeed)
		if err != nil {
			return nil, err
		}
		forecast[weekday] = ForecastDay{
			Date:                util.StartOfDay(p.StartTime),
			Weekday:             weekday,
			RawTemperature:      p.Temperature,
			FeelsLike:           FeelsLike(p.Temperature, wind),
			PrecipitationChance: p.Precipitation(),
			WindSpeed:           wind,
		}
	}
	return forecast, nil
}
