package wardrobe

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// Range is a half-open interval [Min, Max).
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v < r.Max
}

// ShirtCategory is either a simple category or a structured one that falls back
// to a second category when its own stock runs out.
type ShirtCategory struct {
	primary  string
	fallback string
}

// Simple builds a plain category.
func Simple(name string) ShirtCategory {
	return ShirtCategory{primary: name}
}

// StructuredWithFallback builds a structured category.
func StructuredWithFallback(primary, fallback string) ShirtCategory {
	return ShirtCategory{primary: primary, fallback: fallback}
}

// Name is the primary category name, used for tie-breaking.
func (c ShirtCategory) Name() string {
	return c.primary
}

// Fallback returns the substitute category of a structured category.
func (c ShirtCategory) Fallback() (string, bool) {
	return c.fallback, c.fallback != ""
}

// IsStructured reports whether the category carries a fallback.
func (c ShirtCategory) IsStructured() bool {
	return c.fallback != ""
}

func (c ShirtCategory) String() string {
	if c.IsStructured() {
		return c.primary + "|" + c.fallback
	}
	return c.primary
}

// TemperatureBand maps a feels-like range to a shirt category.
type TemperatureBand struct {
	Range
	Shirt ShirtCategory
	// Jacket forces a jacket regardless of precipitation.
	Jacket bool
}

// PrecipitationBand maps a precipitation range to a footwear category.
type PrecipitationBand struct {
	Range
	Footwear string
}

// StructuredRules are the extra constraints of the structured shirt category.
type StructuredRules struct {
	ExcludedBottoms []string
	DarkBottom      string
	DarkBottomExtra string
}

// BeltRules pick a belt from the footwear color.
type BeltRules struct {
	Default    string
	ByFootwear map[string]string
}

// For returns the belt worn with the given footwear color.
func (b BeltRules) For(footwearColor string) string {
	if belt, ok := b.ByFootwear[footwearColor]; ok {
		return belt
	}
	return b.Default
}

// Calendar is the set of configured days off.
type Calendar struct {
	dates map[string]struct{}
}

// NewCalendar builds a calendar from dates; only the calendar date matters.
func NewCalendar(dates ...time.Time) Calendar {
	c := Calendar{dates: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		c.dates[util.ISODate(d)] = struct{}{}
	}
	return c
}

// IsDayOff reports whether t's calendar date is a day off.
func (c Calendar) IsDayOff(t time.Time) bool {
	_, ok := c.dates[util.ISODate(t)]
	return ok
}

// Len returns the number of configured days off.
func (c Calendar) Len() int {
	return len(c.dates)
}

// RuleSet is the read-only rule configuration for one run.
type RuleSet struct {
	Temperature         []TemperatureBand
	Precipitation       []PrecipitationBand
	BottomsByFootwear   map[string][]string
	ShirtsByBottom      map[string][]string
	Structured          StructuredRules
	Belts               BeltRules
	JacketPrecipitation float64
	DaysOff             Calendar
}

// ShirtBand returns the first temperature band containing feelsLike.
func (r *RuleSet) ShirtBand(feelsLike float64) (TemperatureBand, error) {
	for _, band := range r.Temperature {
		if band.Contains(feelsLike) {
			return band, nil
		}
	}
	return TemperatureBand{}, apperrors.Wrap(apperrors.CodeConfiguration,
		fmt.Sprintf("feels-like temperature %.1f is outside every temperature band", feelsLike), nil)
}

// FootwearCategory returns the category of the band containing the precipitation chance.
func (r *RuleSet) FootwearCategory(precipitation float64) (string, error) {
	for _, band := range r.Precipitation {
		if band.Contains(precipitation) {
			return band.Footwear, nil
		}
	}
	return "", apperrors.Wrap(apperrors.CodeConfiguration,
		fmt.Sprintf("precipitation chance %.0f is outside every precipitation band", precipitation), nil)
}

// Validate checks the rule set against the configured items.
func (r *RuleSet) Validate(items Items) error {
	if err := validateRanges("temperature", temperatureRanges(r.Temperature)); err != nil {
		return err
	}
	if err := validateRanges("precipitation", precipitationRanges(r.Precipitation)); err != nil {
		return err
	}
	for i, band := range r.Temperature {
		if strings.TrimSpace(band.Shirt.Name()) == "" {
			return configError("temperature band %d has no shirt category", i)
		}
	}
	for i, band := range r.Precipitation {
		category := strings.TrimSpace(band.Footwear)
		if category == "" {
			return configError("precipitation band %d has no footwear category", i)
		}
		if group, ok := items.Footwear[category]; ok {
			if len(group) == 0 {
				return configError("footwear group %q is empty", category)
			}
			for _, item := range group {
				if _, ok := r.BottomsByFootwear[footwearColor(item)]; !ok {
					return configError("footwear %q has no bottom pairings", item)
				}
			}
			continue
		}
		if _, ok := r.BottomsByFootwear[footwearColor(category)]; !ok {
			return configError("footwear %q has no bottom pairings", category)
		}
	}
	if strings.TrimSpace(r.Belts.Default) == "" {
		return configError("belts.default cannot be empty")
	}
	if err := r.Belts.validate(items.Belts); err != nil {
		return err
	}
	if r.JacketPrecipitation <= 0 {
		return configError("jacketPrecipitation must be positive")
	}
	return nil
}

// validate requires every belt the rules can pick to be owned. An empty
// inventory list leaves belts unchecked.
func (b BeltRules) validate(owned []string) error {
	if len(owned) == 0 {
		return nil
	}
	if indexOf(owned, b.Default) < 0 {
		return configError("default belt %q is not in the belt inventory", b.Default)
	}
	colors := make([]string, 0, len(b.ByFootwear))
	for color := range b.ByFootwear {
		colors = append(colors, color)
	}
	sort.Strings(colors)
	for _, color := range colors {
		if belt := b.ByFootwear[color]; indexOf(owned, belt) < 0 {
			return configError("belt %q for %s footwear is not in the belt inventory", belt, color)
		}
	}
	return nil
}

func temperatureRanges(bands []TemperatureBand) []Range {
	out := make([]Range, 0, len(bands))
	for _, b := range bands {
		out = append(out, b.Range)
	}
	return out
}

func precipitationRanges(bands []PrecipitationBand) []Range {
	out := make([]Range, 0, len(bands))
	for _, b := range bands {
		out = append(out, b.Range)
	}
	return out
}

// validateRanges requires non-empty, non-overlapping and gap-free ranges.
func validateRanges(name string, ranges []Range) error {
	if len(ranges) == 0 {
		return configError("%s bands cannot be empty", name)
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	for i, rg := range sorted {
		if rg.Min >= rg.Max {
			return configError("%s band [%g, %g) is empty", name, rg.Min, rg.Max)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if rg.Min < prev.Max {
			return configError("%s bands [%g, %g) and [%g, %g) overlap", name, prev.Min, prev.Max, rg.Min, rg.Max)
		}
		if rg.Min > prev.Max {
			return configError("%s bands leave a gap between %g and %g", name, prev.Max, rg.Min)
		}
	}
	return nil
}

func configError(format string, args ...any) error {
	return apperrors.Wrap(apperrors.CodeConfiguration, fmt.Sprintf(format, args...), nil)
}
