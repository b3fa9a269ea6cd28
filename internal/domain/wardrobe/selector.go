package wardrobe

import (
	"fmt"
	"strings"

	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
)

// selector assigns outfits against a single run's inventory.
type selector struct {
	rules   *RuleSet
	inv     *Inventory
	chooser Chooser
}

// Generate assigns an outfit to every prioritized day, in order. Days off get
// the sentinel note and consume nothing. An exhausted inventory aborts the
// whole schedule.
func Generate(entries []PriorityEntry, rules *RuleSet, inv *Inventory, chooser Chooser) (Schedule, error) {
	s := &selector{rules: rules, inv: inv, chooser: chooser}
	schedule := NewSchedule()
	for _, entry := range entries {
		day := entry.Day
		if rules.DaysOff.IsDayOff(day.Date) {
			schedule[day.Weekday] = DayOff()
			continue
		}
		outfit, err := s.assign(day, entry.Band)
		if err != nil {
			return nil, fmt.Errorf("assign %s: %w", day.DayName(), err)
		}
		schedule[day.Weekday] = ScheduleEntry{Outfit: &outfit}
	}
	return schedule, nil
}

func (s *selector) assign(day ForecastDay, band TemperatureBand) (Outfit, error) {
	category, err := s.rules.FootwearCategory(day.PrecipitationChance)
	if err != nil {
		return Outfit{}, err
	}
	footwear, err := s.drawFootwear(category)
	if err != nil {
		return Outfit{}, err
	}
	shirtCategory, substituted := s.resolveShirt(band.Shirt)
	structured := band.Shirt.IsStructured() && !substituted

	color := footwear.Color()
	if structured && len(s.restrictedBottoms(color, true)) == 0 {
		// Every pairable bottom is excluded for the primary: substitute as if it ran out.
		fallback, _ := band.Shirt.Fallback()
		if s.inv.ShirtCount(fallback) == 0 {
			return Outfit{}, exhausted("no bottoms allowed with %s shirts and no %s shirts left", shirtCategory, fallback)
		}
		shirtCategory, substituted, structured = fallback, true, false
	}
	bottom, shirt, err := s.drawBottomsAndShirt(color, shirtCategory, structured)
	if err != nil {
		return Outfit{}, err
	}
	return Outfit{
		Footwear: footwear,
		Bottoms:  bottom,
		Belt:     s.rules.Belts.For(color),
		Shirt:    Shirt{Category: shirtCategory, Color: shirt},
		Jacket:   s.jacket(band, substituted, day.PrecipitationChance),
	}, nil
}

// drawFootwear resolves a group category to one of its items; any other
// category already names a concrete pair.
func (s *selector) drawFootwear(category string) (Footwear, error) {
	if group, ok := s.inv.FootwearGroup(category); ok {
		if len(group) == 0 {
			return Footwear{}, configError("footwear group %q is empty", category)
		}
		return Footwear{Category: category, Item: pick(s.chooser, group)}, nil
	}
	return Footwear{Category: category, Item: category}, nil
}

// resolveShirt returns the category to draw from and whether a structured
// category fell back to its substitute.
func (s *selector) resolveShirt(category ShirtCategory) (string, bool) {
	fallback, ok := category.Fallback()
	if !ok || s.inv.ShirtCount(category.Name()) > 0 {
		return category.Name(), false
	}
	return fallback, true
}

func (s *selector) restrictedBottoms(footwearColor string, structured bool) []string {
	candidates := s.inv.Candidates(footwearColor)
	if !structured {
		return candidates
	}
	return without(candidates, s.rules.Structured.ExcludedBottoms)
}

// drawBottomsAndShirt takes a bottom unit and a shirt unit. When no shirt fits
// the first bottom, one more attempt is made from the unrestricted candidates,
// and the first bottom is handed back afterwards.
func (s *selector) drawBottomsAndShirt(footwearColor, shirtCategory string, structured bool) (string, string, error) {
	restricted := s.restrictedBottoms(footwearColor, structured)
	if len(restricted) == 0 {
		return "", "", exhausted("no bottoms left for %s shirts", shirtCategory)
	}

	bottom := pick(s.chooser, restricted)
	hold, err := s.inv.takeBottom(bottom)
	if err != nil {
		return "", "", err
	}
	if shirt, ok := s.drawShirt(shirtCategory, bottom, structured); ok {
		if err := s.inv.takeShirt(shirtCategory, shirt); err != nil {
			s.inv.releaseBottom(hold)
			return "", "", err
		}
		return bottom, shirt, nil
	}

	widened := without(s.inv.Candidates(footwearColor), []string{bottom})
	alternate, shirt, err := s.attempt(widened, shirtCategory, structured)
	s.inv.releaseBottom(hold)
	if err != nil {
		return "", "", err
	}
	return alternate, shirt, nil
}

func (s *selector) attempt(candidates []string, shirtCategory string, structured bool) (string, string, error) {
	if len(candidates) == 0 {
		return "", "", exhausted("no bottoms left for %s shirts", shirtCategory)
	}
	bottom := pick(s.chooser, candidates)
	hold, err := s.inv.takeBottom(bottom)
	if err != nil {
		return "", "", err
	}
	shirt, ok := s.drawShirt(shirtCategory, bottom, structured)
	if !ok {
		s.inv.releaseBottom(hold)
		return "", "", exhausted("no %s shirt matches %s bottoms", shirtCategory, bottom)
	}
	if err := s.inv.takeShirt(shirtCategory, shirt); err != nil {
		s.inv.releaseBottom(hold)
		return "", "", err
	}
	return bottom, shirt, nil
}

// drawShirt picks uniformly among shirts whose color tokens all suit the bottom.
func (s *selector) drawShirt(category, bottom string, structured bool) (string, bool) {
	candidates := s.shirtCandidates(category, bottom, structured)
	if len(candidates) == 0 {
		return "", false
	}
	return pick(s.chooser, candidates), true
}

func (s *selector) shirtCandidates(category, bottom string, structured bool) []string {
	allowed := s.allowedShirtColors(bottom, structured)
	var out []string
	for _, shirt := range s.inv.Shirts(category) {
		if shirtFits(shirt, allowed) {
			out = append(out, shirt)
		}
	}
	return out
}

func (s *selector) allowedShirtColors(bottom string, structured bool) []string {
	allowed := s.rules.ShirtsByBottom[bottom]
	extra := s.rules.Structured.DarkBottomExtra
	if structured && extra != "" && bottom == s.rules.Structured.DarkBottom {
		allowed = append(append([]string(nil), allowed...), extra)
	}
	return allowed
}

func (s *selector) jacket(band TemperatureBand, substituted bool, precipitation float64) bool {
	return substituted || band.Jacket || precipitation >= s.rules.JacketPrecipitation
}

func shirtFits(shirt string, allowed []string) bool {
	for _, token := range strings.Split(shirt, "/") {
		if indexOf(allowed, token) < 0 {
			return false
		}
	}
	return true
}

func exhausted(format string, args ...any) error {
	return apperrors.Wrap(apperrors.CodeInventoryExhausted, fmt.Sprintf(format, args...), nil)
}
