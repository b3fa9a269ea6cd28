package wardrobe

// Revalidate checks today's committed outfit against today's forecast and
// adjusts it in place. Only schedule[day.Weekday] is ever written, and only
// once every redraw succeeded. inv must already have the other days'
// commitments reserved; redrawn units are taken from it.
func Revalidate(schedule Schedule, day ForecastDay, rules *RuleSet, inv *Inventory, chooser Chooser) (bool, error) {
	entry, ok := schedule[day.Weekday]
	if !ok || entry.Outfit == nil {
		return false, nil
	}
	band, err := rules.ShirtBand(day.FeelsLike)
	if err != nil {
		return false, err
	}
	category, err := rules.FootwearCategory(day.PrecipitationChance)
	if err != nil {
		return false, err
	}

	s := &selector{rules: rules, inv: inv, chooser: chooser}
	shirtCategory, substituted := s.resolveShirt(band.Shirt)
	structured := band.Shirt.IsStructured() && !substituted

	stored := *entry.Outfit
	updated := stored
	footwearColor := stored.Footwear.Color()
	changed, bottomsChanged := false, false

	if category != stored.Footwear.Category {
		footwear, err := s.drawFootwear(category)
		if err != nil {
			return false, err
		}
		footwearColor = footwear.Color()
		updated.Footwear = footwear
		updated.Belt = rules.Belts.For(footwearColor)
		if indexOf(inv.Candidates(footwearColor), stored.Bottoms) < 0 {
			candidates := s.restrictedBottoms(footwearColor, structured)
			if len(candidates) == 0 {
				candidates = inv.Candidates(footwearColor)
			}
			if len(candidates) == 0 {
				return false, exhausted("no bottoms pair with %s footwear", footwearColor)
			}
			updated.Bottoms = pick(chooser, candidates)
			bottomsChanged = true
		}
		changed = true
	}

	categoryChanged := shirtCategory != stored.Shirt.Category && inv.ShirtCount(shirtCategory) > 0

	// A switch to the structured primary also has to leave its excluded bottoms.
	if categoryChanged && structured && indexOf(rules.Structured.ExcludedBottoms, updated.Bottoms) >= 0 {
		if candidates := s.restrictedBottoms(footwearColor, true); len(candidates) > 0 {
			updated.Bottoms = pick(chooser, candidates)
			bottomsChanged = true
			changed = true
		} else {
			categoryChanged = false
		}
	}

	var hold bottomHold
	if bottomsChanged {
		if hold, err = inv.takeBottom(updated.Bottoms); err != nil {
			return false, err
		}
	}

	incompatible := bottomsChanged && !shirtFits(stored.Shirt.Color, s.allowedShirtColors(updated.Bottoms, structured))
	if categoryChanged || incompatible {
		drawFrom := stored.Shirt.Category
		if categoryChanged {
			drawFrom = shirtCategory
		}
		color, ok := s.drawShirt(drawFrom, updated.Bottoms, structured && drawFrom == band.Shirt.Name())
		if !ok {
			inv.releaseBottom(hold)
			return false, exhausted("no %s shirt matches %s bottoms", drawFrom, updated.Bottoms)
		}
		if err := inv.takeShirt(drawFrom, color); err != nil {
			inv.releaseBottom(hold)
			return false, err
		}
		updated.Shirt = Shirt{Category: drawFrom, Color: color}
		changed = true
	}

	if !changed {
		return false, nil
	}
	fellBack := band.Shirt.IsStructured() && updated.Shirt.Category != band.Shirt.Name()
	updated.Jacket = s.jacket(band, fellBack, day.PrecipitationChance)
	schedule[day.Weekday] = ScheduleEntry{Outfit: &updated}
	return true, nil
}
