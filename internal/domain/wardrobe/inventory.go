package wardrobe

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
)

// Inventory is the stock owned by a single run. Taking a unit is the only
// mutation during generation; a unit is never handed out twice.
type Inventory struct {
	bottoms  []string
	shirts   map[string][]string
	footwear map[string][]string
	// pairings is the working copy of the footwear color -> bottom colors table,
	// restricted to colors that still have stock.
	pairings map[string][]string
}

// bottomHold records one taken bottom unit so it can be handed back.
type bottomHold struct {
	color    string
	unlinked []string
}

// NewInventory copies the configured items and derives the working pairings.
func NewInventory(items Items, rules *RuleSet) *Inventory {
	inv := &Inventory{
		bottoms:  append([]string(nil), items.Bottoms...),
		shirts:   make(map[string][]string, len(items.Shirts)),
		footwear: make(map[string][]string, len(items.Footwear)),
		pairings: make(map[string][]string, len(rules.BottomsByFootwear)),
	}
	for category, list := range items.Shirts {
		inv.shirts[category] = append([]string(nil), list...)
	}
	for group, list := range items.Footwear {
		inv.footwear[group] = append([]string(nil), list...)
	}
	for color, allowed := range rules.BottomsByFootwear {
		working := make([]string, 0, len(allowed))
		for _, bottom := range allowed {
			if inv.bottomCount(bottom) > 0 && indexOf(working, bottom) < 0 {
				working = append(working, bottom)
			}
		}
		inv.pairings[color] = working
	}
	return inv
}

// Bottoms returns a copy of the remaining bottom units.
func (inv *Inventory) Bottoms() []string {
	return append([]string(nil), inv.bottoms...)
}

// Shirts returns a copy of the remaining shirts of a category.
func (inv *Inventory) Shirts(category string) []string {
	return append([]string(nil), inv.shirts[category]...)
}

// ShirtCount returns the remaining units of a shirt category.
func (inv *Inventory) ShirtCount(category string) int {
	return len(inv.shirts[category])
}

// Candidates returns a copy of the bottom colors still pairable with footwearColor.
func (inv *Inventory) Candidates(footwearColor string) []string {
	return append([]string(nil), inv.pairings[footwearColor]...)
}

// FootwearGroup returns the items of a footwear group, if it is one.
func (inv *Inventory) FootwearGroup(group string) ([]string, bool) {
	items, ok := inv.footwear[group]
	return items, ok
}

// Units counts every bottom and shirt unit left.
func (inv *Inventory) Units() int {
	total := len(inv.bottoms)
	for _, list := range inv.shirts {
		total += len(list)
	}
	return total
}

func (inv *Inventory) bottomCount(color string) int {
	n := 0
	for _, b := range inv.bottoms {
		if b == color {
			n++
		}
	}
	return n
}

// takeBottom removes one unit of color. Once the last unit is gone the color
// is unlinked from every footwear pairing that referenced it.
func (inv *Inventory) takeBottom(color string) (bottomHold, error) {
	idx := indexOf(inv.bottoms, color)
	if idx < 0 {
		return bottomHold{}, apperrors.Wrap(apperrors.CodeInventoryExhausted, fmt.Sprintf("no %s bottoms left", color), nil)
	}
	inv.bottoms = removeAt(inv.bottoms, idx)
	hold := bottomHold{color: color}
	if inv.bottomCount(color) > 0 {
		return hold, nil
	}
	for _, footwear := range inv.pairingKeys() {
		list := inv.pairings[footwear]
		if i := indexOf(list, color); i >= 0 {
			inv.pairings[footwear] = removeAt(list, i)
			hold.unlinked = append(hold.unlinked, footwear)
		}
	}
	return hold, nil
}

// releaseBottom hands a held unit back and relinks the pairings it left.
func (inv *Inventory) releaseBottom(hold bottomHold) {
	if hold.color == "" {
		return
	}
	inv.bottoms = append(inv.bottoms, hold.color)
	for _, footwear := range hold.unlinked {
		if indexOf(inv.pairings[footwear], hold.color) < 0 {
			inv.pairings[footwear] = append(inv.pairings[footwear], hold.color)
		}
	}
}

func (inv *Inventory) takeShirt(category, color string) error {
	list := inv.shirts[category]
	idx := indexOf(list, color)
	if idx < 0 {
		return apperrors.Wrap(apperrors.CodeInventoryExhausted, fmt.Sprintf("no %s %s shirt left", color, category), nil)
	}
	inv.shirts[category] = removeAt(list, idx)
	return nil
}

// ReserveCommitted takes the bottoms and shirts already committed to days
// other than today, so they cannot be handed out again. Items that are no
// longer in stock are returned for logging.
func (inv *Inventory) ReserveCommitted(schedule Schedule, today time.Weekday) []string {
	var missing []string
	for _, day := range schedule.Days() {
		if day == today {
			continue
		}
		outfit := schedule[day].Outfit
		if outfit == nil {
			continue
		}
		if _, err := inv.takeBottom(outfit.Bottoms); err != nil {
			missing = append(missing, outfit.Bottoms)
		}
		if err := inv.takeShirt(outfit.Shirt.Category, outfit.Shirt.Color); err != nil {
			missing = append(missing, outfit.Shirt.Color+" "+outfit.Shirt.Category)
		}
	}
	return missing
}

func (inv *Inventory) pairingKeys() []string {
	keys := make([]string, 0, len(inv.pairings))
	for k := range inv.pairings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}

func removeAt(list []string, idx int) []string {
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...)
}

func without(list []string, excluded []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if indexOf(excluded, v) < 0 {
			out = append(out, v)
		}
	}
	return out
}
