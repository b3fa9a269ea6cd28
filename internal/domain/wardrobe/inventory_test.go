package wardrobe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewInventoryPairingsFollowStock(t *testing.T) {
	rules := testRules()
	inv := NewInventory(Items{Bottoms: []string{"khaki", "khaki", "olive"}}, rules)

	require.Equal(t, []string{"khaki"}, inv.Candidates("brown"))
	require.Equal(t, []string{"olive"}, inv.Candidates("black"))
	require.Equal(t, []string{"khaki", "olive"}, inv.Candidates("danner"))
	require.Empty(t, inv.Candidates("purple"))
}

func TestTakeAndReleaseBottom(t *testing.T) {
	rules := testRules()
	inv := NewInventory(Items{Bottoms: []string{"khaki", "khaki"}}, rules)

	first, err := inv.takeBottom("khaki")
	require.NoError(t, err)
	require.Empty(t, first.unlinked)
	require.Contains(t, inv.Candidates("danner"), "khaki")

	last, err := inv.takeBottom("khaki")
	require.NoError(t, err)
	require.Equal(t, []string{"brown", "danner"}, last.unlinked)
	require.Empty(t, inv.Candidates("brown"))
	require.Empty(t, inv.Bottoms())

	_, err = inv.takeBottom("khaki")
	require.Error(t, err)

	inv.releaseBottom(last)
	require.Equal(t, []string{"khaki"}, inv.Bottoms())
	require.Equal(t, []string{"khaki"}, inv.Candidates("brown"))
	require.Equal(t, []string{"khaki"}, inv.Candidates("danner"))
}

func TestReserveCommitted(t *testing.T) {
	rules := testRules()
	inv := NewInventory(testItems(), rules)
	schedule := NewSchedule()
	schedule[time.Monday] = ScheduleEntry{Outfit: &Outfit{Bottoms: "navy", Shirt: Shirt{Category: "tshirt", Color: "black"}}}
	schedule[time.Tuesday] = ScheduleEntry{Outfit: &Outfit{Bottoms: "olive", Shirt: Shirt{Category: "tshirt", Color: "blue"}}}
	schedule[time.Wednesday] = DayOff()
	schedule[time.Thursday] = ScheduleEntry{Outfit: &Outfit{Bottoms: "navy", Shirt: Shirt{Category: "flannel", Color: "grey"}}}

	missing := inv.ReserveCommitted(schedule, time.Tuesday)
	require.Equal(t, []string{"navy"}, missing)
	require.NotContains(t, inv.Bottoms(), "navy")
	require.Equal(t, 2, countOf(inv.Bottoms())["olive"])
	require.NotContains(t, inv.Shirts("tshirt"), "black")
	require.Contains(t, inv.Shirts("tshirt"), "blue")
	require.NotContains(t, inv.Shirts("flannel"), "grey")
	require.NotContains(t, inv.Candidates("brown"), "navy")
}
