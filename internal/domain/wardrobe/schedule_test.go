package wardrobe

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleJSON(t *testing.T) {
	schedule := NewSchedule()
	schedule[time.Monday] = ScheduleEntry{Outfit: &Outfit{
		Footwear: Footwear{Category: "captain", Item: "brown captain"},
		Bottoms:  "khaki",
		Belt:     "brown",
		Shirt:    Shirt{Category: "tshirt", Color: "white"},
	}}
	schedule[time.Tuesday] = DayOff()

	raw, err := json.Marshal(schedule)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"Monday": {"footwear": {"category": "captain", "item": "brown captain"}, "bottoms": "khaki", "belt": "brown",
			"shirt": {"category": "tshirt", "color": "white"}, "jacket": false},
		"Tuesday": "No work today!",
		"Wednesday": null, "Thursday": null, "Friday": null, "Saturday": null, "Sunday": null
	}`, string(raw))
	require.Regexp(t, `^\{"Monday":.*"Tuesday":.*"Wednesday":null,"Thursday":null,"Friday":null,"Saturday":null,"Sunday":null\}$`, string(raw))

	var decoded Schedule
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, schedule, decoded)
}

func TestScheduleRejectsUnknownDay(t *testing.T) {
	var decoded Schedule
	require.Error(t, json.Unmarshal([]byte(`{"Funday": null}`), &decoded))
	require.Error(t, json.Unmarshal([]byte(`{"Monday": 3}`), &decoded))
}

func TestScheduleClone(t *testing.T) {
	schedule := NewSchedule()
	schedule[time.Friday] = ScheduleEntry{Outfit: &Outfit{Bottoms: "olive"}}

	clone := schedule.Clone()
	clone[time.Friday].Outfit.Bottoms = "navy"
	require.Equal(t, "olive", schedule[time.Friday].Outfit.Bottoms)
	require.Equal(t, weekOrder, clone.Days())
}
