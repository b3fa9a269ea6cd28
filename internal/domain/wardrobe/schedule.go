package wardrobe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yanqian/daily-briefing/pkg/util"
)

// ScheduleEntry is either an outfit, a sentinel note, or empty.
type ScheduleEntry struct {
	Note   string
	Outfit *Outfit
}

// DayOff returns the sentinel entry for non-working dates.
func DayOff() ScheduleEntry {
	return ScheduleEntry{Note: DayOffNote}
}

// IsEmpty reports whether nothing was assigned.
func (e ScheduleEntry) IsEmpty() bool {
	return e.Outfit == nil && e.Note == ""
}

func (e ScheduleEntry) MarshalJSON() ([]byte, error) {
	switch {
	case e.Outfit != nil:
		return json.Marshal(e.Outfit)
	case e.Note != "":
		return json.Marshal(e.Note)
	default:
		return []byte("null"), nil
	}
}

func (e *ScheduleEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*e = ScheduleEntry{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &e.Note)
	case '{':
		var outfit Outfit
		if err := json.Unmarshal(trimmed, &outfit); err != nil {
			return err
		}
		e.Outfit = &outfit
		return nil
	default:
		return fmt.Errorf("unsupported schedule entry %s", string(trimmed))
	}
}

// Schedule maps weekdays to their entries.
type Schedule map[time.Weekday]ScheduleEntry

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// NewSchedule returns a schedule with all seven days present and empty.
func NewSchedule() Schedule {
	s := make(Schedule, len(weekOrder))
	for _, d := range weekOrder {
		s[d] = ScheduleEntry{}
	}
	return s
}

// Days lists the weekdays Monday first.
func (s Schedule) Days() []time.Weekday {
	out := make([]time.Weekday, 0, len(s))
	for _, d := range weekOrder {
		if _, ok := s[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Clone deep copies the schedule.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for d, e := range s {
		if e.Outfit != nil {
			outfit := *e.Outfit
			e.Outfit = &outfit
		}
		out[d] = e
	}
	return out
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range s.Days() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(d.String())
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(s[d])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var raw map[string]ScheduleEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Schedule, len(raw))
	for name, entry := range raw {
		day, ok := util.ParseWeekday(name)
		if !ok {
			return fmt.Errorf("unknown weekday %q in schedule", name)
		}
		out[day] = entry
	}
	*s = out
	return nil
}
