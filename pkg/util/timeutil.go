package util

import (
	"strings"
	"time"
)

// Layouts used for file names and API parameters.
const (
	FileDateLayout = "20060102"
	ISODateLayout  = "2006-01-02"
)

// Slot is the part of the day a briefing is produced for.
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotMidday  Slot = "midday"
)

// Title returns the capitalized slot name used in email subjects.
func (s Slot) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// SlotOf reports morning before noon and midday otherwise.
func SlotOf(t time.Time) Slot {
	if t.Hour() < 12 {
		return SlotMorning
	}
	return SlotMidday
}

// FileDate formats t as YYYYMMDD.
func FileDate(t time.Time) string {
	return t.Format(FileDateLayout)
}

// ISODate formats t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MostRecent returns midnight of the latest day on or before t that falls on weekday.
func MostRecent(t time.Time, weekday time.Weekday) time.Time {
	day := StartOfDay(t)
	back := (int(day.Weekday()) - int(weekday) + 7) % 7
	return day.AddDate(0, 0, -back)
}

// ParseWeekday accepts full English weekday names, case-insensitively.
func ParseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(strings.TrimSpace(name), d.String()) {
			return d, true
		}
	}
	return time.Sunday, false
}
