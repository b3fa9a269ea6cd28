package wardrobe

import (
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatOutfit renders one outfit as the HTML fragment embedded in the email.
func FormatOutfit(o Outfit) string {
	caser := cases.Title(language.English)
	display := func(s string) string {
		return html.EscapeString(caser.String(strings.ReplaceAll(s, "_", " ")))
	}
	jacket := "No"
	if o.Jacket {
		jacket = "Yes"
	}
	return fmt.Sprintf("<i>Boots:</i> %s<br><i>Chinos:</i> %s<br><i>Belt:</i> %s<br><i>Shirt:</i> %s<br><i>Jacket: </i>%s<br>",
		display(o.Footwear.Item),
		display(o.Bottoms),
		display(o.Belt),
		display(o.Shirt.Color+" "+o.Shirt.Category),
		jacket,
	)
}

// FormatEntry renders an outfit, or the note stored in its place.
func FormatEntry(e ScheduleEntry) string {
	switch {
	case e.Outfit != nil:
		return FormatOutfit(*e.Outfit)
	case e.Note != "":
		return html.EscapeString(e.Note)
	default:
		return MsgNothingPlanned
	}
}

// FormatPreview renders every workday of the schedule under its day heading.
func FormatPreview(schedule Schedule, workdays []time.Weekday) string {
	allowed := make(map[time.Weekday]bool, len(workdays))
	for _, d := range workdays {
		allowed[d] = true
	}
	var b strings.Builder
	for _, day := range weekOrder {
		if !allowed[day] {
			continue
		}
		entry := schedule[day]
		body := FormatEntry(entry)
		if entry.Outfit == nil {
			body += "<br>"
		}
		fmt.Fprintf(&b, "<u><b>%s</b></u><br>%s<br>", day, body)
	}
	return b.String()
}
