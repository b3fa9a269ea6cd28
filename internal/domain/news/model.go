package news

import (
	"time"

	"github.com/yanqian/daily-briefing/pkg/util"
)

// MsgNoNews is the section body when nothing new matched.
const MsgNoNews = "Take a moment to breathe!"

// Article is one feed entry that passed the filters.
type Article struct {
	Title       string    `json:"title"`
	Published   time.Time `json:"published"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
}

// Snapshot is the per-day record of articles already sent, split by slot.
type Snapshot struct {
	Morning []Article `json:"morning"`
	Midday  []Article `json:"midday"`
}

// Slot returns a pointer to the article list of slot.
func (s *Snapshot) Slot(slot util.Slot) *[]Article {
	if slot == util.SlotMidday {
		return &s.Midday
	}
	return &s.Morning
}

// Titles lists every title in the snapshot.
func (s Snapshot) Titles() []string {
	titles := make([]string, 0, len(s.Morning)+len(s.Midday))
	for _, a := range s.Morning {
		titles = append(titles, a.Title)
	}
	for _, a := range s.Midday {
		titles = append(titles, a.Title)
	}
	return titles
}

// Report is handed to the briefing composer.
type Report struct {
	Topic    string    `json:"topic"`
	Slot     util.Slot `json:"slot"`
	Articles []Article `json:"articles"`
	Added    int       `json:"added"`
	Message  string    `json:"message"`
}

// Config wires runtime settings for the news domain.
type Config struct {
	Topic    string
	URLs     []string
	Keywords []string
	Location *time.Location
}
