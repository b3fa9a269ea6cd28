package briefing

import (
	"time"

	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// Section bodies used when a collaborator fails or has nothing to say.
const (
	MsgForecastUnavailable = "Forecast unavailable."
	MsgWardrobeUnavailable = "Wardrobe unavailable."
	MsgNewsUnavailable     = "News unavailable."
	MsgCVEsUnavailable     = "Vulnerability feed unavailable."
	MsgCheckPreview        = "Check the weekly wardrobe preview!"
)

// Email is one composed HTML message.
type Email struct {
	Subject string
	HTML    string
}

// Sections are the HTML fragments injected into a template.
type Sections struct {
	Forecast string `json:"forecast"`
	Wardrobe string `json:"wardrobe,omitempty"`
	News     string `json:"news"`
	CVEs     string `json:"cves"`
}

// SentEmail records one delivered email.
type SentEmail struct {
	Subject string `json:"subject"`
	Archive string `json:"archive,omitempty"`
}

// Report summarizes a briefing run.
type Report struct {
	RunID          string          `json:"runId"`
	Slot           util.Slot       `json:"slot"`
	Date           string          `json:"date"`
	Sections       Sections        `json:"sections"`
	WardrobeStatus wardrobe.Status `json:"wardrobeStatus,omitempty"`
	Emails         []SentEmail     `json:"emails"`
	Warnings       []string        `json:"warnings,omitempty"`
	Cleaned        int             `json:"cleaned"`
}

// Config wires runtime settings for the briefing domain.
type Config struct {
	Location   *time.Location
	CleanupDay time.Weekday
}
