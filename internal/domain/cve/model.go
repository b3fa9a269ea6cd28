package cve

import (
	"time"

	"github.com/yanqian/daily-briefing/pkg/util"
)

// MsgNoCVEs is the section body when nothing new qualified.
const MsgNoCVEs = "No new CVEs."

// StatusAnalyzed is the NVD status of a fully scored record.
const StatusAnalyzed = "Analyzed"

// Metric is one CVSS score attached to a vulnerability.
type Metric struct {
	Version  string  `json:"version"`
	Severity string  `json:"severity"`
	Score    float64 `json:"score"`
}

// Vulnerability is an NVD record reduced to the fields the filters read.
// Metrics are ordered by preference, newest CVSS version first.
type Vulnerability struct {
	ID               string   `json:"id"`
	Status           string   `json:"status"`
	SourceIdentifier string   `json:"sourceIdentifier"`
	Description      string   `json:"description"`
	Metrics          []Metric `json:"metrics"`
}

// Entry is a vulnerability selected for a briefing.
type Entry struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Score       float64 `json:"score"`
}

// Snapshot records the entries sent each slot of a day.
type Snapshot struct {
	Morning []Entry `json:"morning"`
	Midday  []Entry `json:"midday"`
}

// Slot returns a pointer to the entry list of slot.
func (s *Snapshot) Slot(slot util.Slot) *[]Entry {
	if slot == util.SlotMidday {
		return &s.Midday
	}
	return &s.Morning
}

// IDs lists every CVE id in the snapshot.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.Morning)+len(s.Midday))
	for _, e := range s.Morning {
		ids = append(ids, e.ID)
	}
	for _, e := range s.Midday {
		ids = append(ids, e.ID)
	}
	return ids
}

// Report is handed to the briefing composer.
type Report struct {
	Slot    util.Slot `json:"slot"`
	Entries []Entry   `json:"entries"`
	Added   int       `json:"added"`
	Message string    `json:"message"`
}

// Config wires runtime settings for the CVE domain.
type Config struct {
	// Endpoints are NVD date parameter prefixes such as "pub" and "lastMod".
	Endpoints []string
	Keywords  []string
	Location  *time.Location
}
