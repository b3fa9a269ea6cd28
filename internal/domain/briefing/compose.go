package briefing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/yanqian/daily-briefing/pkg/util"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	templatePreview   = "preview.html"
	dateLayout        = "Mon, Jan 02"
	timestampLayout   = "2006-01-02 15:04:05"
	previewTitle      = "Weekly Wardrobe Preview"
	previewUpdateKind = "Preview Update"
)

var templates = template.Must(template.New("briefing").Funcs(template.FuncMap{
	"section": func(heading string, body template.HTML) sectionView {
		return sectionView{Heading: heading, Body: body}
	},
}).ParseFS(templateFS, "templates/*.html"))

type sectionView struct {
	Heading string
	Body    template.HTML
}

// page is the data bound to every template. Section bodies are pre-escaped HTML
// built by the domain formatters.
type page struct {
	Title     string
	Date      string
	Timestamp string
	Forecast  template.HTML
	Wardrobe  template.HTML
	News      template.HTML
	CVEs      template.HTML
}

func newPage(title string, now time.Time, sections Sections) page {
	return page{
		Title:     title,
		Date:      now.Format(dateLayout),
		Timestamp: "Generated " + now.Format(timestampLayout),
		Forecast:  template.HTML(sections.Forecast),
		Wardrobe:  template.HTML(sections.Wardrobe),
		News:      template.HTML(sections.News),
		CVEs:      template.HTML(sections.CVEs),
	}
}

func render(name string, p page) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, p); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// composeBriefing renders the slot template.
func composeBriefing(slot util.Slot, now time.Time, sections Sections) (Email, string, error) {
	subject := fmt.Sprintf("%s Briefing %s", slot.Title(), util.FileDate(now))
	body, err := render(string(slot)+".html", newPage(slot.Title()+" Briefing", now, sections))
	if err != nil {
		return Email{}, "", err
	}
	return Email{Subject: subject, HTML: body}, fmt.Sprintf("%s_briefing_%s.html", slot, util.FileDate(now)), nil
}

// composePreview renders the weekly preview. An update only changes the subject.
func composePreview(now time.Time, wardrobe string, update bool) (Email, string, error) {
	kind := previewTitle
	if update {
		kind = previewUpdateKind
	}
	body, err := render(templatePreview, newPage(previewTitle, now, Sections{Wardrobe: wardrobe}))
	if err != nil {
		return Email{}, "", err
	}
	subject := fmt.Sprintf("%s %s", kind, util.FileDate(now))
	return Email{Subject: subject, HTML: body}, fmt.Sprintf("wardrobe_preview_%s.html", util.FileDate(now)), nil
}
