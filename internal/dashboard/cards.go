package dashboard

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Icon names a card glyph. Renderers map it to whatever they can draw.
type Icon string

const (
	IconUsers    Icon = "users"
	IconBook     Icon = "book-open"
	IconAlert    Icon = "alert-circle"
	IconActivity Icon = "activity"
)

// Card is one rendered statistic.
type Card struct {
	Icon  Icon   `json:"icon"`
	Label string `json:"label"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
	Alert bool   `json:"alert"`
}

// Formatter turns a Model into the four dashboard cards.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter groups thousands according to tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Cards returns Users, Words, Pending Contributions and System Uptime, in that order.
func (f *Formatter) Cards(m Model) []Card {
	return []Card{
		{
			Icon:  IconUsers,
			Label: "TOTAL USERS",
			Value: f.Grouped(m.TotalUsers),
			Unit:  "active accounts",
		},
		{
			Icon:  IconBook,
			Label: "TOTAL WORDS",
			Value: f.Grouped(m.TotalWords),
			Unit:  "in database",
		},
		{
			Icon:  IconAlert,
			Label: "PENDING CONTRIBUTIONS",
			Value: strconv.FormatInt(m.PendingContributions, 10),
			Unit:  "awaiting review",
			Alert: true,
		},
		{
			Icon:  IconActivity,
			Label: "SYSTEM UPTIME",
			Value: FormatUptime(m.SystemUptime),
			Unit:  "operational status",
		},
	}
}

// Grouped formats n with the locale's thousands separator.
func (f *Formatter) Grouped(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// FormatUptime renders a percentage with the shortest exact decimal form, e.g. "99.9%".
func FormatUptime(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
