package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vslplatform/vsladmin/internal/dashboard"
)

const cardWidth = 28

var (
	primaryColor = lipgloss.Color("#00ff41")
	alertColor   = lipgloss.Color("#ff3b3b")
	labelColor   = lipgloss.Color("#888888")
	unitColor    = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			Width(cardWidth)

	alertCardStyle = cardStyle.BorderForeground(alertColor)

	labelStyle  = lipgloss.NewStyle().Foreground(labelColor)
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	alertValue  = valueStyle.Foreground(alertColor)
	unitStyle   = lipgloss.NewStyle().Foreground(unitColor)
	hintStyle   = lipgloss.NewStyle().Foreground(unitColor).MarginTop(1)
	noticeStyle = lipgloss.NewStyle().Foreground(alertColor).MarginTop(1)
)

var glyphs = map[dashboard.Icon]string{
	dashboard.IconUsers:    "◍",
	dashboard.IconBook:     "▤",
	dashboard.IconAlert:    "⚠",
	dashboard.IconActivity: "∿",
}

func glyph(icon dashboard.Icon) string {
	if g, ok := glyphs[icon]; ok {
		return g
	}
	return "•"
}

func renderCard(c dashboard.Card) string {
	box, value := cardStyle, valueStyle
	if c.Alert {
		box, value = alertCardStyle, alertValue
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		value.Render(glyph(c.Icon)),
		"",
		labelStyle.Render(c.Label),
		value.Render(c.Value),
		unitStyle.Render(c.Unit),
	)
	return box.Render(body)
}

// RenderCards lays the cards out in one row, or in a column when width is
// too narrow for a row. Zero width means unknown and picks the row.
func RenderCards(cards []dashboard.Card, width int) string {
	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = renderCard(c)
	}
	if width > 0 && width < len(cards)*(cardWidth+2) {
		return lipgloss.JoinVertical(lipgloss.Left, rendered...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
