// Package render draws the display list for terminals and exports it as CSV.
package render

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/terra-clan/problem-browser/internal/models"
)

var (
	StyleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60A5FA"))
	StyleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	StyleDone   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80"))
	StyleCard   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1).
			Width(36)
)

var divisionColors = map[models.Division]lipgloss.Color{
	models.Div1:     lipgloss.Color("#EF4444"),
	models.Div2:     lipgloss.Color("#3B82F6"),
	models.Div3:     lipgloss.Color("#A855F7"),
	models.Div4:     lipgloss.Color("#22C55E"),
	models.Div1And2: lipgloss.Color("#F97316"),
}

// FormatDate renders a Unix start time as "Jan 2, 2006" in UTC
func FormatDate(startTime int64) string {
	return time.Unix(startTime, 0).UTC().Format("Jan 2, 2006")
}
