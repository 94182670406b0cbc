package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/terra-clan/problem-browser/internal/division"
	"github.com/terra-clan/problem-browser/internal/models"
)

// Table renders the entries as an aligned table. Columns are padded to the
// widest visible cell.
func Table(entries []models.Entry) string {
	headers := []string{"", "Problem", "Name", "Contest", "Div", "Date", "Notes"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			checkbox(e.Progress.Done),
			strconv.Itoa(e.ContestID) + e.Index,
			e.Name,
			e.ContestName,
			divisionBadge(e.Division),
			FormatDate(e.StartTime),
			e.Progress.Notes,
		})
	}
	return renderTable(headers, rows)
}

// Cards renders the entries as a grid of bordered cards
func Cards(entries []models.Entry, perRow int) string {
	if perRow < 1 {
		perRow = 1
	}

	var lines []string
	for start := 0; start < len(entries); start += perRow {
		end := min(start+perRow, len(entries))
		cards := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			cards = append(cards, card(e))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return strings.Join(lines, "\n")
}

// Summary renders the "N problems | M done" line
func Summary(total, done int) string {
	return fmt.Sprintf("%s problems %s %s done",
		StyleHeader.Render(strconv.Itoa(total)),
		StyleDim.Render("|"),
		StyleDone.Render(strconv.Itoa(done)),
	)
}

func card(e models.Entry) string {
	var b strings.Builder
	b.WriteString(divisionBadge(e.Division))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(FormatDate(e.StartTime)))
	b.WriteString("\n")
	b.WriteString(StyleHeader.Render(fmt.Sprintf("%d%s. %s", e.ContestID, e.Index, e.Name)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(e.ContestName))
	b.WriteString("\n")
	b.WriteString(checkbox(e.Progress.Done))
	if e.Progress.Notes != "" {
		b.WriteString(" ")
		b.WriteString(e.Progress.Notes)
	}
	return StyleCard.Render(b.String())
}

func checkbox(done bool) string {
	if done {
		return StyleDone.Render("[x]")
	}
	return StyleDim.Render("[ ]")
}

func divisionBadge(d models.Division) string {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := divisionColors[d]; ok {
		style = style.Foreground(c)
	}
	return style.Render(division.Label(d))
}

func renderTable(headers []string, rows [][]string) string {
	cols := len(headers)

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	const colGap = 2

	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = style.Render(cell)
			}
			b.WriteString(cell)
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", pad+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &StyleHeader)
	for i, w := range widths {
		b.WriteString(StyleDim.Render(strings.Repeat("─", w)))
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}
