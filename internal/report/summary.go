package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("9"))
)

// RenderSummary produces the human-readable end-of-run summary.
func RenderSummary(s Status) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Checked %d links at %s", s.TotalCount, s.Timestamp)))
	b.WriteString("\n")
	b.WriteString(okStyle.Render(fmt.Sprintf("accessible: %d", s.AccessibleCount)))
	b.WriteString("  ")
	if s.InaccessibleCount > 0 {
		b.WriteString(failStyle.Render(fmt.Sprintf("inaccessible: %d", s.InaccessibleCount)))
	} else {
		b.WriteString(dimStyle.Render("inaccessible: 0"))
	}
	b.WriteString("\n")

	failing := s.Failing()
	if len(failing) == 0 {
		b.WriteString(okStyle.Render("All links reachable."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(failing))
	for _, it := range failing {
		status := strconv.Itoa(it.Status)
		if it.Status == 0 {
			status = "-"
		}
		rows = append(rows, []string{
			it.Name,
			it.Link,
			status,
			strconv.Itoa(it.Attempts),
			strconv.Itoa(it.ErrorCount),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Name", "Link", "Status", "Attempts", "Failed runs").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == 2 {
				return statusStyle
			}
			return cellStyle
		}).
		Rows(rows...)

	b.WriteString(t.Render())
	b.WriteString("\n")
	if s.RunID != "" {
		b.WriteString(dimStyle.Render("run " + s.RunID))
		b.WriteString("\n")
	}
	return b.String()
}
