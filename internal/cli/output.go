package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/quipper/poc/gradebook/internal/roster"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderRoster writes the roster table, or the placeholder when empty.
func renderRoster(w io.Writer, v roster.View) {
	if v.Empty {
		fmt.Fprintln(w, roster.EmptyPlaceholder)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Name", "Last name", "Subject", "Grade", "Appreciation").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range v.Rows {
		t.Row(strconv.Itoa(r.Index), r.Name, r.LastName, r.Subject, r.GradeText, string(r.Appreciation))
	}
	fmt.Fprintln(w, t.Render())
}

func renderStats(w io.Writer, v roster.View) {
	fmt.Fprintf(w, "Average:        %s\n", v.Average)
	fmt.Fprintf(w, "Total:          %d\n", v.Counts.Total)
	fmt.Fprintf(w, "Must take exam: %d\n", v.Counts.MustTakeExam)
	fmt.Fprintf(w, "Exempted:       %d\n", v.Counts.Exempted)
}
