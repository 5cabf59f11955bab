package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6366F1"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6B7280")).
			Padding(0, 2).
			Align(lipgloss.Center)
)

// Render produces the terminal view of a display model.
func Render(d *Display) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n\n")

	cards := make([]string, 0, len(d.Metrics))
	for _, m := range d.Metrics {
		cards = append(cards, cardStyle.Render(
			labelStyle.Render(m.Label)+"\n"+m.Value+"\n"+labelStyle.Render(m.Note)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Feature Importance (Coefficients)"))
	b.WriteString("\n")
	if len(d.Features) == 0 {
		b.WriteString(labelStyle.Render("No feature importance available."))
		b.WriteString("\n")
	}
	for _, f := range d.Features {
		style := goodStyle
		if f.Weight < 0 {
			style = badStyle
		}
		b.WriteString(fmt.Sprintf("  %-24s %s\n", f.Feature, style.Render(f.Display)))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Sample Predictions"))
	b.WriteString("\n")
	if len(d.Samples) == 0 {
		b.WriteString(labelStyle.Render("No sample predictions available."))
		b.WriteString("\n")
	} else if d.Kind == Classification {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s %-16s %s", "Actual", "Predicted", "Correct")))
		b.WriteString("\n")
		for _, row := range d.Samples {
			mark := goodStyle.Render("yes")
			if !row.Correct {
				mark = badStyle.Render("no")
			}
			b.WriteString(fmt.Sprintf("  %-16s %-16s %s\n", row.Actual, row.Predicted, mark))
		}
	} else {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %-12s %-12s %s", "Actual", "Predicted", "Difference")))
		b.WriteString("\n")
		for _, row := range d.Samples {
			style := goodStyle
			if row.Large {
				style = badStyle
			}
			b.WriteString(fmt.Sprintf("  %-12s %-12s %s\n", row.Actual, row.Predicted, style.Render(row.Difference)))
		}
	}
	b.WriteString("\n")

	if len(d.Charts) > 0 {
		b.WriteString(sectionStyle.Render("Generated Charts"))
		b.WriteString("\n")
		for _, c := range d.Charts {
			switch c.Kind {
			case ChartImage:
				b.WriteString(fmt.Sprintf("  %-24s %s\n", c.Name,
					labelStyle.Render(fmt.Sprintf("[embedded image, %d bytes]", len(c.Data)))))
			default:
				b.WriteString(fmt.Sprintf("  %-24s %s\n", c.Name, c.Data))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Model Summary"))
	b.WriteString("\n  ")
	b.WriteString(d.Summary)
	b.WriteString("\n")

	if len(d.Recommendations) > 0 {
		b.WriteString("\n")
		b.WriteString(badStyle.Render("Model Performance Warning"))
		b.WriteString("\n")
		for i, rec := range d.Recommendations {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, rec))
		}
	}
	return b.String()
}
