package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/stats"
)

var (
	colorBlue    = lipgloss.Color("#89b4fa")
	colorRed     = lipgloss.Color("#f38ba8")
	colorGreen   = lipgloss.Color("#a6e3a1")
	colorPeach   = lipgloss.Color("#fab387")
	colorOverlay = lipgloss.Color("#7f849c")

	headerStyle    = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorOverlay)
	errorStyle     = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	okStyle        = lipgloss.NewStyle().Foreground(colorGreen)
	highlightStyle = lipgloss.NewStyle().Foreground(colorPeach).Bold(true)
)

// markMatch renders a search match for the terminal.
func markMatch(s string) string {
	return highlightStyle.Render(s)
}

// formatMoney renders an amount with thousands separators and two decimals.
func formatMoney(m core.Money) string {
	return humanize.FormatFloat("#,###.##", m.Float())
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func padLeft(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

// renderTable writes the transaction list. Search matches in the description
// and category are highlighted when pattern is non-empty.
func renderTable(w io.Writer, engine *query.Engine, records []core.Transaction, pattern string, caseSensitive bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No transactions."))
		return
	}

	header := []string{"ID", "DATE", "DESCRIPTION", "CATEGORY", "AMOUNT"}
	rows := make([][]string, len(records))
	for i, r := range records {
		desc, category := r.Description, r.Category
		if pattern != "" {
			desc = engine.Highlight(desc, pattern, caseSensitive, markMatch)
			category = engine.Highlight(category, pattern, caseSensitive, markMatch)
		}
		rows[i] = []string{mutedStyle.Render(r.ID), r.Date, desc, category, formatMoney(r.Amount)}
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	last := len(header) - 1
	cells := make([]string, len(header))
	for i, h := range header {
		if i == last {
			cells[i] = headerStyle.Render(padLeft(h, widths[i]))
		} else {
			cells[i] = headerStyle.Render(padRight(h, widths[i]))
		}
	}
	fmt.Fprintln(w, strings.Join(cells, "  "))
	for _, row := range rows {
		for i, cell := range row {
			if i == last {
				cells[i] = padLeft(cell, widths[i])
			} else {
				cells[i] = padRight(cell, widths[i])
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "  "))
	}
}

// renderStats writes the statistics panel.
func renderStats(w io.Writer, snap stats.Snapshot) {
	line := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", padRight(label, 18), value)
	}

	fmt.Fprintln(w, headerStyle.Render("Summary"))
	line("Transactions:", humanize.Comma(int64(snap.TotalCount)))
	line("Total spent:", formatMoney(snap.TotalSpent))
	line("Last 7 days:", formatMoney(snap.Last7Days))
	line("Top category:", snap.TopCategory)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Budget"))
	line("Cap:", formatMoney(snap.BudgetCap))
	remaining := formatMoney(snap.Remaining)
	if snap.Overspent {
		remaining = errorStyle.Render(remaining + " (over budget)")
	} else {
		remaining = okStyle.Render(remaining)
	}
	line("Remaining:", remaining)
	line("Used:", fmt.Sprintf("%s %s", progressBar(snap.PercentUsed, 20), humanize.FormatFloat("#.#", snap.PercentUsed)+"%"))

	if len(snap.ByCategory) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("By category"))
		for _, c := range snap.ByCategory {
			line(c.Name+":", formatMoney(c.Amount))
		}
	}
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = min(max(filled, 0), width)
	style := okStyle
	if percent >= 90 {
		style = errorStyle
	}
	return style.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func renderSettings(w io.Writer, s core.Settings) {
	fmt.Fprintln(w, headerStyle.Render("Settings"))
	fmt.Fprintf(w, "%s %s\n", padRight("Budget cap:", 18), formatMoney(s.BudgetCap))
	fmt.Fprintln(w, padRight("Currencies:", 18))
	for _, code := range sortedCodes(s.Currencies) {
		fmt.Fprintf(w, "  %s %s\n", code, humanize.Ftoa(s.Currencies[code]))
	}
}
