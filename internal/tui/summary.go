package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"xnbconv/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows lists the counters of a finished run. Zero counters other
// than the file totals are left out.
func SummaryRows(s processor.Summary, elapsed time.Duration) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Files", Value: fmt.Sprintf("%d/%d", s.Completed, s.Total)},
	}
	optional := []struct {
		label string
		value int
	}{
		{"Extracted", s.Extracted},
		{"Converted", s.Converted},
		{"Backed up", s.BackedUp},
		{"Restored", s.Restored},
		{"Errors", s.Errors()},
		{"Warnings", s.Warnings()},
	}
	for _, o := range optional {
		if o.value > 0 {
			rows = append(rows, SummaryRow{Label: o.label, Value: fmt.Sprint(o.value)})
		}
	}
	rows = append(rows, SummaryRow{Label: "Elapsed", Value: elapsed.Round(time.Millisecond).String()})
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// RenderErrorLog tabulates the errors and warnings of a run.
func RenderErrorLog(entries []processor.LogEntry) string {
	if len(entries) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Level", "Item", "Reason"})
	for _, entry := range entries {
		level := "error"
		if entry.Warning {
			level = "warning"
		}
		tw.AppendRow(table.Row{level, entry.Message, entry.Reason})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 60},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 60},
	})
	return tw.Render()
}

// CompletionLine is the closing line of a run. When anything was logged it
// points at the log file by name.
func CompletionLine(s processor.Summary, logPath string) string {
	if len(s.Log) == 0 {
		return successStyle.Render(s.Message)
	}
	return errorStyle.Render(fmt.Sprintf(
		"Errors or warnings occurred during processing.\nSee '%s' for more details.",
		filepath.Base(logPath),
	))
}

func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
