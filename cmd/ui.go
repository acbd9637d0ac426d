package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/pipeline"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/seqfile"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	okColor      = lipgloss.Color("#10B981")
	warnColor    = lipgloss.Color("#F59E0B")
	errColor     = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#9CA3AF")
	borderColor  = lipgloss.Color("#374151")
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	savedStyle  = lipgloss.NewStyle().Foreground(okColor)
	warnStyle   = lipgloss.NewStyle().Foreground(warnColor)
	failStyle   = lipgloss.NewStyle().Foreground(errColor).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(mutedColor)
)

func savedLine(path string) string {
	return savedStyle.Render("Combined sequences saved to " + path)
}

func statusStyle(s pipeline.Status) lipgloss.Style {
	switch s {
	case pipeline.StatusOK:
		return savedStyle
	case pipeline.StatusFailed:
		return failStyle
	case pipeline.StatusBlocked:
		return warnStyle
	}
	return dimStyle
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...)
}

// headerRow is the StyleFunc row of the table header; data rows follow it.
const headerRow = 0

// dataRow maps a StyleFunc row to an index into the rows passed to Row.
func dataRow(row int) int { return row - headerRow - 1 }

func renderSummary(sum pipeline.Summary) string {
	t := newTable("STAGE", "STATUS", "FILES", "LINES", "SKIPPED", "TIME")
	statuses := make([]pipeline.Status, 0, len(sum.Stages))
	for _, sr := range sum.Stages {
		statuses = append(statuses, sr.Status)
		t.Row(
			sr.Stage.Name,
			string(sr.Status),
			fmt.Sprint(len(sr.Result.Files)),
			fmt.Sprint(sr.Result.Lines),
			fmt.Sprint(len(sr.Result.Skipped)),
			sr.Duration.Round(time.Millisecond).String(),
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == headerRow {
			return headerStyle
		}
		if i := dataRow(row); col == 1 && i >= 0 && i < len(statuses) {
			return statusStyle(statuses[i]).Padding(0, 1)
		}
		return cellStyle
	})
	return t.Render()
}

func renderStages(stages []pipeline.Stage, def seqfile.Suffixes) string {
	t := newTable("STAGE", "INPUT", "OUTPUT", "SUFFIXES", "AFTER")
	for _, s := range stages {
		sfx := s.Suffixes
		if len(sfx) == 0 {
			sfx = def
		}
		after := strings.Join(s.After, ",")
		if after == "" {
			after = "-"
		}
		t.Row(s.Name, s.InputDir, s.Output, sfx.String(), after)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == headerRow {
			return headerStyle
		}
		return cellStyle
	})
	return t.Render()
}
