// Command tui browses the JSON report written by "refcat run --report".
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/fsys"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/pipeline"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/report"
)

var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	surfaceColor   = lipgloss.Color("#1F2937")
	textColor      = lipgloss.Color("#F3F4F6")
	mutedColor     = lipgloss.Color("#9CA3AF")
	borderColor    = lipgloss.Color("#374151")
)

var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(mutedColor)

	okStyle      = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)
	blockedStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)

func statusStyle(status string) lipgloss.Style {
	switch pipeline.Status(status) {
	case pipeline.StatusOK:
		return okStyle
	case pipeline.StatusFailed:
		return failedStyle
	case pipeline.StatusBlocked:
		return blockedStyle
	}
	return labelStyle
}

type listItem struct {
	stage report.Stage
}

func (i listItem) FilterValue() string { return i.stage.Name }

func (i listItem) Title() string { return i.stage.Name }

func (i listItem) Description() string {
	return fmt.Sprintf("%s    files: %d    lines: %d",
		statusStyle(i.stage.Status).Render(i.stage.Status), len(i.stage.Files), i.stage.Lines)
}

type mode int

const (
	modeFiles mode = iota
	modeProblems
)

func (m mode) String() string {
	switch m {
	case modeFiles:
		return "Files"
	case modeProblems:
		return "Problems"
	default:
		return "Unknown"
	}
}

type model struct {
	list          list.Model
	report        *report.Report
	currentMode   mode
	showHelp      bool
	width         int
	height        int
	selectedIndex int
}

func newModel(r *report.Report) model {
	items := make([]list.Item, len(r.Stages))
	for i, st := range r.Stages {
		items[i] = listItem{stage: st}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "refcat stages"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	return model{list: l, report: r, currentMode: modeFiles}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) cycleMode() model {
	m.currentMode = (m.currentMode + 1) % 2
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetWidth(msg.Width / 3)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		// keys typed into the filter belong to the list
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "1":
			m.currentMode = modeFiles
			return m, nil
		case "2":
			m.currentMode = modeProblems
			return m, nil
		case "tab":
			return m.cycleMode(), nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.selectedIndex = m.list.Index()
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpModal()
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.renderLeftPanel(), m.renderRightPanel())
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m model) renderLeftPanel() string {
	return containerStyle.
		Width(m.width/3 - 2).
		Height(m.height - 4).
		Render(m.list.View())
}

func (m model) renderRightPanel() string {
	panel := containerStyle.Width(m.width*2/3 - 2).Height(m.height - 4)

	selected, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return panel.Render("No stage selected")
	}
	return panel.Render(strings.Join(m.rightLines(selected.stage), "\n"))
}

// rightLines renders the detail of one stage for the current mode.
func (m model) rightLines(st report.Stage) []string {
	lines := []string{
		titleStyle.Render(st.Name) + "  " + statusStyle(st.Status).Render(st.Status),
		labelStyle.Render("input:  ") + st.InputDir,
		labelStyle.Render("output: ") + st.Output,
		labelStyle.Render(fmt.Sprintf("lines: %d    bytes: %d    time: %dms", st.Lines, st.Bytes, st.DurationMS)),
		"",
	}
	if st.Error != "" {
		lines = append(lines, failedStyle.Render("error: ")+st.Error, "")
	}

	switch m.currentMode {
	case modeFiles:
		if len(st.Files) == 0 {
			return append(lines, labelStyle.Render("No files concatenated"))
		}
		width := 0
		for _, f := range st.Files {
			width = max(width, len(f.Name))
		}
		for _, f := range st.Files {
			lines = append(lines, fmt.Sprintf("%-*s  %10d lines  %12d bytes", width, f.Name, f.Lines, f.Bytes))
		}
	case modeProblems:
		if len(st.Skipped) == 0 && len(st.Excluded) == 0 {
			return append(lines, labelStyle.Render("No skipped or excluded files"))
		}
		for _, sk := range st.Skipped {
			lines = append(lines, blockedStyle.Render("skipped  ")+sk.Name+labelStyle.Render("  "+sk.Error))
		}
		for _, name := range st.Excluded {
			lines = append(lines, labelStyle.Render("excluded ")+name+labelStyle.Render("  (output of this stage)"))
		}
	}
	return lines
}

func (m model) renderStatusBar() string {
	lines, bytes := m.report.Totals()
	leftInfo := fmt.Sprintf("%d/%d stages", m.selectedIndex+1, len(m.report.Stages))
	centerInfo := fmt.Sprintf("Mode: %s    %d lines, %d bytes", m.currentMode, lines, bytes)
	rightInfo := "Press 'h' for help, 'q' to quit"

	spacing := m.width - len(leftInfo) - len(centerInfo) - len(rightInfo) - 2
	var content string
	if spacing > 0 {
		left := spacing / 2
		content = leftInfo + strings.Repeat(" ", left) + centerInfo + strings.Repeat(" ", spacing-left) + rightInfo
	} else {
		content = leftInfo + " | " + centerInfo
	}
	return statusBarStyle.Width(m.width).Render(content)
}

func (m model) renderHelpModal() string {
	helpContent := `refcat report browser - Help

Navigation:
  up/down, j/k   Navigate stages
  /              Filter stages

View Modes:
  1              Files concatenated
  2              Skipped and excluded files
  tab            Next mode

General:
  h              Toggle this help
  q, Ctrl+C      Quit

Current Mode: ` + m.currentMode.String() + `
Generated: ` + m.report.GeneratedAt.Local().Format("2006-01-02 15:04:05") + `
`

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60).
		Render(helpContent)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func main() {
	path := flag.String("report", "run.json", "run report written by refcat run --report")
	flag.Parse()

	r, err := report.Load(fsys.OS{}, *path)
	if err != nil {
		log.Fatal("cannot load report", "path", *path, "err", err)
	}
	p := tea.NewProgram(newModel(r), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
